package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/repository"
)

// LocalIndex matches case-insensitive substrings of label and body.
type LocalIndex struct {
	mu sync.RWMutex
	// owner -> workspace -> documents
	docs map[string]map[string][]Document
}

var _ repository.NodeIndex = (*LocalIndex)(nil)

func NewLocalIndex() *LocalIndex {
	return &LocalIndex{docs: make(map[string]map[string][]Document)}
}

func (l *LocalIndex) Index(ctx context.Context, ownerID, workspaceID string, nodes []node.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	docs := make([]Document, 0, len(nodes))
	for _, n := range nodes {
		docs = append(docs, NewDocument(ownerID, workspaceID, n))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.docs[ownerID] == nil {
		l.docs[ownerID] = make(map[string][]Document)
	}
	l.docs[ownerID][workspaceID] = docs
	return nil
}

func (l *LocalIndex) Remove(_ context.Context, ownerID, workspaceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.docs[ownerID], workspaceID)
	return nil
}

// Search ranks label matches ahead of body matches, then orders by label.
func (l *LocalIndex) Search(ctx context.Context, q repository.SearchQuery) ([]repository.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return []repository.SearchHit{}, nil
	}

	type scored struct {
		doc   Document
		label bool
	}
	var matches []scored

	l.mu.RLock()
	for wsID, docs := range l.docs[q.OwnerID] {
		if q.WorkspaceID != "" && wsID != q.WorkspaceID {
			continue
		}
		for _, d := range docs {
			inLabel := strings.Contains(strings.ToLower(d.Label), needle)
			if inLabel || strings.Contains(strings.ToLower(d.Body), needle) {
				matches = append(matches, scored{doc: d, label: inLabel})
			}
		}
	}
	l.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].label != matches[j].label {
			return matches[i].label
		}
		if matches[i].doc.Label != matches[j].doc.Label {
			return matches[i].doc.Label < matches[j].doc.Label
		}
		return matches[i].doc.ID < matches[j].doc.ID
	})

	limit := clampLimit(q.Limit)
	hits := make([]repository.SearchHit, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(hits) == limit {
			break
		}
		hits = append(hits, m.doc.hit())
	}
	return hits, nil
}
