// Package search answers command palette queries over indexed nodes and the
// caller's live canvas.
package search

import (
	"context"
	"strings"
	"unicode/utf8"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/infrastructure/observability"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"
)

const maxQueryLength = 200

// Service defines the search operations.
type Service interface {
	// Search queries the index. live, when given, is the caller's unsaved
	// canvas; its matches come first and replace index hits for the same
	// node.
	Search(ctx context.Context, q repository.SearchQuery, live []node.Node) ([]repository.SearchHit, error)
}

type service struct {
	index   repository.NodeIndex
	metrics *observability.Collector
}

// NewService creates the search service. metrics may be nil.
func NewService(index repository.NodeIndex, metrics *observability.Collector) Service {
	return &service{index: index, metrics: metrics}
}

func (s *service) Search(ctx context.Context, q repository.SearchQuery, live []node.Node) ([]repository.SearchHit, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return []repository.SearchHit{}, nil
	}
	if utf8.RuneCountInString(q.Text) > maxQueryLength {
		return nil, appErrors.NewValidation("search query is too long")
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	hits := matchLive(q, live)
	s.count("live", len(hits) > 0)

	indexed, err := s.index.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	s.count("index", true)

	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		seen[h.WorkspaceID+"/"+h.NodeID] = true
	}
	for _, h := range indexed {
		if len(hits) >= q.Limit {
			break
		}
		if !seen[h.WorkspaceID+"/"+h.NodeID] {
			hits = append(hits, h)
		}
	}
	return hits, nil
}

func (s *service) count(source string, ok bool) {
	if s.metrics != nil && ok {
		s.metrics.SearchQueries.WithLabelValues(source).Inc()
	}
}

func matchLive(q repository.SearchQuery, live []node.Node) []repository.SearchHit {
	needle := strings.ToLower(q.Text)
	hits := []repository.SearchHit{}
	for _, n := range live {
		if len(hits) >= q.Limit {
			break
		}
		if strings.Contains(strings.ToLower(n.Data.Label), needle) {
			hits = append(hits, repository.SearchHit{
				NodeID:      n.ID,
				WorkspaceID: q.WorkspaceID,
				Type:        n.Type(),
				Label:       n.Data.Label,
			})
		}
	}
	return hits
}
