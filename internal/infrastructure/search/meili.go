package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const (
	DefaultIndexName    = "jirai_nodes"
	healthCheckInterval = 10 * time.Second
	// maxWorkspaceDocs bounds the id listing used to prune removed nodes.
	maxWorkspaceDocs = 10000
)

// MeiliIndex implements repository.NodeIndex on Meilisearch.
type MeiliIndex struct {
	client  meili.ServiceManager
	index   string
	logger  *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

var _ repository.NodeIndex = (*MeiliIndex)(nil)

// NewMeiliIndex connects and configures the index. An unreachable server is
// not an error: the index reports itself unhealthy and a background check
// reconfigures it once the server answers.
func NewMeiliIndex(url, apiKey, index string, logger *zap.Logger) *MeiliIndex {
	if index == "" {
		index = DefaultIndexName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &MeiliIndex{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		index:  index,
		logger: logger.With(zap.String("component", "meilisearch")),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		m.logger.Warn("meilisearch unavailable", zap.String("url", url), zap.Error(err))
	} else {
		m.healthy.Store(true)
		m.configure()
	}
	go m.healthLoop()
	return m
}

func (m *MeiliIndex) configure() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: m.index, PrimaryKey: "id"}); err != nil {
		m.logger.Debug("create index (may already exist)", zap.Error(err))
	}
	idx := m.client.Index(m.index)
	filterable := []interface{}{"ownerId", "workspaceId", "type"}
	if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("update filterable attributes", zap.Error(err))
	}
	searchable := []string{"label", "body"}
	if _, err := idx.UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("update searchable attributes", zap.Error(err))
	}
}

func (m *MeiliIndex) healthLoop() {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			was := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !was {
				m.logger.Info("meilisearch recovered, reconfiguring index")
				m.configure()
			}
		}
	}
}

// Close stops the health monitor.
func (m *MeiliIndex) Close() {
	close(m.done)
}

func (m *MeiliIndex) Healthy() bool {
	return m.healthy.Load()
}

func (m *MeiliIndex) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.healthy.Load() {
		return appErrors.NewUnavailable("search index unavailable", nil)
	}
	return nil
}

// Index upserts the workspace's nodes and deletes documents of nodes that
// are gone.
func (m *MeiliIndex) Index(ctx context.Context, ownerID, workspaceID string, nodes []node.Node) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	existing, err := m.documentIDs(ownerID, workspaceID)
	if err != nil {
		return err
	}

	docs := make([]Document, 0, len(nodes))
	keep := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		d := NewDocument(ownerID, workspaceID, n)
		docs = append(docs, d)
		keep[d.ID] = true
	}
	idx := m.client.Index(m.index)
	if len(docs) > 0 {
		if _, err := idx.AddDocuments(docs, nil); err != nil {
			return m.fail("add documents", err)
		}
	}
	for _, id := range existing {
		if keep[id] {
			continue
		}
		if _, err := idx.DeleteDocument(id, nil); err != nil {
			return m.fail("delete document", err)
		}
	}
	return nil
}

func (m *MeiliIndex) Remove(ctx context.Context, ownerID, workspaceID string) error {
	if err := m.check(ctx); err != nil {
		return err
	}
	ids, err := m.documentIDs(ownerID, workspaceID)
	if err != nil {
		return err
	}
	idx := m.client.Index(m.index)
	for _, id := range ids {
		if _, err := idx.DeleteDocument(id, nil); err != nil {
			return m.fail("delete document", err)
		}
	}
	return nil
}

func (m *MeiliIndex) Search(ctx context.Context, q repository.SearchQuery) ([]repository.SearchHit, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	resp, err := m.client.Index(m.index).Search(q.Text, &meili.SearchRequest{
		Filter: Filter(q.OwnerID, q.WorkspaceID),
		Limit:  int64(clampLimit(q.Limit)),
	})
	if err != nil {
		return nil, m.fail("search", err)
	}

	hits := make([]repository.SearchHit, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		d, err := decodeHit(h)
		if err != nil {
			m.logger.Warn("skipping undecodable hit", zap.Error(err))
			continue
		}
		hits = append(hits, d.hit())
	}
	return hits, nil
}

func (m *MeiliIndex) documentIDs(ownerID, workspaceID string) ([]string, error) {
	resp, err := m.client.Index(m.index).Search("", &meili.SearchRequest{
		Filter:               Filter(ownerID, workspaceID),
		Limit:                maxWorkspaceDocs,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, m.fail("list documents", err)
	}
	ids := make([]string, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		d, err := decodeHit(h)
		if err == nil && d.ID != "" {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

func (m *MeiliIndex) fail(op string, err error) error {
	return appErrors.NewExternal(fmt.Sprintf("meilisearch %s failed", op), err)
}

// Filter scopes a search to one owner and optionally one workspace.
func Filter(ownerID, workspaceID string) []string {
	f := []string{fmt.Sprintf("ownerId = %q", ownerID)}
	if workspaceID != "" {
		f = append(f, fmt.Sprintf("workspaceId = %q", workspaceID))
	}
	return f
}

func decodeHit(h meili.Hit) (Document, error) {
	raw, err := json.Marshal(h)
	if err != nil {
		return Document{}, err
	}
	var d Document
	err = json.Unmarshal(raw, &d)
	return d, err
}
