package dynamodb

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/records"
	"jirai-backend/internal/infrastructure/persistence/repotest"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable is an in-memory table understanding the handful of expressions
// the repository sends.
type fakeTable struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	// unprocessedOnce makes the next BatchWriteItem call hand back its last
	// request as unprocessed.
	unprocessedOnce bool
	batchCalls      int
	failWith        error
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: make(map[string]map[string]types.AttributeValue)}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func itemKey(item map[string]types.AttributeValue) string {
	return str(item["PK"]) + "|" + str(item["SK"])
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &dynamodb.GetItemOutput{Item: f.items[itemKey(in.Key)]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Item)
	if in.ConditionExpression != nil && strings.Contains(*in.ConditionExpression, "attribute_not_exists") {
		if _, ok := f.items[k]; ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

var setClause = regexp.MustCompile(`(#\w+)\s*=\s*(:\w+)`)

func (f *fakeTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemKey(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	for _, m := range setClause.FindAllStringSubmatch(aws.ToString(in.UpdateExpression), -1) {
		item[in.ExpressionAttributeNames[m[1]]] = in.ExpressionAttributeValues[m[2]]
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(in.Key)
	if _, ok := f.items[k]; !ok && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	delete(f.items, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query supports "PK = :v" optionally combined with begins_with on SK. The
// expression builder numbers the partition value :0 and the prefix :1.
func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	pk := str(in.ExpressionAttributeValues[":0"])
	prefix := ""
	if strings.Contains(aws.ToString(in.KeyConditionExpression), "begins_with") {
		prefix = str(in.ExpressionAttributeValues[":1"])
	}
	var out []map[string]types.AttributeValue
	for _, item := range f.items {
		if str(item["PK"]) == pk && strings.HasPrefix(str(item["SK"]), prefix) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return str(out[i]["SK"]) < str(out[j]["SK"]) })
	return &dynamodb.QueryOutput{Items: out, Count: int32(len(out))}, nil
}

func (f *fakeTable) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		if f.unprocessedOnce && len(reqs) > 0 {
			f.unprocessedOnce = false
			out.UnprocessedItems[table] = reqs[len(reqs)-1:]
			reqs = reqs[:len(reqs)-1]
		}
		for _, r := range reqs {
			switch {
			case r.PutRequest != nil:
				f.items[itemKey(r.PutRequest.Item)] = r.PutRequest.Item
			case r.DeleteRequest != nil:
				delete(f.items, itemKey(r.DeleteRequest.Key))
			}
		}
	}
	return out, nil
}

func (f *fakeTable) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.items {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}

func TestWorkspaceRepository_Contract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.WorkspaceRepository {
		return NewWorkspaceRepository(newFakeTable(), "jirai", nil)
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "USER#u1", BuildUserPK("u1"))
	assert.Equal(t, "WS#w1", BuildWorkspaceSK("w1"))
	assert.Equal(t, "WS#w1", BuildWorkspacePK("w1"))
	assert.Equal(t, "NODE#text-1", BuildNodeSK("text-1"))
	assert.Equal(t, "EDGE#e1-2", BuildEdgeSK("e1-2"))
	assert.Equal(t, "text-1", ExtractIDFromSK("NODE#text-1", prefixNode))
	assert.Equal(t, "", ExtractIDFromSK("EDGE#e1", prefixNode))
}

func sampleWorkspace(t *testing.T) workspace.Workspace {
	t.Helper()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	ws, err := workspace.New("alice", "Sample", "", shared.DashboardAnalysis, now)
	require.NoError(t, err)
	ws.Nodes, ws.Edges = workspace.Sample(now)
	return ws
}

func TestItems_RoundTrip(t *testing.T) {
	ws := sampleWorkspace(t)
	set, err := records.ToRecords(ws)
	require.NoError(t, err)

	items, err := contentItems(set)
	require.NoError(t, err)
	require.Len(t, items, len(ws.Nodes)+len(ws.Edges))
	assert.Equal(t, "WS#"+ws.ID, str(items[0]["PK"]))
	assert.Equal(t, "NODE", str(items[0]["EntityType"]))

	// Reverse to prove order comes from Seq, not from item order.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	nodes, edges, err := parseContents(items)
	require.NoError(t, err)

	back, err := records.FromRecords(set.Workspace, nodes, edges)
	require.NoError(t, err)
	require.Len(t, back.Nodes, len(ws.Nodes))
	for i := range ws.Nodes {
		assert.Equal(t, ws.Nodes[i].ID, back.Nodes[i].ID)
		assert.Equal(t, ws.Nodes[i].Data.Label, back.Nodes[i].Data.Label)
	}
	require.Len(t, back.Edges, len(ws.Edges))
	assert.Equal(t, ws.Edges[0].ID, back.Edges[0].ID)
}

func TestSave_RemovesStaleRows(t *testing.T) {
	table := newFakeTable()
	repo := NewWorkspaceRepository(table, "jirai", nil)
	ctx := context.Background()
	ws := sampleWorkspace(t)
	require.NoError(t, repo.Create(ctx, ws))
	assert.Equal(t, len(ws.Nodes)+len(ws.Edges), table.count("WS#"+ws.ID+"|"))

	ws.Nodes = ws.Nodes[:1]
	ws.Edges = nil
	require.NoError(t, repo.Save(ctx, "alice", ws))
	assert.Equal(t, 1, table.count("WS#"+ws.ID+"|"))

	require.NoError(t, repo.Delete(ctx, "alice", ws.ID))
	assert.Equal(t, 0, table.count("WS#"+ws.ID+"|"))
	assert.Equal(t, 0, table.count("USER#alice|"))
}

func TestBatchWrite_ResubmitsUnprocessed(t *testing.T) {
	table := newFakeTable()
	table.unprocessedOnce = true
	repo := NewWorkspaceRepository(table, "jirai", nil)
	ws := sampleWorkspace(t)

	require.NoError(t, repo.Create(context.Background(), ws))
	assert.Equal(t, 2, table.batchCalls)
	assert.Equal(t, len(ws.Nodes)+len(ws.Edges), table.count("WS#"+ws.ID+"|"))
}

func TestMapError(t *testing.T) {
	throttled := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	assert.True(t, appErrors.IsUnavailable(mapError("query", throttled)))

	denied := &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "no"}
	err := mapError("query", denied)
	assert.True(t, appErrors.IsExternal(err))
	assert.Contains(t, err.Error(), "AccessDeniedException")

	assert.True(t, appErrors.IsExternal(mapError("query", errors.New("network"))))
}

func TestList_BackendFailure(t *testing.T) {
	table := newFakeTable()
	table.failWith = &smithy.GenericAPIError{Code: "InternalServerError", Message: "boom"}
	repo := NewWorkspaceRepository(table, "jirai", nil)

	_, err := repo.List(context.Background(), "alice")
	assert.True(t, appErrors.IsExternal(err))
}
