package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/records"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	batchSize         = 25
	maxBatchAttempts  = 3
	batchRetryBackoff = 100 * time.Millisecond
)

// API is the subset of the DynamoDB client the repository calls.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// WorkspaceRepository implements repository.WorkspaceRepository on one table.
type WorkspaceRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

var _ repository.WorkspaceRepository = (*WorkspaceRepository)(nil)

// NewWorkspaceRepository creates a repository over tableName.
func NewWorkspaceRepository(client API, tableName string, logger *zap.Logger) *WorkspaceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceRepository{client: client, tableName: tableName, logger: logger, now: time.Now}
}

func (r *WorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	set, err := records.ToRecords(ws)
	if err != nil {
		return appErrors.NewValidation(err.Error())
	}
	header, err := headerItem(set.Workspace)
	if err != nil {
		return appErrors.NewInternal("encode workspace", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                header,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if isConditionFailed(err) {
		return appErrors.NewConflict("workspace " + ws.ID + " already exists")
	}
	if err != nil {
		return mapError("DynamoDB PutItem failed", err)
	}

	items, err := contentItems(set)
	if err != nil {
		return appErrors.NewInternal("encode workspace contents", err)
	}
	return r.batchWrite(ctx, putRequests(items))
}

func (r *WorkspaceRepository) List(ctx context.Context, ownerID string) ([]workspace.Summary, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(BuildUserPK(ownerID))).
		And(expression.Key("SK").BeginsWith(prefixWorkspace))
	items, err := r.queryAll(ctx, keyEx)
	if err != nil {
		return nil, err
	}

	out := make([]workspace.Summary, 0, len(items))
	for _, item := range items {
		w, err := parseHeader(item)
		if err != nil {
			r.logger.Warn("skipping unreadable workspace item", zap.String("ownerID", ownerID), zap.Error(err))
			continue
		}
		out = append(out, records.ToWorkspace(w).Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *WorkspaceRepository) Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error) {
	res, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            key(BuildUserPK(ownerID), BuildWorkspaceSK(id)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return workspace.Workspace{}, mapError("DynamoDB GetItem failed", err)
	}
	if res.Item == nil {
		return workspace.Workspace{}, appErrors.NewNotFound("workspace " + id + " not found")
	}
	header, err := parseHeader(res.Item)
	if err != nil {
		return workspace.Workspace{}, appErrors.NewInternal("decode workspace", err)
	}

	items, err := r.queryAll(ctx, expression.Key("PK").Equal(expression.Value(BuildWorkspacePK(id))))
	if err != nil {
		return workspace.Workspace{}, err
	}
	nodes, edges, err := parseContents(items)
	if err != nil {
		return workspace.Workspace{}, appErrors.NewInternal("decode workspace contents", err)
	}
	ws, err := records.FromRecords(header, nodes, edges)
	if err != nil {
		return workspace.Workspace{}, appErrors.NewInternal("decode workspace", err)
	}
	return ws, nil
}

func (r *WorkspaceRepository) Save(ctx context.Context, ownerID string, ws workspace.Workspace) error {
	set, err := records.ToRecords(ws)
	if err != nil {
		return appErrors.NewValidation(err.Error())
	}
	updated := ws.UpdatedAt
	if updated.IsZero() {
		updated = r.now().UTC()
	}

	update := expression.Set(expression.Name("ViewportX"), expression.Value(set.Workspace.ViewportX)).
		Set(expression.Name("ViewportY"), expression.Value(set.Workspace.ViewportY)).
		Set(expression.Name("ViewportZoom"), expression.Value(set.Workspace.ViewportZoom)).
		Set(expression.Name("LayoutDirection"), expression.Value(set.Workspace.LayoutDirection)).
		Set(expression.Name("UpdatedAt"), expression.Value(updated))
	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return appErrors.NewInternal("build update expression", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       key(BuildUserPK(ownerID), BuildWorkspaceSK(ws.ID)),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return appErrors.NewNotFound("workspace " + ws.ID + " not found")
	}
	if err != nil {
		return mapError("DynamoDB UpdateItem failed", err)
	}

	items, err := contentItems(set)
	if err != nil {
		return appErrors.NewInternal("encode workspace contents", err)
	}
	keep := make(map[string]struct{}, len(items))
	for _, item := range items {
		keep[item["SK"].(*types.AttributeValueMemberS).Value] = struct{}{}
	}

	existing, err := r.contentKeys(ctx, ws.ID)
	if err != nil {
		return err
	}
	var requests []types.WriteRequest
	for _, k := range existing {
		if _, ok := keep[k["SK"].(*types.AttributeValueMemberS).Value]; !ok {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}})
		}
	}
	requests = append(requests, putRequests(items)...)
	return r.batchWrite(ctx, requests)
}

func (r *WorkspaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 key(BuildUserPK(ownerID), BuildWorkspaceSK(id)),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if isConditionFailed(err) {
		return appErrors.NewNotFound("workspace " + id + " not found")
	}
	if err != nil {
		return mapError("DynamoDB DeleteItem failed", err)
	}

	keys, err := r.contentKeys(ctx, id)
	if err != nil {
		return err
	}
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}})
	}
	if err := r.batchWrite(ctx, requests); err != nil {
		r.logger.Error("workspace header deleted but rows remain", zap.String("workspaceID", id), zap.Error(err))
		return err
	}
	return nil
}

// contentKeys lists the primary keys of every row in a workspace partition.
func (r *WorkspaceRepository) contentKeys(ctx context.Context, workspaceID string) ([]map[string]types.AttributeValue, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(BuildWorkspacePK(workspaceID)))
	proj := expression.NamesList(expression.Name("PK"), expression.Name("SK"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).WithProjection(proj).Build()
	if err != nil {
		return nil, appErrors.NewInternal("build query expression", err)
	}
	return r.paginate(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})
}

func (r *WorkspaceRepository) queryAll(ctx context.Context, keyEx expression.KeyConditionBuilder) ([]map[string]types.AttributeValue, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, appErrors.NewInternal("build query expression", err)
	}
	return r.paginate(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})
}

func (r *WorkspaceRepository) paginate(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError("DynamoDB Query failed", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// batchWrite sends requests in chunks of 25, resubmitting unprocessed items
// a bounded number of times.
func (r *WorkspaceRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += batchSize {
		end := min(start+batchSize, len(requests))
		pending := requests[start:end]

		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt >= maxBatchAttempts {
				return appErrors.NewUnavailable(
					fmt.Sprintf("%d items left unprocessed", len(pending)), nil)
			}
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(1<<(attempt-1)) * batchRetryBackoff):
				}
			}
			out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{r.tableName: pending},
			})
			if err != nil {
				return mapError("DynamoDB BatchWriteItem failed", err)
			}
			pending = out.UnprocessedItems[r.tableName]
		}
	}
	return nil
}

func putRequests(items []map[string]types.AttributeValue) []types.WriteRequest {
	out := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		out = append(out, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return out
}

func isConditionFailed(err error) bool {
	if err == nil {
		return false
	}
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// mapError classifies an SDK error. Throttling becomes UNAVAILABLE, the rest
// EXTERNAL, keeping the service error code in the message.
func mapError(message string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ProvisionedThroughputExceededException", "ThrottlingException", "RequestLimitExceeded":
			return appErrors.NewUnavailable(message+": "+apiErr.ErrorCode(), err)
		}
		return appErrors.NewExternal(message+": "+apiErr.ErrorCode(), err)
	}
	return appErrors.NewExternal(message, err)
}
