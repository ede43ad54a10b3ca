package dynamodb

import (
	"encoding/json"
	"fmt"
	"sort"

	"jirai-backend/internal/infrastructure/persistence/records"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type workspaceItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	records.WorkspaceRecord
}

// nodeItem keeps the JSON data column as a string attribute.
type nodeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Seq        int    `dynamodbav:"Seq"`
	DataJSON   string `dynamodbav:"Data"`
	records.NodeRecord
}

type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	Seq        int    `dynamodbav:"Seq"`
	StrokeJSON string `dynamodbav:"Stroke,omitempty"`
	records.EdgeRecord
}

func headerItem(w records.WorkspaceRecord) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(workspaceItem{
		PK:              BuildUserPK(w.UserID),
		SK:              BuildWorkspaceSK(w.ID),
		EntityType:      entityWorkspace,
		WorkspaceRecord: w,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal workspace %s: %w", w.ID, err)
	}
	return item, nil
}

// contentItems marshals the node and edge rows of a set.
func contentItems(set records.Set) ([]map[string]types.AttributeValue, error) {
	pk := BuildWorkspacePK(set.Workspace.ID)
	out := make([]map[string]types.AttributeValue, 0, len(set.Nodes)+len(set.Edges))
	for i, n := range set.Nodes {
		item, err := attributevalue.MarshalMap(nodeItem{
			PK:         pk,
			SK:         BuildNodeSK(n.ID),
			EntityType: entityNode,
			Seq:        i,
			DataJSON:   string(n.Data),
			NodeRecord: n,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal node %s: %w", n.ID, err)
		}
		out = append(out, item)
	}
	for i, e := range set.Edges {
		item, err := attributevalue.MarshalMap(edgeItem{
			PK:         pk,
			SK:         BuildEdgeSK(e.ID),
			EntityType: entityEdge,
			Seq:        i,
			StrokeJSON: string(e.Stroke),
			EdgeRecord: e,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal edge %s: %w", e.ID, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func parseHeader(item map[string]types.AttributeValue) (records.WorkspaceRecord, error) {
	var w workspaceItem
	if err := attributevalue.UnmarshalMap(item, &w); err != nil {
		return records.WorkspaceRecord{}, fmt.Errorf("unmarshal workspace: %w", err)
	}
	return w.WorkspaceRecord, nil
}

// parseContents splits the items of a workspace partition into rows,
// ordered as they were saved. Unknown entity types are skipped.
func parseContents(items []map[string]types.AttributeValue) ([]records.NodeRecord, []records.EdgeRecord, error) {
	var (
		nodes []nodeItem
		edges []edgeItem
	)
	for _, item := range items {
		sk := ""
		if v, ok := item["SK"].(*types.AttributeValueMemberS); ok {
			sk = v.Value
		}
		switch {
		case ExtractIDFromSK(sk, prefixNode) != "":
			var n nodeItem
			if err := attributevalue.UnmarshalMap(item, &n); err != nil {
				return nil, nil, fmt.Errorf("unmarshal node %s: %w", sk, err)
			}
			n.Data = json.RawMessage(n.DataJSON)
			nodes = append(nodes, n)
		case ExtractIDFromSK(sk, prefixEdge) != "":
			var e edgeItem
			if err := attributevalue.UnmarshalMap(item, &e); err != nil {
				return nil, nil, fmt.Errorf("unmarshal edge %s: %w", sk, err)
			}
			if e.StrokeJSON != "" {
				e.Stroke = json.RawMessage(e.StrokeJSON)
			}
			edges = append(edges, e)
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Seq < nodes[j].Seq })
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Seq < edges[j].Seq })

	nodeRows := make([]records.NodeRecord, len(nodes))
	for i, n := range nodes {
		nodeRows[i] = n.NodeRecord
	}
	edgeRows := make([]records.EdgeRecord, len(edges))
	for i, e := range edges {
		edgeRows[i] = e.EdgeRecord
	}
	return nodeRows, edgeRows, nil
}
