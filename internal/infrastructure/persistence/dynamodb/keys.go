// Package dynamodb stores workspaces in a single DynamoDB table.
//
// Item layout:
//
//	PK=USER#{ownerId}    SK=WS#{workspaceId}   workspace header
//	PK=WS#{workspaceId}  SK=NODE#{nodeId}      node row
//	PK=WS#{workspaceId}  SK=EDGE#{edgeId}      edge row
//
// Listing is a query on the owner partition; loading is a GetItem on the
// header followed by a query on the workspace partition.
package dynamodb

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	prefixUser      = "USER#"
	prefixWorkspace = "WS#"
	prefixNode      = "NODE#"
	prefixEdge      = "EDGE#"

	entityWorkspace = "WORKSPACE"
	entityNode      = "NODE"
	entityEdge      = "EDGE"
)

// ============================================================================
// PRIMARY KEY CONSTRUCTION
// ============================================================================

// BuildUserPK constructs the owner partition key: USER#{userId}
func BuildUserPK(userID string) string {
	return fmt.Sprintf("%s%s", prefixUser, userID)
}

// BuildWorkspaceSK constructs the header sort key: WS#{workspaceId}
func BuildWorkspaceSK(workspaceID string) string {
	return fmt.Sprintf("%s%s", prefixWorkspace, workspaceID)
}

// BuildWorkspacePK constructs the contents partition key: WS#{workspaceId}
func BuildWorkspacePK(workspaceID string) string {
	return BuildWorkspaceSK(workspaceID)
}

// BuildNodeSK constructs a node sort key: NODE#{nodeId}
func BuildNodeSK(nodeID string) string {
	return fmt.Sprintf("%s%s", prefixNode, nodeID)
}

// BuildEdgeSK constructs an edge sort key: EDGE#{edgeId}
func BuildEdgeSK(edgeID string) string {
	return fmt.Sprintf("%s%s", prefixEdge, edgeID)
}

// ExtractIDFromSK strips prefix from sk. It returns "" when sk does not
// carry the prefix.
func ExtractIDFromSK(sk, prefix string) string {
	if strings.HasPrefix(sk, prefix) {
		return strings.TrimPrefix(sk, prefix)
	}
	return ""
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}
