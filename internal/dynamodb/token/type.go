package token

import "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

// TokenMarshaler converts DynamoDB pagination keys to and from opaque
// client tokens. The scope binds a token to the partition it was issued
// for, so a token minted for one share cannot page through another.
type TokenMarshaler interface {
	Marshal(scope string, lastKey map[string]types.AttributeValue) ([]byte, error)

	Unmarshal(scope string, token []byte) (map[string]types.AttributeValue, error)
}
