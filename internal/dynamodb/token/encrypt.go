package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"

	"dataplane.me/shares/internal/data"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type EncryptMode func(cipher.Block) (cipher.AEAD, error)

// EncryptionTokenMarshaler seals pagination keys with AES keyed off the
// scope, so tokens are opaque to clients and unusable across scopes.
type EncryptionTokenMarshaler struct {
	Mode EncryptMode
}

func NewGCM() *EncryptionTokenMarshaler {
	return &EncryptionTokenMarshaler{
		Mode: cipher.NewGCM,
	}
}

func _serializeLastKey(lastKey map[string]types.AttributeValue) ([]byte, error) {
	if len(lastKey) == 0 {
		return nil, nil
	}
	token := make(data.NextToken, len(lastKey))
	for field, value := range lastKey {
		inner := make(map[string]string, 1)
		switch av := value.(type) {
		case *types.AttributeValueMemberS:
			inner["S"] = av.Value
		case *types.AttributeValueMemberN:
			inner["N"] = av.Value
		case *types.AttributeValueMemberB:
			inner["B"] = string(av.Value)
		}
		token[field] = inner
	}
	return json.Marshal(token)
}

func _deserializeLastKey(serialized []byte) (map[string]types.AttributeValue, error) {
	if len(serialized) == 0 {
		return nil, nil
	}
	var nextToken data.NextToken
	if err := json.Unmarshal(serialized, &nextToken); err != nil {
		return nil, err
	}
	lastKey := make(map[string]types.AttributeValue, len(nextToken))
	for field, inner := range nextToken {
		if sv, ok := inner["S"]; ok {
			lastKey[field] = &types.AttributeValueMemberS{Value: sv}
		}
		if nv, ok := inner["N"]; ok {
			lastKey[field] = &types.AttributeValueMemberN{Value: nv}
		}
		if bv, ok := inner["B"]; ok {
			lastKey[field] = &types.AttributeValueMemberB{Value: []byte(bv)}
		}
	}
	return lastKey, nil
}

func _mode(marshaler *EncryptionTokenMarshaler, scope string) (cipher.AEAD, error) {
	hash := sha256.Sum256([]byte(scope))
	key, err := aes.NewCipher(hash[:])
	if err != nil {
		return nil, err
	}
	return marshaler.Mode(key)
}

func (em *EncryptionTokenMarshaler) Marshal(scope string, lastKey map[string]types.AttributeValue) ([]byte, error) {
	serialized, err := _serializeLastKey(lastKey)
	if err != nil || serialized == nil {
		return nil, err
	}
	aesgcm, err := _mode(em, scope)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := aesgcm.Seal(nil, nonce, serialized, nil)
	payload, err := json.Marshal(map[string]string{
		"ciphertext": hex.EncodeToString(ciphertext),
		"nonce":      hex.EncodeToString(nonce),
	})
	if err != nil {
		return nil, err
	}
	return []byte(base64.URLEncoding.EncodeToString(payload)), nil
}

func (em *EncryptionTokenMarshaler) Unmarshal(scope string, token []byte) (map[string]types.AttributeValue, error) {
	if len(token) == 0 {
		return nil, nil
	}
	decoded := make([]byte, base64.URLEncoding.DecodedLen(len(token)))
	n, err := base64.URLEncoding.Decode(decoded, token)
	if err != nil {
		return nil, err
	}
	var payload map[string]string
	if err := json.Unmarshal(decoded[:n], &payload); err != nil {
		return nil, err
	}
	aesgcm, err := _mode(em, scope)
	if err != nil {
		return nil, err
	}
	ciphertext, _ := hex.DecodeString(payload["ciphertext"])
	nonce, _ := hex.DecodeString(payload["nonce"])
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}
	return _deserializeLastKey(plaintext)
}
