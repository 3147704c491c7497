package common

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Sha256Hex returns the lowercase hex SHA-256 digest of data.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON digests the JSON encoding of v. Struct fields encode in
// declaration order so equal values hash equally.
func HashJSON(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Sha256Hex(encoded), nil
}
