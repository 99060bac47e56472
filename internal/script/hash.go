package script

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentHash computes a SHA-256 digest over the canonical serialization of
// a panel sequence. The digest keys plan-cache entries: any change to the
// panels invalidates cached plans implicitly.
//
// Canonical form is the JSON encoding of the panels with struct-declared
// field order, no indentation. Panels are hashed in slice order, so callers
// must pass the sequence in its final global order.
func ContentHash(panels []Panel) (string, error) {
	data, err := json.Marshal(panels)
	if err != nil {
		return "", fmt.Errorf("failed to serialize panels for hashing: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
