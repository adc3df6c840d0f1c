// Package cache stores canonical verdicts from completed sessions so
// repeated verifications of the same claim can skip the backend.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key derives the cache key for a claim. Claim text is normalized
// (trimmed, case-folded) so trivially restyled claims share an entry;
// the version segment invalidates everything on schema change.
func Key(claim string) string {
	normalized := strings.ToLower(strings.TrimSpace(claim))
	hash := sha256.Sum256([]byte(normalized))
	return "clamify:v1:" + hex.EncodeToString(hash[:])
}
