// Package cache provides the advisory byte cache used for embeddings.
// Caching must tolerate concurrent misses: every backend recomputes
// independently on a miss and last write wins.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from arbitrary input text
func Key(input string) string {
	hash := sha256.Sum256([]byte(input))
	return "chaincontext:v1:" + hex.EncodeToString(hash[:])
}
