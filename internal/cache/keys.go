package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// KeySlabTable returns the cache key for a rate slab table fetched from endpoint.
func KeySlabTable(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return "slabs:" + hex.EncodeToString(sum[:8])
}
