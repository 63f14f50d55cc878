package cache

import (
	"time"
)

// CacheService represents a generic cache service. The crawler uses it to
// persist fetch back-off state across runs: when the site rate-limits a
// request, a block key is set and the fetcher refuses further requests
// until it expires.
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}
