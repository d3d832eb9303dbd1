package jwt

import (
	"sync"

	"github.com/deep-rent/jose/internal/lru"
)

// defaultHeaderCacheSize is the number of parsed headers a Policy retains
// before evicting the least recently used entry.
const defaultHeaderCacheSize = 32

// cachedHeader is the value stored in the header cache: the parsed header
// alongside whether it passed critical-header validation against the
// policy snapshot that produced it.
type cachedHeader struct {
	header   JwtHeader
	critical error
}

// headerCache is a bounded, thread-safe cache of parsed headers keyed by
// their exact base64url-encoded bytes.
type headerCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, cachedHeader]
}

func newHeaderCache(size int) *headerCache {
	if size <= 0 {
		size = defaultHeaderCacheSize
	}
	return &headerCache{cache: lru.New[string, cachedHeader](size)}
}

func (c *headerCache) get(key string) (cachedHeader, bool) {
	if c == nil {
		return cachedHeader{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Get(key)
}

func (c *headerCache) put(key string, v cachedHeader) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Put(key, v)
}
