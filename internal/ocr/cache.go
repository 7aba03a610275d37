package ocr

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// imageCache is a bounded content-hash cache for preprocessed images.
// Insertion and capacity eviction are atomic; the oldest entry is
// evicted first.
type imageCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]byte
	order    []string
}

func newImageCache(capacity int) *imageCache {
	if capacity <= 0 {
		capacity = 32
	}
	return &imageCache{
		capacity: capacity,
		entries:  make(map[string][]byte, capacity),
	}
}

func (c *imageCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok
}

func (c *imageCache) put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = data
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = data
	c.order = append(c.order, key)
}

func (c *imageCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// contentHash keys cache entries by image content.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
