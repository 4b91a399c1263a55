package objstore

import (
	"sync"
	"time"
)

// CacheKey identifies one minted URL. DownloadName is part of the key
// because it is baked into the signed URL's content-disposition.
type CacheKey struct {
	Bucket       string
	Path         string
	DownloadName string
}

// urlEntry holds a cached URL with its expiry and insertion order.
type urlEntry struct {
	url        string
	expiresAt  time.Time
	insertedAt time.Time
}

// URLCache memoizes signed URLs for the lifetime of a viewer session so
// that re-renders do not re-mint. It is bounded, TTL-limited and safe for
// concurrent use. The TTL must stay below the signed-URL TTL so a cached
// URL is always still live when served.
type URLCache struct {
	mu      sync.Mutex
	items   map[CacheKey]*urlEntry
	maxSize int
	ttl     time.Duration
}

// NewURLCache creates a cache with the given maximum size and TTL.
func NewURLCache(maxSize int, ttl time.Duration) *URLCache {
	if maxSize < 1 {
		maxSize = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &URLCache{
		items:   make(map[CacheKey]*urlEntry, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get returns a cached URL, or ("", false) on miss or expiry. Expired
// entries are lazily deleted.
func (c *URLCache) Get(key CacheKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.items, key)
		return "", false
	}
	return e.url, true
}

// Set stores a minted URL. At capacity the oldest entry (by insertion
// time) is evicted first.
func (c *URLCache) Set(key CacheKey, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if _, ok := c.items[key]; !ok && len(c.items) >= c.maxSize {
		var oldestKey CacheKey
		var oldest time.Time
		first := true
		for k, e := range c.items {
			if first || e.insertedAt.Before(oldest) {
				oldestKey, oldest, first = k, e.insertedAt, false
			}
		}
		delete(c.items, oldestKey)
	}
	c.items[key] = &urlEntry{url: url, expiresAt: now.Add(c.ttl), insertedAt: now}
}

// InvalidateObject drops every cached URL for (bucket, path), regardless
// of download name. Called after a reissue replaces the stored object.
func (c *URLCache) InvalidateObject(bucket, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if k.Bucket == bucket && k.Path == path {
			delete(c.items, k)
		}
	}
}

// InvalidateAll clears the cache.
func (c *URLCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[CacheKey]*urlEntry, c.maxSize)
}

// Len returns the number of cached entries, including not-yet-collected
// expired ones.
func (c *URLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
