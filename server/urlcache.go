package main

import (
	"net/url"
	"strings"
	"sync"

	"github.com/mattermost/mattermost/server/public/plugin"

	"github.com/fmartingr/mattermost-plugin-wallabag/server/store/kvstore"
)

// SavedURLCache remembers which URLs have already been pushed to Wallabag so
// the same link posted twice is not saved twice. It is a bounded
// insertion-ordered set: when full, the oldest entry is evicted first. All
// mutation happens under the mutex because Mattermost dispatches hooks
// concurrently.
//
// Persistence is batched: mutations only mark the cache dirty, and Flush
// writes the whole set as one JSON document. Callers flush once per processed
// message, plus at the periodic job and on deactivation.
type SavedURLCache struct {
	api     plugin.API
	kvstore kvstore.KVStore

	mu      sync.Mutex
	maxSize int
	urls    []string
	index   map[string]struct{}
	dirty   bool
}

// NewSavedURLCache creates an empty cache. Call Load to populate it from the
// KV store.
func NewSavedURLCache(api plugin.API, store kvstore.KVStore, maxSize int) *SavedURLCache {
	if maxSize < 1 {
		maxSize = 1000
	}
	return &SavedURLCache{
		api:     api,
		kvstore: store,
		maxSize: maxSize,
		index:   make(map[string]struct{}),
	}
}

// Load populates the cache from the KV store. A missing or unreadable
// document leaves the cache empty with a warning; startup never fails on it.
func (c *SavedURLCache) Load() {
	urls, err := c.kvstore.LoadSavedURLs()
	if err != nil {
		c.api.LogWarn("Failed to load saved URL cache, starting empty", "error", err.Error())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, u := range urls {
		key := normalizeURL(u)
		if _, ok := c.index[key]; ok {
			continue
		}
		c.urls = append(c.urls, u)
		c.index[key] = struct{}{}
	}
	c.evictLocked()

	c.api.LogInfo("Loaded saved URL cache", "count", len(c.urls))
}

// Contains reports whether the URL (after normalization) is already saved.
func (c *SavedURLCache) Contains(rawURL string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.index[normalizeURL(rawURL)]
	return ok
}

// Add inserts the URL if absent, evicting the oldest entry when the cache
// would exceed its maximum size, and marks the cache dirty for the next Flush.
func (c *SavedURLCache) Add(rawURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := normalizeURL(rawURL)
	if _, ok := c.index[key]; ok {
		return
	}

	c.urls = append(c.urls, rawURL)
	c.index[key] = struct{}{}
	c.evictLocked()
	c.dirty = true
}

// SetMaxSize adjusts the bound, evicting oldest entries if the cache already
// exceeds it.
func (c *SavedURLCache) SetMaxSize(maxSize int) {
	if maxSize < 1 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxSize = maxSize
	if len(c.urls) > c.maxSize {
		c.evictLocked()
		c.dirty = true
	}
}

// Len returns the number of cached URLs.
func (c *SavedURLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.urls)
}

// Flush persists the cache if it changed since the last write. A write
// failure is logged and the in-memory state kept; the next Flush tries again.
func (c *SavedURLCache) Flush() {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return
	}
	snapshot := make([]string, len(c.urls))
	copy(snapshot, c.urls)
	c.dirty = false
	c.mu.Unlock()

	if err := c.kvstore.SaveSavedURLs(snapshot); err != nil {
		c.api.LogError("Failed to persist saved URL cache", "error", err.Error())
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
	}
}

// evictLocked drops the oldest entries until the cache fits its bound.
// Callers must hold mu.
func (c *SavedURLCache) evictLocked() {
	for len(c.urls) > c.maxSize {
		oldest := c.urls[0]
		c.urls = c.urls[1:]
		delete(c.index, normalizeURL(oldest))
	}
}

// normalizeURL derives the deduplication key for a URL: scheme and host are
// lowercased, the fragment is dropped and a single trailing slash on the path
// is trimmed. The query string is preserved as-is, since reordering
// parameters can change what the server returns.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if strings.HasSuffix(u.Path, "/") && u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}
