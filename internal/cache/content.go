package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Content is one cached binary payload together with the response metadata
// needed for conditional serving.
type Content struct {
	Data      []byte
	MediaType string
	ETag      string
}

type contentEntry struct {
	key     string
	content Content
	expires time.Time
}

// ContentCache is the bounded, access-ordered region for binary payloads,
// keyed by full remote path. Both Get and Set move the key to the
// most-recently-used position; inserting past the bound evicts the
// least-recently-used entry first.
type ContentCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	cap   int
	order *list.List // front = most recently used
	items map[string]*list.Element
	now   func() time.Time
}

// NewContentCache creates an empty cache bounded to capacity entries.
func NewContentCache(ttl time.Duration, capacity int) *ContentCache {
	return &ContentCache{
		ttl:   ttl,
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element),
		now:   time.Now,
	}
}

// Get returns the content cached under path while it is fresh.
func (c *ContentCache) Get(path string) (Content, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[path]
	if !ok {
		return Content{}, false
	}
	entry := elem.Value.(*contentEntry)
	if !c.now().Before(entry.expires) {
		c.remove(elem)
		return Content{}, false
	}
	c.order.MoveToFront(elem)
	return entry.content, true
}

// Set stores content under path, restarting its TTL and evicting the
// least-recently-used entry if the bound would be exceeded.
func (c *ContentCache) Set(path string, content Content) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[path]; ok {
		entry := elem.Value.(*contentEntry)
		entry.content = content
		entry.expires = c.now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return
	}
	entry := &contentEntry{key: path, content: content, expires: c.now().Add(c.ttl)}
	c.items[path] = c.order.PushFront(entry)
	for c.order.Len() > c.cap {
		c.remove(c.order.Back())
	}
}

// Delete removes one path.
func (c *ContentCache) Delete(path string) {
	c.mu.Lock()
	if elem, ok := c.items[path]; ok {
		c.remove(elem)
	}
	c.mu.Unlock()
}

// DeletePrefix removes every path starting with prefix. Used to drop all
// cached photos under one recipe's folder.
func (c *ContentCache) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var next *list.Element
	for elem := c.order.Front(); elem != nil; elem = next {
		next = elem.Next()
		if strings.HasPrefix(elem.Value.(*contentEntry).key, prefix) {
			c.remove(elem)
		}
	}
}

// Clear removes every entry.
func (c *ContentCache) Clear() {
	c.mu.Lock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.mu.Unlock()
}

// Len returns the number of resident entries, fresh or not.
func (c *ContentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// remove must be called with the lock held.
func (c *ContentCache) remove(elem *list.Element) {
	delete(c.items, elem.Value.(*contentEntry).key)
	c.order.Remove(elem)
}
