package expr

import (
	"sync"
)

// Cache memoizes parsed expressions by source text. ASTs are never mutated
// after parsing, so a cached Node may be shared between callers and
// goroutines.
type Cache struct {
	mu    sync.Mutex
	nodes map[string]Node
	hits  int
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{nodes: make(map[string]Node)}
}

// Parse returns the cached AST for source, parsing it on first use. Parse
// errors are not cached.
func (c *Cache) Parse(source string) (Node, error) {
	c.mu.Lock()
	if n, ok := c.nodes[source]; ok {
		c.hits++
		c.mu.Unlock()
		return n, nil
	}
	c.mu.Unlock()

	n, err := Parse(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.nodes[source]; ok {
		return existing, nil
	}
	c.nodes[source] = n
	return n, nil
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes)
}

// Hits returns how many Parse calls were served from the cache.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}
