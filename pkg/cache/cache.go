// Package cache keeps the last published arguments per tag so subscribers
// registered after a publish can be caught up.
package cache

import (
	"slices"
	"sort"
	"sync"
)

// Cache maps tags to their last cached argument lists. Stored and returned
// slices are copies, so callers may reuse their argument slices.
type Cache struct {
	entries sync.Map // string -> []any
}

// New creates an empty cache
func New() *Cache {
	return &Cache{}
}

// Store records args as the cached value for tag, replacing any prior entry.
func (c *Cache) Store(tag string, args []any) {
	c.entries.Store(tag, slices.Clone(args))
}

// Load returns the cached arguments for tag.
func (c *Cache) Load(tag string) ([]any, bool) {
	v, ok := c.entries.Load(tag)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.([]any)), true
}

// Remove drops the entry for tag.
func (c *Cache) Remove(tag string) bool {
	_, loaded := c.entries.LoadAndDelete(tag)
	return loaded
}

// RemoveAll drops every entry and returns how many were removed.
func (c *Cache) RemoveAll() int {
	n := 0
	c.entries.Range(func(k, _ any) bool {
		if _, loaded := c.entries.LoadAndDelete(k); loaded {
			n++
		}
		return true
	})
	return n
}

// Len returns the number of cached tags.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Tags returns the sorted cached tags.
func (c *Cache) Tags() []string {
	var tags []string
	c.entries.Range(func(k, _ any) bool {
		tags = append(tags, k.(string))
		return true
	})
	sort.Strings(tags)
	return tags
}
