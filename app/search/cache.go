package search

import (
	"fmt"
	"strings"
)

// Bound says how a cached score relates to the true value of the node.
// Alpha-beta only proves a bound when a search fails low or high.
type Bound int8

const (
	Exact Bound = iota
	Lower       // true value >= score
	Upper       // true value <= score
)

func (b Bound) String() string {
	switch b {
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	}
	return "exact"
}

type Entry struct {
	Depth int
	Score float64
	Bound Bound
}

// usable reports whether the entry answers a query in the (alpha, beta) window.
func (e Entry) usable(alpha, beta float64) bool {
	switch e.Bound {
	case Lower:
		return e.Score >= beta
	case Upper:
		return e.Score <= alpha
	}
	return true
}

// ReplacePolicy decides what Store does when the key is already cached.
type ReplacePolicy int8

const (
	// ReplaceAlways overwrites on every store regardless of depth.
	ReplaceAlways ReplacePolicy = iota
	// ReplaceDeeper keeps an existing entry that was searched deeper.
	ReplaceDeeper
)

func (p ReplacePolicy) String() string {
	if p == ReplaceDeeper {
		return "deeper"
	}
	return "always"
}

func ParseReplacePolicy(s string) (ReplacePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return ReplaceAlways, nil
	case "deeper", "depth":
		return ReplaceDeeper, nil
	}
	return ReplaceAlways, fmt.Errorf("unknown cache policy %q", s)
}

// Cache maps a position's FEN to the score found for it. It is not safe for
// concurrent use.
type Cache struct {
	policy  ReplacePolicy
	entries map[string]Entry
}

func NewCache(policy ReplacePolicy) *Cache {
	return &Cache{policy: policy, entries: make(map[string]Entry)}
}

func (c *Cache) Policy() ReplacePolicy { return c.policy }

// Lookup returns a cached score for a node searched to at least depth whose
// bound settles the (alpha, beta) window.
func (c *Cache) Lookup(key string, depth int, alpha, beta float64) (float64, bool) {
	e, ok := c.entries[key]
	if !ok || e.Depth < depth || !e.usable(alpha, beta) {
		return 0, false
	}
	return e.Score, true
}

func (c *Cache) Store(key string, e Entry) {
	if old, ok := c.entries[key]; ok && c.policy == ReplaceDeeper && old.Depth > e.Depth {
		return
	}
	c.entries[key] = e
}

func (c *Cache) Get(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) Len() int { return len(c.entries) }

func (c *Cache) Clear() {
	c.entries = make(map[string]Entry)
}
