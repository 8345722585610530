// Package pathcache memoizes solver results for a short wall-clock window so
// agents re-querying toward a slowly moving target every frame do not pay for
// a full search each time.
package pathcache

import (
	"time"

	"github.com/Murgwell/Capstone-sub000/navmesh"
	"github.com/Murgwell/Capstone-sub000/pathfind"
)

const (
	DefaultTTL      = 2 * time.Second
	DefaultCapacity = 256
)

// key is direction sensitive: a->b and b->a are separate entries.
type key struct {
	startX, startY int
	goalX, goalY   int
}

type entry struct {
	path    []*navmesh.GridNode
	created time.Time
}

// Stats counts lookups since the cache was created or last cleared.
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
	// Aborted counts misses whose solver gave up early; those are not stored.
	Aborted int
}

// aborter is implemented by solvers that can give up without proving a query
// has no route, like pathfind.AStar.
type aborter interface {
	Aborted() bool
}

// Cache sits in front of a solver. It is bound to one mesh at a time by
// convention: after rebuilding the mesh, call Clear. Like the solvers it wraps,
// a Cache serves one caller at a time.
type Cache struct {
	solver   pathfind.Solver
	ttl      time.Duration
	capacity int
	now      func() time.Time

	entries map[key]entry
	stats   Stats
}

type Option func(*Cache)

func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithClock replaces time.Now, which is mostly useful in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New wraps solver; a nil solver falls back to a fresh A*.
func New(solver pathfind.Solver, opts ...Option) *Cache {
	if solver == nil {
		solver = pathfind.NewAStar()
	}
	c := &Cache{
		solver:   solver,
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.entries = make(map[key]entry, c.capacity)
	return c
}

func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) Capacity() int { return c.capacity }

// Solver returns the wrapped solver.
func (c *Cache) Solver() pathfind.Solver { return c.solver }

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return c.stats
}

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	clear(c.entries)
	c.stats = Stats{}
}

// FindPath returns a copy of the cached route for (start, goal) while it is
// younger than the TTL and otherwise asks the solver. Empty results are cached
// as well. A stale entry keeps being served until it expires even if the mesh
// changed underneath it.
func (c *Cache) FindPath(m *navmesh.Mesh, start, goal *navmesh.GridNode) []*navmesh.GridNode {
	if c == nil || start == nil || goal == nil {
		return nil
	}
	k := key{startX: start.X, startY: start.Y, goalX: goal.X, goalY: goal.Y}
	now := c.now()

	if e, ok := c.entries[k]; ok && now.Sub(e.created) < c.ttl {
		c.stats.Hits++
		return clonePath(e.path)
	}
	c.stats.Misses++

	path := c.solver.FindPath(m, start, goal)
	if a, ok := c.solver.(aborter); ok && a.Aborted() {
		c.stats.Aborted++
		return clonePath(path)
	}

	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.capacity {
		c.evictExpired(now)
	}
	c.entries[k] = entry{path: clonePath(path), created: now}
	return clonePath(path)
}

// evictExpired removes all entries past their TTL. When nothing has expired the
// cache is allowed to grow past capacity.
func (c *Cache) evictExpired(now time.Time) {
	for k, e := range c.entries {
		if now.Sub(e.created) >= c.ttl {
			delete(c.entries, k)
			c.stats.Evictions++
		}
	}
}

func clonePath(path []*navmesh.GridNode) []*navmesh.GridNode {
	if len(path) == 0 {
		return nil
	}
	out := make([]*navmesh.GridNode, len(path))
	copy(out, path)
	return out
}
