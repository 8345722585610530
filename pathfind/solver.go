// Package pathfind holds the shortest-path solvers that run over a navmesh.
//
// Both solvers treat a nil, non-walkable or foreign endpoint as "no path" and
// return nil. Callers hold position for the frame and retry later; nothing in
// here returns an error or panics.
package pathfind

import (
	"math"

	"github.com/Murgwell/Capstone-sub000/navmesh"
)

// Solver finds an ordered route from start to goal, both inclusive. A nil
// result means no route exists or the endpoints were unusable.
type Solver interface {
	FindPath(m *navmesh.Mesh, start, goal *navmesh.GridNode) []*navmesh.GridNode
}

// EdgeCost prices a single step between adjacent cells.
type EdgeCost func(from, to *navmesh.GridNode) float64

// UniformCost charges 1 per step regardless of direction.
func UniformCost(from, to *navmesh.GridNode) float64 {
	return 1
}

// EuclideanCost charges 1 for orthogonal and sqrt(2) for diagonal steps.
func EuclideanCost(from, to *navmesh.GridNode) float64 {
	if from.Diagonal(to) {
		return math.Sqrt2
	}
	return 1
}

type options struct {
	arena         *SearchArena
	capacity      int
	maxExpansions int
	edgeCost      EdgeCost
}

type Option func(*options)

// WithArena makes a solver share an existing arena. The arena must still only
// serve one query at a time.
func WithArena(a *SearchArena) Option {
	return func(o *options) { o.arena = a }
}

// WithArenaCapacity sets how many search nodes the solver's own arena retains
// between queries.
func WithArenaCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithMaxExpansions stops a search after n node expansions; 0 disables the cap.
func WithMaxExpansions(n int) Option {
	return func(o *options) { o.maxExpansions = n }
}

// WithEdgeCost overrides the step cost used by Dijkstra.
func WithEdgeCost(c EdgeCost) Option {
	return func(o *options) { o.edgeCost = c }
}

func collect(opts []Option) options {
	o := options{capacity: DefaultArenaCapacity}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.maxExpansions < 0 {
		o.maxExpansions = 0
	}
	return o
}

func validEndpoints(m *navmesh.Mesh, start, goal *navmesh.GridNode) bool {
	if m == nil || start == nil || goal == nil {
		return false
	}
	if !start.Walkable || !goal.Walkable {
		return false
	}
	return m.Contains(start) && m.Contains(goal)
}

// PathCost sums the Euclidean step costs along path.
func PathCost(path []*navmesh.GridNode) float64 {
	cost := 0.0
	for i := 1; i < len(path); i++ {
		cost += EuclideanCost(path[i-1], path[i])
	}
	return cost
}
