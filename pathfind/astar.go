package pathfind

import (
	"math"

	"github.com/Murgwell/Capstone-sub000/common"
	"github.com/Murgwell/Capstone-sub000/navmesh"
)

// AStar is the per-frame solver. All working state lives in its SearchArena,
// so steady-state queries only allocate the returned path.
type AStar struct {
	arena         *SearchArena
	maxExpansions int
	aborted       bool
}

func NewAStar(opts ...Option) *AStar {
	o := collect(opts)
	arena := o.arena
	if arena == nil {
		arena = NewSearchArena(o.capacity)
	}
	return &AStar{arena: arena, maxExpansions: o.maxExpansions}
}

// Arena exposes the solver's working set, mainly for stats.
func (s *AStar) Arena() *SearchArena {
	if s == nil {
		return nil
	}
	return s.arena
}

func (s *AStar) String() string { return "astar" }

func heuristic(n, goal *navmesh.GridNode) float64 {
	return common.Octile(n.X, n.Y, goal.X, goal.Y)
}

// Aborted reports whether the last FindPath gave up without proving that no
// route exists, because the arena was busy or the expansion cap was hit.
func (s *AStar) Aborted() bool {
	return s != nil && s.aborted
}

// FindPath runs A* with Euclidean step costs and the octile heuristic.
func (s *AStar) FindPath(m *navmesh.Mesh, start, goal *navmesh.GridNode) []*navmesh.GridNode {
	if s == nil {
		return nil
	}
	path, aborted := s.search(m, start, goal)
	s.aborted = aborted
	return path
}

func (s *AStar) search(m *navmesh.Mesh, start, goal *navmesh.GridNode) ([]*navmesh.GridNode, bool) {
	if !validEndpoints(m, start, goal) {
		return nil, false
	}
	if start == goal {
		return []*navmesh.GridNode{start}, false
	}

	a := s.arena
	if !a.begin(m) {
		return nil, true
	}
	defer a.end()

	sh := a.acquire(start)
	a.nodes[sh].g = 0
	a.nodes[sh].h = heuristic(start, goal)
	a.nodes[sh].f = a.nodes[sh].h
	a.push(sh)

	for len(a.open) > 0 {
		cur := a.pop()
		node := a.nodes[cur].node
		if node == goal {
			return a.path(cur), false
		}
		a.nodes[cur].closed = true
		a.stats.Expansions++
		if s.maxExpansions > 0 && a.stats.Expansions > s.maxExpansions {
			return nil, true
		}

		curG := a.nodes[cur].g
		for _, nb := range node.Neighbors() {
			h := a.acquire(nb)
			sn := &a.nodes[h]
			if sn.closed {
				continue
			}
			step := 1.0
			if node.Diagonal(nb) {
				step = math.Sqrt2
			}
			g := curG + step
			if g >= sn.g {
				continue
			}
			sn.g = g
			sn.h = heuristic(nb, goal)
			sn.f = g + sn.h
			sn.parent = cur
			if sn.heapPos < 0 {
				a.push(h)
			} else {
				a.decreased(h)
			}
		}
	}
	return nil, false
}
