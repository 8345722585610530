package pathfind

import (
	"math"

	"github.com/Murgwell/Capstone-sub000/navmesh"
)

// Dijkstra is the heuristic-free reference solver. It allocates its working
// set per query and explores every cell closer than the goal.
type Dijkstra struct {
	cost EdgeCost
}

// NewDijkstra returns a solver that charges 1 per step unless WithEdgeCost
// says otherwise.
func NewDijkstra(opts ...Option) *Dijkstra {
	o := collect(opts)
	cost := o.edgeCost
	if cost == nil {
		cost = UniformCost
	}
	return &Dijkstra{cost: cost}
}

func (d *Dijkstra) String() string { return "dijkstra" }

type distEntry struct {
	idx  int32
	dist float64
	seq  uint32
}

type distHeap []distEntry

func (h distHeap) less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].seq < h[j].seq
}

func (h *distHeap) push(e distEntry) {
	*h = append(*h, e)
	i := len(*h) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		(*h)[parent], (*h)[i] = (*h)[i], (*h)[parent]
		i = parent
	}
}

func (h *distHeap) pop() distEntry {
	old := *h
	n := len(old)
	e := old[0]
	old[0] = old[n-1]
	*h = old[:n-1]

	i := 0
	for {
		left := 2*i + 1
		if left >= len(*h) {
			break
		}
		smallest := left
		if right := left + 1; right < len(*h) && h.less(right, left) {
			smallest = right
		}
		if !h.less(smallest, i) {
			break
		}
		(*h)[i], (*h)[smallest] = (*h)[smallest], (*h)[i]
		i = smallest
	}
	return e
}

// FindPath runs uniform-cost search from start until goal is settled.
func (d *Dijkstra) FindPath(m *navmesh.Mesh, start, goal *navmesh.GridNode) []*navmesh.GridNode {
	if d == nil || !validEndpoints(m, start, goal) {
		return nil
	}
	if start == goal {
		return []*navmesh.GridNode{start}
	}

	size := m.Len()
	dist := make([]float64, size)
	prev := make([]int32, size)
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}

	startIdx := start.Index()
	goalIdx := goal.Index()
	dist[startIdx] = 0

	var seq uint32
	h := make(distHeap, 0, 64)
	h.push(distEntry{idx: int32(startIdx), dist: 0})

	for len(h) > 0 {
		e := h.pop()
		if e.dist > dist[e.idx] {
			continue
		}
		if int(e.idx) == goalIdx {
			return d.path(m, prev, goalIdx)
		}
		node := m.NodeAt(int(e.idx))
		for _, nb := range node.Neighbors() {
			nd := e.dist + d.cost(node, nb)
			ni := nb.Index()
			if nd >= dist[ni] {
				continue
			}
			dist[ni] = nd
			prev[ni] = e.idx
			seq++
			h.push(distEntry{idx: int32(ni), dist: nd, seq: seq})
		}
	}
	return nil
}

func (d *Dijkstra) path(m *navmesh.Mesh, prev []int32, goalIdx int) []*navmesh.GridNode {
	n := 0
	for cur := int32(goalIdx); cur != -1; cur = prev[cur] {
		n++
	}
	out := make([]*navmesh.GridNode, n)
	for cur := int32(goalIdx); cur != -1; cur = prev[cur] {
		n--
		out[n] = m.NodeAt(int(cur))
	}
	return out
}
