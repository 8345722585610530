package pathfind

import (
	"log"
	"math"

	"github.com/Murgwell/Capstone-sub000/navmesh"
)

// DefaultArenaCapacity is how many search nodes an arena keeps between
// queries. Larger searches still succeed; the extra storage is dropped once
// the query completes.
const DefaultArenaCapacity = 1024

const noHandle int32 = -1

// searchNode is the per-query bookkeeping for one mesh cell.
type searchNode struct {
	node    *navmesh.GridNode
	g, h, f float64
	parent  int32
	heapPos int32
	seq     uint32
	closed  bool
}

// ArenaStats describes the most recent query served by an arena. Peak is the
// largest Touched seen over the arena's lifetime.
type ArenaStats struct {
	Expansions int
	Touched    int
	Peak       int
}

// SearchArena owns the reusable working set of a search: node storage
// addressed by int32 handles, the cell->handle table and the open heap.
// It is not safe for concurrent use and a query must finish before the next
// one starts on the same arena.
type SearchArena struct {
	capacity int
	nodes    []searchNode
	handles  []int32 // mesh index -> handle+1, 0 when untouched
	touched  []int32
	open     []int32
	seq      uint32
	busy     bool
	stats    ArenaStats
}

func NewSearchArena(capacity int) *SearchArena {
	if capacity <= 0 {
		capacity = DefaultArenaCapacity
	}
	return &SearchArena{
		capacity: capacity,
		nodes:    make([]searchNode, 0, capacity),
		touched:  make([]int32, 0, capacity),
		open:     make([]int32, 0, capacity),
	}
}

// Capacity reports how many search nodes are retained between queries.
func (a *SearchArena) Capacity() int {
	if a == nil {
		return 0
	}
	return a.capacity
}

// Stats returns counters of the last completed query.
func (a *SearchArena) Stats() ArenaStats {
	if a == nil {
		return ArenaStats{}
	}
	return a.stats
}

func (a *SearchArena) begin(m *navmesh.Mesh) bool {
	if a.busy {
		log.Printf("pathfind: arena %p already serving a query; nested search skipped", a)
		return false
	}
	a.busy = true
	if n := m.Len(); n > len(a.handles) {
		a.handles = make([]int32, n)
	}
	a.seq = 0
	a.stats = ArenaStats{Peak: a.stats.Peak}
	return true
}

func (a *SearchArena) end() {
	a.stats.Touched = len(a.nodes)
	if len(a.nodes) > a.stats.Peak {
		a.stats.Peak = len(a.nodes)
	}
	for _, idx := range a.touched {
		a.handles[idx] = 0
	}
	a.touched = a.touched[:0]
	a.nodes = a.nodes[:0]
	a.open = a.open[:0]

	if cap(a.nodes) > a.capacity {
		a.nodes = make([]searchNode, 0, a.capacity)
		a.touched = make([]int32, 0, a.capacity)
	}
	if cap(a.open) > a.capacity {
		a.open = make([]int32, 0, a.capacity)
	}
	a.busy = false
}

// acquire returns the handle for n, creating fresh bookkeeping on first use.
// It may grow a.nodes, so pointers into it must be re-taken afterwards.
func (a *SearchArena) acquire(n *navmesh.GridNode) int32 {
	idx := n.Index()
	if h := a.handles[idx]; h != 0 {
		return h - 1
	}
	a.nodes = append(a.nodes, searchNode{
		node:    n,
		g:       math.Inf(1),
		parent:  noHandle,
		heapPos: -1,
	})
	h := int32(len(a.nodes) - 1)
	a.handles[idx] = h + 1
	a.touched = append(a.touched, int32(idx))
	return h
}

// path walks parent links from h back to the start and returns the cells in
// start..goal order.
func (a *SearchArena) path(h int32) []*navmesh.GridNode {
	n := 0
	for cur := h; cur != noHandle; cur = a.nodes[cur].parent {
		n++
	}
	out := make([]*navmesh.GridNode, n)
	for cur := h; cur != noHandle; cur = a.nodes[cur].parent {
		n--
		out[n] = a.nodes[cur].node
	}
	return out
}

// less orders the open heap by f, then h, then insertion order.
func (a *SearchArena) less(x, y int32) bool {
	nx, ny := &a.nodes[x], &a.nodes[y]
	if nx.f != ny.f {
		return nx.f < ny.f
	}
	if nx.h != ny.h {
		return nx.h < ny.h
	}
	return nx.seq < ny.seq
}

func (a *SearchArena) swap(i, j int) {
	a.open[i], a.open[j] = a.open[j], a.open[i]
	a.nodes[a.open[i]].heapPos = int32(i)
	a.nodes[a.open[j]].heapPos = int32(j)
}

func (a *SearchArena) push(h int32) {
	a.seq++
	a.nodes[h].seq = a.seq
	a.open = append(a.open, h)
	i := len(a.open) - 1
	a.nodes[h].heapPos = int32(i)
	a.up(i)
}

func (a *SearchArena) pop() int32 {
	last := len(a.open) - 1
	a.swap(0, last)
	h := a.open[last]
	a.open = a.open[:last]
	a.nodes[h].heapPos = -1
	a.down(0)
	return h
}

// decreased restores heap order after h's key got smaller.
func (a *SearchArena) decreased(h int32) {
	a.up(int(a.nodes[h].heapPos))
}

func (a *SearchArena) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !a.less(a.open[i], a.open[parent]) {
			break
		}
		a.swap(i, parent)
		i = parent
	}
}

func (a *SearchArena) down(i int) {
	n := len(a.open)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		smallest := left
		if right := left + 1; right < n && a.less(a.open[right], a.open[left]) {
			smallest = right
		}
		if !a.less(a.open[smallest], a.open[i]) {
			return
		}
		a.swap(i, smallest)
		i = smallest
	}
}
