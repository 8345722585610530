package navmesh

import (
	"math"

	"github.com/Murgwell/Capstone-sub000/common"
)

// NearestSearchRadius bounds the ring search of NearestWalkableNode, in cells.
const NearestSearchRadius = 3

// MaxCells caps width*height. Larger grids build as an empty mesh.
const MaxCells = 1 << 24

type offset struct {
	dx, dy int
}

var neighborOffsets = [MaxNeighbors]offset{
	{dx: 0, dy: -1},
	{dx: 1, dy: 0},
	{dx: 0, dy: 1},
	{dx: -1, dy: 0},
	{dx: 1, dy: -1},
	{dx: 1, dy: 1},
	{dx: -1, dy: 1},
	{dx: -1, dy: -1},
}

// Mesh is a walkability grid with precomputed 8-way adjacency. It is built once
// per map load; changing the obstacle layout means building a new Mesh.
type Mesh struct {
	width, height int
	cellSize      float64
	nodes         []GridNode
	walkable      int
}

// New classifies every cell of a width x height grid against the obstacle
// rectangles (given in world units) and wires up neighbor lists. Grids over
// MaxCells cells come back empty.
func New(width, height int, cellSize float64, obstacles []common.Rect) *Mesh {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if height > 0 && width > MaxCells/height {
		width, height = 0, 0
	}
	if cellSize <= 0 || !common.Finite(cellSize) {
		cellSize = 1
	}

	m := &Mesh{
		width:    width,
		height:   height,
		cellSize: cellSize,
		nodes:    make([]GridNode, width*height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cx := (float64(x) + 0.5) * cellSize
			cy := (float64(y) + 0.5) * cellSize
			blocked := false
			for _, obs := range obstacles {
				if obs.Normalized().Contains(cx, cy) {
					blocked = true
					break
				}
			}
			idx := y*width + x
			m.nodes[idx] = GridNode{X: x, Y: y, Walkable: !blocked, index: idx}
			if !blocked {
				m.walkable++
			}
		}
	}

	for i := range m.nodes {
		n := &m.nodes[i]
		if !n.Walkable {
			continue
		}
		for _, d := range neighborOffsets {
			nb := m.Node(n.X+d.dx, n.Y+d.dy)
			if nb == nil || !nb.Walkable {
				continue
			}
			n.neighbors[n.count] = nb
			n.count++
		}
	}

	return m
}

// NewFromGrid builds a mesh with cell size 1 from rows of characters where
// '#' marks a blocked cell. It is mostly handy in tests and small fixtures.
func NewFromGrid(rows ...string) *Mesh {
	height := len(rows)
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	var obstacles []common.Rect
	for y, r := range rows {
		for x := 0; x < len(r); x++ {
			if r[x] == '#' {
				obstacles = append(obstacles, common.Rect{X: float64(x) + 0.25, Y: float64(y) + 0.25, Width: 0.5, Height: 0.5})
			}
		}
	}
	return New(width, height, 1, obstacles)
}

func (m *Mesh) Width() int {
	if m == nil {
		return 0
	}
	return m.width
}

func (m *Mesh) Height() int {
	if m == nil {
		return 0
	}
	return m.height
}

// CellSize reports the world size of one cell.
func (m *Mesh) CellSize() float64 {
	if m == nil {
		return 0
	}
	return m.cellSize
}

// Len reports the number of cells.
func (m *Mesh) Len() int {
	if m == nil {
		return 0
	}
	return len(m.nodes)
}

// WalkableCount reports how many cells are walkable.
func (m *Mesh) WalkableCount() int {
	if m == nil {
		return 0
	}
	return m.walkable
}

func (m *Mesh) inBounds(x, y int) bool {
	return m != nil && x >= 0 && y >= 0 && x < m.width && y < m.height
}

// Node returns the cell at (x, y), or nil when out of bounds.
func (m *Mesh) Node(x, y int) *GridNode {
	if !m.inBounds(x, y) {
		return nil
	}
	return &m.nodes[y*m.width+x]
}

// NodeAt returns the cell with the given dense index, or nil.
func (m *Mesh) NodeAt(index int) *GridNode {
	if m == nil || index < 0 || index >= len(m.nodes) {
		return nil
	}
	return &m.nodes[index]
}

// Contains reports whether n belongs to this mesh.
func (m *Mesh) Contains(n *GridNode) bool {
	if m == nil || n == nil {
		return false
	}
	return m.NodeAt(n.index) == n
}

// NodeByWorldPosition returns the cell covering the world point, or nil.
func (m *Mesh) NodeByWorldPosition(wx, wy float64) *GridNode {
	x, y, ok := m.cellOf(wx, wy)
	if !ok {
		return nil
	}
	return m.Node(x, y)
}

func (m *Mesh) cellOf(wx, wy float64) (int, int, bool) {
	if m == nil || !common.Finite(wx) || !common.Finite(wy) {
		return 0, 0, false
	}
	fx := math.Floor(wx / m.cellSize)
	fy := math.Floor(wy / m.cellSize)
	// keep the int conversion defined for huge inputs
	limit := float64(math.MaxInt32)
	if math.Abs(fx) > limit || math.Abs(fy) > limit {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// CellCenter returns the world position of the center of n.
func (m *Mesh) CellCenter(n *GridNode) common.Vec2 {
	if m == nil || n == nil {
		return common.Vec2{}
	}
	return common.Vec2{
		X: (float64(n.X) + 0.5) * m.cellSize,
		Y: (float64(n.Y) + 0.5) * m.cellSize,
	}
}

// NearestWalkableNode snaps a world position onto the mesh. The covering cell
// wins if walkable; otherwise rings of radius 1..NearestSearchRadius are
// scanned and the closest walkable cell of the first non-empty ring is
// returned. Nil means nothing walkable is within reach.
func (m *Mesh) NearestWalkableNode(wx, wy float64) *GridNode {
	cx, cy, ok := m.cellOf(wx, wy)
	if !ok {
		return nil
	}
	if n := m.Node(cx, cy); n != nil && n.Walkable {
		return n
	}

	for r := 1; r <= NearestSearchRadius; r++ {
		var best *GridNode
		bestDist := math.MaxInt
		for y := cy - r; y <= cy+r; y++ {
			for x := cx - r; x <= cx+r; x++ {
				if common.AbsInt(x-cx) != r && common.AbsInt(y-cy) != r {
					continue
				}
				n := m.Node(x, y)
				if n == nil || !n.Walkable {
					continue
				}
				dx, dy := x-cx, y-cy
				if d := dx*dx + dy*dy; d < bestDist {
					best = n
					bestDist = d
				}
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}
