package navmesh

import "strconv"

// MaxNeighbors is the size of the 8-way neighborhood.
const MaxNeighbors = 8

// GridNode is one cell of the navigation mesh. Nodes are created by the mesh
// and never change afterwards.
type GridNode struct {
	X, Y     int
	Walkable bool

	index     int
	neighbors [MaxNeighbors]*GridNode
	count     int
}

// Neighbors returns the walkable cells adjacent to n. The slice aliases the
// node's storage and must not be modified.
func (n *GridNode) Neighbors() []*GridNode {
	if n == nil {
		return nil
	}
	return n.neighbors[:n.count]
}

// Index is the dense position of the node inside its mesh (y*width + x).
func (n *GridNode) Index() int {
	if n == nil {
		return -1
	}
	return n.index
}

// Diagonal reports whether other is a diagonal neighbor of n.
func (n *GridNode) Diagonal(other *GridNode) bool {
	if n == nil || other == nil {
		return false
	}
	return n.X != other.X && n.Y != other.Y
}

func (n *GridNode) String() string {
	if n == nil {
		return "<nil>"
	}
	return "(" + strconv.Itoa(n.X) + "," + strconv.Itoa(n.Y) + ")"
}
