// Package agent turns solver output into per-frame steering for moving
// entities: it converts between world and grid space, keeps the goal cell
// stable while a target jitters around it, and only re-queries the solver
// when the path is stale.
package agent

import (
	"math"

	"github.com/Murgwell/Capstone-sub000/common"
	"github.com/Murgwell/Capstone-sub000/navmesh"
	"github.com/Murgwell/Capstone-sub000/pathcache"
	"github.com/Murgwell/Capstone-sub000/pathfind"
)

const (
	DefaultRepathFrames  = 12
	DefaultWaypointReach = 8.0

	// goalHysteresis is measured in cells from the last goal cell's center.
	goalHysteresis = 0.6
)

// Navigator answers path queries for any number of agents that share a mesh.
// Each agent keeps its own State.
type Navigator struct {
	mesh         *navmesh.Mesh
	solver       pathfind.Solver
	repathFrames int
	reach        float64
}

type Option func(*Navigator)

func WithRepathFrames(n int) Option {
	return func(nav *Navigator) {
		if n > 0 {
			nav.repathFrames = n
		}
	}
}

// WithWaypointReach sets the world distance at which a waypoint counts as
// reached.
func WithWaypointReach(d float64) Option {
	return func(nav *Navigator) {
		if d > 0 && common.Finite(d) {
			nav.reach = d
		}
	}
}

// NewNavigator binds a solver to a mesh. A nil solver gets a cached A*.
func NewNavigator(mesh *navmesh.Mesh, solver pathfind.Solver, opts ...Option) *Navigator {
	if solver == nil {
		solver = pathcache.New(pathfind.NewAStar())
	}
	nav := &Navigator{
		mesh:         mesh,
		solver:       solver,
		repathFrames: DefaultRepathFrames,
		reach:        DefaultWaypointReach,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(nav)
		}
	}
	return nav
}

func (n *Navigator) Mesh() *navmesh.Mesh {
	if n == nil {
		return nil
	}
	return n.mesh
}

func (n *Navigator) Solver() pathfind.Solver {
	if n == nil {
		return nil
	}
	return n.solver
}

func (n *Navigator) RepathFrames() int { return n.repathFrames }

func (n *Navigator) WaypointReach() float64 { return n.reach }

// SetMesh swaps in a rebuilt mesh. Cached paths reference the old nodes, so a
// solver that can be cleared is cleared.
func (n *Navigator) SetMesh(m *navmesh.Mesh) {
	if n == nil {
		return
	}
	n.mesh = m
	if c, ok := n.solver.(interface{ Clear() }); ok {
		c.Clear()
	}
}

// State is the per-agent path following state.
type State struct {
	Path  []common.Vec2
	Index int

	// Repaths counts solver queries issued for this agent.
	Repaths int

	startX, startY int
	goalX, goalY   int
	timer          int
}

func NewState() *State {
	st := &State{}
	st.Reset()
	return st
}

// Reset forgets the current path so the next Update queries again.
func (s *State) Reset() {
	s.Path = s.Path[:0]
	s.Index = 0
	s.startX, s.startY = -1, -1
	s.goalX, s.goalY = -1, -1
	s.timer = 0
}

// Done reports whether there is no waypoint left to follow.
func (s *State) Done() bool {
	return s == nil || s.Index < 0 || s.Index >= len(s.Path)
}

// Goal returns the grid cell the current path was planned toward.
func (s *State) Goal() (int, int) {
	return s.goalX, s.goalY
}

// Update refreshes st for an agent at pos chasing target, both in world
// units. It reports whether the solver was queried. A non-finite target
// clears the path so the agent holds position.
func (n *Navigator) Update(st *State, pos, target common.Vec2) bool {
	if n == nil || st == nil || n.mesh == nil {
		return false
	}
	cell := n.mesh.CellSize()
	if cell <= 0 || !common.Finite(pos.X) || !common.Finite(pos.Y) {
		return false
	}
	if !common.Finite(target.X) || !common.Finite(target.Y) {
		st.Path = st.Path[:0]
		st.Index = 0
		return false
	}

	startX := int(math.Floor(pos.X / cell))
	startY := int(math.Floor(pos.Y / cell))
	goalX := n.stableGoalIndex(target.X, st.goalX, n.mesh.Width())
	goalY := n.stableGoalIndex(target.Y, st.goalY, n.mesh.Height())

	if st.timer > 0 {
		st.timer--
	}

	startChanged := startX != st.startX || startY != st.startY
	goalChanged := goalX != st.goalX || goalY != st.goalY
	if st.timer > 0 && !startChanged && !goalChanged && !st.Done() {
		return false
	}

	st.Path = st.Path[:0]
	st.Index = 0
	st.startX, st.startY = startX, startY
	st.goalX, st.goalY = goalX, goalY
	st.timer = n.repathFrames
	st.Repaths++

	start := n.mesh.NearestWalkableNode(pos.X, pos.Y)
	goal := n.mesh.NearestWalkableNode((float64(goalX)+0.5)*cell, (float64(goalY)+0.5)*cell)
	if start == nil || goal == nil {
		return true
	}

	path := n.solver.FindPath(n.mesh, start, goal)
	for _, node := range path {
		st.Path = append(st.Path, n.mesh.CellCenter(node))
	}
	if len(path) > 1 && path[0].X == startX && path[0].Y == startY {
		st.Index = 1
	}
	return true
}

func (n *Navigator) stableGoalIndex(pos float64, last int, limit int) int {
	if limit <= 0 {
		return 0
	}
	cell := n.mesh.CellSize()
	if last >= 0 && last < limit {
		center := (float64(last) + 0.5) * cell
		if math.Abs(pos-center) < cell*goalHysteresis {
			return last
		}
	}
	return int(common.Clamp(math.Floor(pos/cell), 0, float64(limit-1)))
}

// Steer returns the waypoint an agent at pos should head for, advancing past
// waypoints within reach. False means hold position.
func (n *Navigator) Steer(st *State, pos common.Vec2) (common.Vec2, bool) {
	if n == nil || st.Done() {
		return common.Vec2{}, false
	}
	wp := st.Path[st.Index]
	if wp.Dist(pos) <= n.reach {
		st.Index++
		if st.Done() {
			return common.Vec2{}, false
		}
		wp = st.Path[st.Index]
	}
	return wp, true
}

// Heading returns the unit vector from pos toward the next waypoint scaled by
// speed, or zero when there is nothing to follow.
func (n *Navigator) Heading(st *State, pos common.Vec2, speed float64) common.Vec2 {
	wp, ok := n.Steer(st, pos)
	if !ok {
		return common.Vec2{}
	}
	d := wp.Sub(pos)
	l := d.Len()
	if l == 0 {
		return common.Vec2{}
	}
	return common.Vec2{X: d.X / l * speed, Y: d.Y / l * speed}
}
