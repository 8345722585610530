package agent

import (
	"math"
	"testing"

	"github.com/Murgwell/Capstone-sub000/common"
	"github.com/Murgwell/Capstone-sub000/navmesh"
	"github.com/Murgwell/Capstone-sub000/pathcache"
	"github.com/Murgwell/Capstone-sub000/pathfind"
)

type countingSolver struct {
	inner pathfind.Solver
	calls int
}

func (c *countingSolver) FindPath(m *navmesh.Mesh, start, goal *navmesh.GridNode) []*navmesh.GridNode {
	c.calls++
	return c.inner.FindPath(m, start, goal)
}

func pillarMesh() *navmesh.Mesh {
	return navmesh.NewFromGrid(
		"........",
		"...#....",
		"...#....",
		"...#....",
		"........",
	)
}

func TestUpdatePlansWalkablePath(t *testing.T) {
	m := pillarMesh()
	nav := NewNavigator(m, pathfind.NewAStar(), WithWaypointReach(0.25))
	st := NewState()

	if !nav.Update(st, common.Vec2{X: 0.5, Y: 2.5}, common.Vec2{X: 6.5, Y: 2.5}) {
		t.Fatalf("expected a query on the first update")
	}
	if len(st.Path) == 0 {
		t.Fatalf("expected a path around the pillar")
	}
	if st.Index != 1 {
		t.Fatalf("expected the start cell to be skipped, index=%d", st.Index)
	}
	if last := st.Path[len(st.Path)-1]; last != (common.Vec2{X: 6.5, Y: 2.5}) {
		t.Fatalf("path should end at the goal center, got %+v", last)
	}
	for _, wp := range st.Path {
		n := m.NodeByWorldPosition(wp.X, wp.Y)
		if n == nil || !n.Walkable {
			t.Fatalf("waypoint %+v is not walkable", wp)
		}
	}
}

func TestUpdateThrottlesRepaths(t *testing.T) {
	solver := &countingSolver{inner: pathfind.NewAStar()}
	nav := NewNavigator(pillarMesh(), solver, WithRepathFrames(3))
	st := NewState()
	pos := common.Vec2{X: 0.5, Y: 0.5}
	target := common.Vec2{X: 7.5, Y: 4.5}

	var queried []int
	for frame := 1; frame <= 7; frame++ {
		if nav.Update(st, pos, target) {
			queried = append(queried, frame)
		}
	}
	want := []int{1, 4, 7}
	if len(queried) != len(want) {
		t.Fatalf("expected queries on frames %v, got %v", want, queried)
	}
	for i := range want {
		if queried[i] != want[i] {
			t.Fatalf("expected queries on frames %v, got %v", want, queried)
		}
	}
	if solver.calls != 3 || st.Repaths != 3 {
		t.Fatalf("expected 3 solver calls, got %d (repaths %d)", solver.calls, st.Repaths)
	}

	if !nav.Update(st, common.Vec2{X: 1.5, Y: 0.5}, target) {
		t.Fatalf("moving to a new start cell should force a query")
	}
}

func TestGoalHysteresis(t *testing.T) {
	nav := NewNavigator(pillarMesh(), pathfind.NewAStar(), WithRepathFrames(100))
	st := NewState()
	pos := common.Vec2{X: 0.5, Y: 2.5}

	nav.Update(st, pos, common.Vec2{X: 6.5, Y: 2.5})
	cases := []struct {
		name    string
		target  common.Vec2
		queried bool
		goalX   int
	}{
		{"jitter_inside_band", common.Vec2{X: 7.0, Y: 2.5}, false, 6},
		{"jitter_back", common.Vec2{X: 6.1, Y: 2.9}, false, 6},
		{"leaves_band", common.Vec2{X: 7.2, Y: 2.5}, true, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := nav.Update(st, pos, c.target); got != c.queried {
				t.Fatalf("queried=%v, want %v", got, c.queried)
			}
			if gx, gy := st.Goal(); gx != c.goalX || gy != 2 {
				t.Fatalf("goal cell (%d,%d), want (%d,2)", gx, gy, c.goalX)
			}
		})
	}
}

func TestUpdateSnapsBlockedTarget(t *testing.T) {
	nav := NewNavigator(pillarMesh(), pathfind.NewAStar())
	st := NewState()

	nav.Update(st, common.Vec2{X: 0.5, Y: 2.5}, common.Vec2{X: 3.5, Y: 2.5})
	if len(st.Path) == 0 {
		t.Fatalf("expected a path to the snapped goal")
	}
	if last := st.Path[len(st.Path)-1]; last != (common.Vec2{X: 2.5, Y: 2.5}) {
		t.Fatalf("expected the nearest walkable cell (2,2), got %+v", last)
	}
}

func TestUpdateUnreachableHolds(t *testing.T) {
	m := navmesh.NewFromGrid(
		".....",
		".###.",
		".#.#.",
		".###.",
		".....",
	)
	nav := NewNavigator(m, pathfind.NewAStar())
	st := NewState()

	if !nav.Update(st, common.Vec2{X: 0.5, Y: 0.5}, common.Vec2{X: 2.5, Y: 2.5}) {
		t.Fatalf("expected a query")
	}
	if !st.Done() {
		t.Fatalf("expected no path into the walled cell, got %v", st.Path)
	}
	if _, ok := nav.Steer(st, common.Vec2{X: 0.5, Y: 0.5}); ok {
		t.Fatalf("expected the agent to hold position")
	}
	if h := nav.Heading(st, common.Vec2{X: 0.5, Y: 0.5}, 3); h != (common.Vec2{}) {
		t.Fatalf("expected zero heading, got %+v", h)
	}
}

func TestUpdateRejectsNonFiniteTarget(t *testing.T) {
	solver := &countingSolver{inner: pathfind.NewAStar()}
	nav := NewNavigator(pillarMesh(), solver)
	pos := common.Vec2{X: 6.5, Y: 3.5}

	targets := []common.Vec2{
		{X: math.NaN(), Y: math.NaN()},
		{X: math.Inf(1), Y: 2.5},
		{X: 2.5, Y: math.Inf(-1)},
	}
	for _, target := range targets {
		st := NewState()
		nav.Update(st, pos, common.Vec2{X: 0.5, Y: 0.5})
		if st.Done() {
			t.Fatalf("expected a path before the target goes bad")
		}
		if nav.Update(st, pos, target) {
			t.Fatalf("target %+v should not query the solver", target)
		}
		if !st.Done() || len(st.Path) != 0 {
			t.Fatalf("target %+v should clear the path, got %v", target, st.Path)
		}
		if _, ok := nav.Steer(st, pos); ok {
			t.Fatalf("target %+v should make the agent hold position", target)
		}
	}
	if solver.calls != len(targets) {
		t.Fatalf("only the valid targets should reach the solver, got %d calls", solver.calls)
	}
}

func TestSteerAdvancesWaypoints(t *testing.T) {
	nav := NewNavigator(navmesh.NewFromGrid("......"), pathfind.NewAStar(), WithWaypointReach(0.25))
	st := NewState()
	nav.Update(st, common.Vec2{X: 0.5, Y: 0.5}, common.Vec2{X: 4.5, Y: 0.5})

	if h := nav.Heading(st, common.Vec2{X: 0.5, Y: 0.5}, 2); h != (common.Vec2{X: 2, Y: 0}) {
		t.Fatalf("unexpected heading %+v", h)
	}

	steps := []struct {
		pos  float64
		want float64
		ok   bool
	}{
		{0.5, 1.5, true},
		{1.45, 2.5, true},
		{2.5, 3.5, true},
		{3.5, 4.5, true},
		{4.5, 0, false},
	}
	for _, s := range steps {
		wp, ok := nav.Steer(st, common.Vec2{X: s.pos, Y: 0.5})
		if ok != s.ok || (ok && wp.X != s.want) {
			t.Fatalf("at x=%v: got (%+v, %v), want x=%v ok=%v", s.pos, wp, ok, s.want, s.ok)
		}
	}
}

func TestSetMeshClearsCache(t *testing.T) {
	cache := pathcache.New(pathfind.NewAStar())
	nav := NewNavigator(pillarMesh(), cache)
	st := NewState()
	nav.Update(st, common.Vec2{X: 0.5, Y: 0.5}, common.Vec2{X: 7.5, Y: 4.5})
	if cache.Len() != 1 {
		t.Fatalf("expected one cached path, got %d", cache.Len())
	}

	next := navmesh.NewFromGrid("........", "........")
	nav.SetMesh(next)
	if cache.Len() != 0 || nav.Mesh() != next {
		t.Fatalf("expected the cache to be cleared on mesh swap")
	}
	st.Reset()
	nav.Update(st, common.Vec2{X: 0.5, Y: 0.5}, common.Vec2{X: 7.5, Y: 1.5})
	if len(st.Path) == 0 {
		t.Fatalf("expected a path on the new mesh")
	}
}

func TestNilSafety(t *testing.T) {
	var nav *Navigator
	if nav.Update(NewState(), common.Vec2{}, common.Vec2{}) {
		t.Fatalf("nil navigator should not query")
	}
	if _, ok := nav.Steer(nil, common.Vec2{}); ok {
		t.Fatalf("nil navigator should not steer")
	}
	def := NewNavigator(pillarMesh(), nil)
	if _, ok := def.Solver().(*pathcache.Cache); !ok {
		t.Fatalf("expected a cached default solver, got %T", def.Solver())
	}
	if def.Update(nil, common.Vec2{}, common.Vec2{}) {
		t.Fatalf("nil state should not query")
	}
}
