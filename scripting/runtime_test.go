package scripting

import (
	"errors"
	"slices"
	"testing"

	"github.com/Murgwell/Capstone-sub000/agent"
	"github.com/Murgwell/Capstone-sub000/common"
	"github.com/Murgwell/Capstone-sub000/navmesh"
	"github.com/Murgwell/Capstone-sub000/pathfind"
)

func testNavigator() *agent.Navigator {
	m := navmesh.NewFromGrid(
		"........",
		"...#....",
		"...#....",
		"...#....",
		"........",
	)
	return agent.NewNavigator(m, pathfind.NewAStar(), agent.WithWaypointReach(0.25), agent.WithRepathFrames(4))
}

func TestEmbeddedScriptsCompile(t *testing.T) {
	names := Names()
	for _, want := range []string{"chase", "patrol", "probe"} {
		if !slices.Contains(names, want) {
			t.Fatalf("expected embedded script %s in %v", want, names)
		}
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			rt, err := Load(name, testNavigator(), WithPosition(common.Vec2{X: 0.5, Y: 0.5}))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			for i := 0; i < 5; i++ {
				if err := rt.Step(); err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
			}
		})
	}
	if _, err := Load("missing", testNavigator()); err == nil {
		t.Fatalf("expected an error for a missing script")
	}
}

func TestChaseScriptArrives(t *testing.T) {
	rt, err := Load("scripts/chase.tengo", testNavigator(),
		WithPosition(common.Vec2{X: 0.5, Y: 2.5}),
		WithSpeed(0.5),
	)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := rt.Set("target", []any{6.5, 2.5}); err != nil {
		t.Fatalf("set: %v", err)
	}

	for i := 0; i < 200 && rt.State()["arrived"] != true; i++ {
		if err := rt.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if rt.State()["arrived"] != true {
		t.Fatalf("agent never arrived, at %+v", rt.Position())
	}
	if rt.Position() != (common.Vec2{X: 6.5, Y: 2.5}) {
		t.Fatalf("expected to stop on the target center, got %+v", rt.Position())
	}
	if moves, _ := rt.State()["moves"].(int); moves < 12 {
		t.Fatalf("expected at least 12 half-cell moves around the pillar, got %d", moves)
	}
}

func TestInitRunsOnce(t *testing.T) {
	src := `
init := func(engine, state) {
	state.inits = is_undefined(state.inits) ? 1 : state.inits + 1
}

update := func(engine, state) {
	state.updates = is_undefined(state.updates) ? 1 : state.updates + 1
}
`
	rt, err := New("counter", []byte(src), testNavigator())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := rt.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	st := rt.State()
	if st["inits"] != 1 || st["updates"] != 3 || rt.Frame() != 3 {
		t.Fatalf("unexpected counters %v frame=%d", st, rt.Frame())
	}
}

func TestScriptWithoutInit(t *testing.T) {
	rt, err := New("bare", []byte(`update := func(engine, state) { state.ran = true }`), testNavigator())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := rt.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if rt.State()["ran"] != true {
		t.Fatalf("update did not run")
	}
}

func TestEngineQueries(t *testing.T) {
	src := `
update := func(engine, state) {
	state.path = engine.find_path(0.5, 2.5, 6.5, 2.5)
	state.walled = engine.is_walkable(3, 2)
	state.open = engine.is_walkable(0, 0)
	state.outside = engine.is_walkable(-1, 0)
	state.nearest = engine.nearest_walkable(3.5, 2.5)
	state.none = engine.nearest_walkable(100, 100)
	state.size = engine.cell_size()
	state.frame = engine.frame()
}
`
	rt, err := New("queries", []byte(src), testNavigator())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := rt.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	st := rt.State()

	path, ok := st["path"].([]any)
	if !ok || len(path) < 7 {
		t.Fatalf("expected a path around the pillar, got %v", st["path"])
	}
	first, _ := path[0].([]any)
	last, _ := path[len(path)-1].([]any)
	if !slices.Equal(first, []any{0.5, 2.5}) || !slices.Equal(last, []any{6.5, 2.5}) {
		t.Fatalf("path endpoints %v .. %v", first, last)
	}

	cases := []struct {
		key  string
		want any
	}{
		{"walled", false},
		{"open", true},
		{"outside", false},
		{"none", nil},
		{"size", 1.0},
		{"frame", 0},
	}
	for _, c := range cases {
		if st[c.key] != c.want {
			t.Fatalf("%s: got %v, want %v", c.key, st[c.key], c.want)
		}
	}
	if nearest, _ := st["nearest"].([]any); !slices.Equal(nearest, []any{2, 2}) {
		t.Fatalf("nearest walkable: got %v", st["nearest"])
	}
}

func TestProbeScriptCountsBlockedCells(t *testing.T) {
	rt, err := Load("probe", testNavigator(), WithPosition(common.Vec2{X: 0.5, Y: 2.5}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := rt.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if got := rt.State()["blocked"]; got != 32 {
		t.Fatalf("expected 32 blocked or out of bounds cells, got %v", got)
	}
}

func TestScriptErrors(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		compile bool
	}{
		{"syntax", `update := func(engine, state) {`, true},
		{"missing_update", `x := 1`, true},
		{"init_not_callable", "init := \"soon\"\nupdate := func(engine, state) {}", true},
		{"top_level_error", "x := 1 + \"a\"\nupdate := func(engine, state) {}", true},
		{"unknown_engine_call", `update := func(engine, state) { engine.teleport(1, 2) }`, false},
		{"wrong_arity", `update := func(engine, state) { engine.find_path(1) }`, false},
		{"bad_argument", `update := func(engine, state) { engine.chase("a", 1) }`, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rt, err := New(c.name, []byte(c.src), testNavigator())
			if c.compile {
				if err == nil {
					t.Fatalf("expected New to fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			if err := rt.Step(); err == nil {
				t.Fatalf("expected a runtime error")
			}
		})
	}

	if _, err := New("nil", []byte(`update := func(e, s) {}`), nil); !errors.Is(err, ErrNoNavigator) {
		t.Fatalf("expected ErrNoNavigator, got %v", err)
	}
	rt, err := New("set", []byte(`update := func(e, s) {}`), testNavigator())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := rt.Set("bad", struct{}{}); err == nil {
		t.Fatalf("expected an error for an unsupported value")
	}
}
