package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Murgwell/Capstone-sub000/agent"
	"github.com/Murgwell/Capstone-sub000/common"
	"github.com/Murgwell/Capstone-sub000/config"
	"github.com/Murgwell/Capstone-sub000/levels"
	"github.com/Murgwell/Capstone-sub000/navmesh"
	"github.com/Murgwell/Capstone-sub000/pathcache"
	"github.com/Murgwell/Capstone-sub000/pathfind"
	"github.com/Murgwell/Capstone-sub000/physics"
	"github.com/Murgwell/Capstone-sub000/scripting"
)

var errNoWalkable = errors.New("navquery: no walkable cell near endpoint")

type options struct {
	profile string
	level   string
	from    string
	to      string
	solver  string
	repeat  int
	physics bool
	script  string
	frames  int
}

type session struct {
	opts  options
	spec  *config.NavSpec
	nav   *agent.Navigator
	level *levels.Level
	from  common.Vec2
	to    common.Vec2
}

func newSession(opts options) (*session, error) {
	if opts.repeat <= 0 {
		opts.repeat = 1
	}
	s := &session{opts: opts}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload rebuilds the profile, mesh and solver from scratch.
func (s *session) reload() error {
	spec, err := config.LoadNavSpec(s.opts.profile)
	if err != nil {
		return err
	}
	if s.opts.level != "" {
		spec.Level = s.opts.level
	}
	if s.opts.solver != "" {
		spec.Solver = strings.ToLower(s.opts.solver)
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("navquery: -solver: %w", err)
		}
	}

	nav, lvl, err := spec.Build()
	if err != nil {
		return err
	}
	if s.opts.physics && lvl != nil {
		space := physics.NewStaticSpace(lvl)
		nav.SetMesh(physics.MeshFromSpace(space, lvl.Width, lvl.Height, lvl.TileSize, spec.AvoidHazards))
	}

	from, to := defaultEndpoints(nav.Mesh(), lvl)
	if s.opts.from != "" {
		if from, err = parsePoint(s.opts.from); err != nil {
			return err
		}
	}
	if s.opts.to != "" {
		if to, err = parsePoint(s.opts.to); err != nil {
			return err
		}
	}

	s.spec, s.nav, s.level, s.from, s.to = spec, nav, lvl, from, to
	m := nav.Mesh()
	log.Printf("navquery: profile %s, mesh %dx%d cell %.0f, %d/%d walkable, solver %s",
		spec.Name, m.Width(), m.Height(), m.CellSize(), m.WalkableCount(), m.Len(), spec.Solver)
	return nil
}

func (s *session) run() error {
	if _, err := s.query(); err != nil {
		return err
	}
	if s.opts.script == "" {
		return nil
	}
	return s.runScript()
}

// query resolves the endpoints and runs the solver opts.repeat times.
func (s *session) query() ([]*navmesh.GridNode, error) {
	m := s.nav.Mesh()
	start := m.NearestWalkableNode(s.from.X, s.from.Y)
	if start == nil {
		return nil, fmt.Errorf("start %v: %w", s.from, errNoWalkable)
	}
	goal := m.NearestWalkableNode(s.to.X, s.to.Y)
	if goal == nil {
		return nil, fmt.Errorf("goal %v: %w", s.to, errNoWalkable)
	}

	solver := s.nav.Solver()
	var path []*navmesh.GridNode
	began := time.Now()
	for i := 0; i < s.opts.repeat; i++ {
		path = solver.FindPath(m, start, goal)
	}
	elapsed := time.Since(began)

	if len(path) == 0 {
		log.Printf("navquery: %v -> %v: no path (%d runs in %v)", start, goal, s.opts.repeat, elapsed)
	} else {
		log.Printf("navquery: %v -> %v: %d nodes, cost %.2f (%d runs in %v)",
			start, goal, len(path), pathfind.PathCost(path), s.opts.repeat, elapsed)
	}

	if c, ok := solver.(*pathcache.Cache); ok {
		st := c.Stats()
		log.Printf("navquery: cache %d entries, %d hits, %d misses (%d aborted), %d evictions", c.Len(), st.Hits, st.Misses, st.Aborted, st.Evictions)
		solver = c.Solver()
	}
	if a, ok := solver.(*pathfind.AStar); ok {
		st := a.Arena().Stats()
		log.Printf("navquery: arena %d expansions, %d touched, peak %d", st.Expansions, st.Touched, st.Peak)
	}
	return path, nil
}

func (s *session) runScript() error {
	rt, err := scripting.Load(s.opts.script, s.nav, scripting.WithPosition(s.from))
	if err != nil {
		return err
	}
	if err := rt.Set("target", []any{s.to.X, s.to.Y}); err != nil {
		return err
	}
	for i := 0; i < s.opts.frames; i++ {
		if err := rt.Step(); err != nil {
			return err
		}
	}
	pos := rt.Position()
	log.Printf("navquery: script %s ran %d frames, agent at %.1f,%.1f after %d repaths",
		rt.Name(), rt.Frame(), pos.X, pos.Y, rt.Agent().Repaths)
	return nil
}

// watchPaths returns the existing directories and files whose changes should
// trigger a rerun.
func (s *session) watchPaths() []string {
	candidates := []string{config.ProfileDir, "levels", "scripts"}
	for _, p := range []string{s.opts.profile, s.opts.level, s.opts.script} {
		if p != "" && filepath.Ext(p) != "" {
			candidates = append(candidates, filepath.Dir(p))
		}
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range candidates {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		if _, err := os.Stat(clean); err == nil {
			out = append(out, clean)
		}
	}
	return out
}

func (s *session) watch(ctx context.Context) error {
	paths := s.watchPaths()
	if len(paths) == 0 {
		return fmt.Errorf("navquery: nothing to watch under %s", mustGetwd())
	}
	w, err := config.NewWatcher(paths...)
	if err != nil {
		return fmt.Errorf("navquery: watch: %w", err)
	}
	defer w.Close()
	log.Printf("navquery: watching %s", strings.Join(paths, ", "))

	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			log.Printf("navquery: %s changed, reloading", name)
			if err := s.reload(); err != nil {
				log.Printf("navquery: reload: %v", err)
				continue
			}
			if err := s.run(); err != nil {
				log.Printf("navquery: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("navquery: watcher error: %v", err)
		}
	}
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// defaultEndpoints picks the player spawn and first enemy when the level has
// them, otherwise the first and last walkable cells.
func defaultEndpoints(m *navmesh.Mesh, lvl *levels.Level) (common.Vec2, common.Vec2) {
	var from, to common.Vec2
	haveFrom, haveTo := false, false
	if spawns := lvl.Spawns("player_spawn"); len(spawns) > 0 {
		from, haveFrom = spawns[0], true
	}
	if enemies := lvl.Spawns("enemy"); len(enemies) > 0 {
		to, haveTo = enemies[0], true
	}
	if !haveFrom {
		for i := 0; i < m.Len(); i++ {
			if n := m.NodeAt(i); n.Walkable {
				from = m.CellCenter(n)
				break
			}
		}
	}
	if !haveTo {
		for i := m.Len() - 1; i >= 0; i-- {
			if n := m.NodeAt(i); n.Walkable {
				to = m.CellCenter(n)
				break
			}
		}
	}
	return from, to
}

func parsePoint(s string) (common.Vec2, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return common.Vec2{}, fmt.Errorf("navquery: point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return common.Vec2{}, fmt.Errorf("navquery: point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return common.Vec2{}, fmt.Errorf("navquery: point %q: %w", s, err)
	}
	if !common.Finite(x) || !common.Finite(y) {
		return common.Vec2{}, fmt.Errorf("navquery: point %q: not finite", s)
	}
	return common.Vec2{X: x, Y: y}, nil
}
