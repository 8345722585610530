// Package config loads navigation profiles: which level or inline layout a
// mesh is built from, which solver answers queries, and how the path cache
// and agents are tuned.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Murgwell/Capstone-sub000/agent"
	"github.com/Murgwell/Capstone-sub000/common"
	"github.com/Murgwell/Capstone-sub000/levels"
	"github.com/Murgwell/Capstone-sub000/navmesh"
	"github.com/Murgwell/Capstone-sub000/pathcache"
	"github.com/Murgwell/Capstone-sub000/pathfind"
)

var ErrInvalidSpec = errors.New("config: invalid nav spec")

const (
	SolverAStar             = "astar"
	SolverDijkstra          = "dijkstra"
	SolverDijkstraEuclidean = "dijkstra_euclidean"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("config: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("config: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type NavSpec struct {
	Name          string     `yaml:"name"`
	Level         string     `yaml:"level"`
	AvoidHazards  bool       `yaml:"avoid_hazards"`
	Width         int        `yaml:"width"`
	Height        int        `yaml:"height"`
	CellSize      float64    `yaml:"cell_size"`
	Grid          []string   `yaml:"grid"`
	Obstacles     []RectSpec `yaml:"obstacles"`
	Solver        string     `yaml:"solver"`
	ArenaCapacity int        `yaml:"arena_capacity"`
	MaxExpansions int        `yaml:"max_expansions"`
	Cache         CacheSpec  `yaml:"cache"`
	Agent         AgentSpec  `yaml:"agent"`
}

type RectSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

type CacheSpec struct {
	Enabled  *bool         `yaml:"enabled"`
	TTL      time.Duration `yaml:"ttl"`
	Capacity int           `yaml:"capacity"`
}

type AgentSpec struct {
	RepathFrames  int     `yaml:"repath_frames"`
	WaypointReach float64 `yaml:"waypoint_reach"`
}

// LoadNavSpec loads, defaults and validates a profile by name or path.
func LoadNavSpec(name string) (*NavSpec, error) {
	spec, err := LoadSpec[NavSpec](name)
	if err != nil {
		return nil, err
	}
	if err := spec.normalize(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", name, err)
	}
	return &spec, nil
}

// ParseNavSpec decodes a profile from YAML bytes.
func ParseNavSpec(data []byte) (*NavSpec, error) {
	var spec NavSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := spec.normalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &spec, nil
}

func (s *NavSpec) normalize() error {
	s.Solver = strings.ToLower(strings.TrimSpace(s.Solver))
	if s.Solver == "" {
		s.Solver = SolverAStar
	}
	if len(s.Grid) > 0 {
		s.Height = len(s.Grid)
		s.Width = 0
		for _, row := range s.Grid {
			s.Width = max(s.Width, len(row))
		}
	}
	if s.CellSize == 0 {
		s.CellSize = 1
	}
	if s.Cache.TTL == 0 {
		s.Cache.TTL = pathcache.DefaultTTL
	}
	if s.Cache.Capacity == 0 {
		s.Cache.Capacity = pathcache.DefaultCapacity
	}
	if s.ArenaCapacity == 0 {
		s.ArenaCapacity = pathfind.DefaultArenaCapacity
	}
	return s.Validate()
}

// Validate reports the first problem with the profile.
func (s *NavSpec) Validate() error {
	switch s.Solver {
	case SolverAStar, SolverDijkstra, SolverDijkstraEuclidean:
	default:
		return fmt.Errorf("unknown solver %q: %w", s.Solver, ErrInvalidSpec)
	}
	if s.Level == "" && (s.Width <= 0 || s.Height <= 0) && len(s.Grid) == 0 {
		return fmt.Errorf("no level, grid or size given: %w", ErrInvalidSpec)
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("negative size %dx%d: %w", s.Width, s.Height, ErrInvalidSpec)
	}
	if s.Height > 0 && s.Width > navmesh.MaxCells/s.Height {
		return fmt.Errorf("size %dx%d exceeds %d cells: %w", s.Width, s.Height, navmesh.MaxCells, ErrInvalidSpec)
	}
	if s.CellSize < 0 || !common.Finite(s.CellSize) {
		return fmt.Errorf("bad cell size %v: %w", s.CellSize, ErrInvalidSpec)
	}
	if s.Cache.TTL < 0 || s.Cache.Capacity < 0 {
		return fmt.Errorf("bad cache settings %+v: %w", s.Cache, ErrInvalidSpec)
	}
	if s.ArenaCapacity < 0 || s.MaxExpansions < 0 {
		return fmt.Errorf("bad search limits arena=%d expansions=%d: %w", s.ArenaCapacity, s.MaxExpansions, ErrInvalidSpec)
	}
	return nil
}

// CacheEnabled reports whether queries go through a path cache.
func (s *NavSpec) CacheEnabled() bool {
	return s.Cache.Enabled == nil || *s.Cache.Enabled
}

// Rects converts the inline obstacle list and grid rows to world rectangles.
// Grid cells are cell_size wide.
func (s *NavSpec) Rects() []common.Rect {
	return s.rects(s.CellSize)
}

func (s *NavSpec) rects(cell float64) []common.Rect {
	out := make([]common.Rect, 0, len(s.Obstacles))
	for _, o := range s.Obstacles {
		out = append(out, common.Rect{X: o.X, Y: o.Y, Width: o.W, Height: o.H}.Normalized())
	}
	for y, row := range s.Grid {
		for x := 0; x < len(row); x++ {
			if row[x] != '#' {
				continue
			}
			out = append(out, common.Rect{
				X:      float64(x) * cell,
				Y:      float64(y) * cell,
				Width:  cell,
				Height: cell,
			})
		}
	}
	return out
}

// BuildMesh loads the referenced level, or falls back to the inline layout.
func (s *NavSpec) BuildMesh() (*navmesh.Mesh, *levels.Level, error) {
	if s.Level == "" {
		return navmesh.New(s.Width, s.Height, s.CellSize, s.Rects()), nil, nil
	}
	lvl, err := levels.Load(s.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("config: profile %s: %w", s.Name, err)
	}
	// grid rows overlay level tiles one to one
	rects := append(lvl.Obstacles(s.AvoidHazards), s.rects(lvl.TileSize)...)
	return navmesh.New(lvl.Width, lvl.Height, lvl.TileSize, rects), lvl, nil
}

// BuildSolver returns the configured solver, wrapped in a cache unless the
// profile disables it.
func (s *NavSpec) BuildSolver(opts ...pathcache.Option) pathfind.Solver {
	var solver pathfind.Solver
	switch s.Solver {
	case SolverDijkstra:
		solver = pathfind.NewDijkstra()
	case SolverDijkstraEuclidean:
		solver = pathfind.NewDijkstra(pathfind.WithEdgeCost(pathfind.EuclideanCost))
	default:
		solver = pathfind.NewAStar(
			pathfind.WithArenaCapacity(s.ArenaCapacity),
			pathfind.WithMaxExpansions(s.MaxExpansions),
		)
	}
	if !s.CacheEnabled() {
		return solver
	}
	opts = append([]pathcache.Option{
		pathcache.WithTTL(s.Cache.TTL),
		pathcache.WithCapacity(s.Cache.Capacity),
	}, opts...)
	return pathcache.New(solver, opts...)
}

// AgentOptions converts the agent section to navigator options. Zero values
// keep the navigator defaults.
func (s *NavSpec) AgentOptions() []agent.Option {
	return []agent.Option{
		agent.WithRepathFrames(s.Agent.RepathFrames),
		agent.WithWaypointReach(s.Agent.WaypointReach),
	}
}

// Build wires the mesh, the solver and a navigator for the profile.
func (s *NavSpec) Build(opts ...pathcache.Option) (*agent.Navigator, *levels.Level, error) {
	m, lvl, err := s.BuildMesh()
	if err != nil {
		return nil, nil, err
	}
	return agent.NewNavigator(m, s.BuildSolver(opts...), s.AgentOptions()...), lvl, nil
}
