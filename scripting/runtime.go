// Package scripting runs tengo AI scripts against the navigation layer. A
// script defines update(engine, state) and optionally init(engine, state);
// engine exposes path queries and steering for one agent, state persists
// across frames.
package scripting

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/Murgwell/Capstone-sub000/agent"
	"github.com/Murgwell/Capstone-sub000/common"
)

const DefaultSpeed = 2.0

const dispatchScript = `
if __phase == "init" {
	__init(__engine, __state)
} else if __phase == "update" {
	update(__engine, __state)
}
`

var ErrNoNavigator = errors.New("scripting: nil navigator")

// Runtime owns one compiled script and the agent it drives.
type Runtime struct {
	name     string
	compiled *tengo.Compiled
	state    *tengo.Map
	engine   *tengo.ImmutableMap

	nav   *agent.Navigator
	agent *agent.State
	pos   common.Vec2
	speed float64

	hasInit     bool
	initialized bool
	frame       int
}

type Option func(*Runtime)

// WithPosition places the agent in world units.
func WithPosition(p common.Vec2) Option {
	return func(rt *Runtime) { rt.pos = p }
}

// WithSpeed sets how far chase moves the agent per call.
func WithSpeed(s float64) Option {
	return func(rt *Runtime) {
		if s > 0 && common.Finite(s) {
			rt.speed = s
		}
	}
}

// Load reads a script by name or path and compiles it.
func Load(name string, nav *agent.Navigator, opts ...Option) (*Runtime, error) {
	src, err := LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("scripting: load %s: %w", name, err)
	}
	return New(name, src, nav, opts...)
}

func New(name string, src []byte, nav *agent.Navigator, opts ...Option) (*Runtime, error) {
	if nav == nil {
		return nil, ErrNoNavigator
	}

	rt := &Runtime{
		name:  name,
		state: &tengo.Map{Value: map[string]tengo.Object{}},
		nav:   nav,
		agent: agent.NewState(),
		speed: DefaultSpeed,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rt)
		}
	}

	compiled, err := compile(src)
	if err != nil {
		return nil, fmt.Errorf("scripting: compile %s: %w", name, err)
	}
	rt.compiled = compiled
	rt.engine = rt.buildEngine()

	// Run the top level once so the optional init global can be resolved.
	if err := rt.runPhase("noop"); err != nil {
		return nil, fmt.Errorf("scripting: %s: %w", name, err)
	}
	if compiled.IsDefined("init") {
		fn := compiled.Get("init").Object()
		if !fn.CanCall() {
			return nil, fmt.Errorf("scripting: %s: init is %s, not a function", name, fn.TypeName())
		}
		if err := compiled.Set("__init", fn); err != nil {
			return nil, fmt.Errorf("scripting: %s: %w", name, err)
		}
		rt.hasInit = true
	}
	return rt, nil
}

func compile(src []byte) (*tengo.Compiled, error) {
	script := tengo.NewScript([]byte(string(src) + "\n" + dispatchScript))
	_ = script.Add("__phase", "")
	_ = script.Add("__init", nil)
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})

	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	return script.Compile()
}

func (rt *Runtime) Name() string { return rt.name }

func (rt *Runtime) Frame() int { return rt.frame }

func (rt *Runtime) Position() common.Vec2 { return rt.pos }

// Agent exposes the path following state of the scripted agent.
func (rt *Runtime) Agent() *agent.State { return rt.agent }

// Set stores a Go value in the script's state map.
func (rt *Runtime) Set(key string, value any) error {
	obj, err := tengo.FromInterface(value)
	if err != nil {
		return fmt.Errorf("scripting: set %s: %w", key, err)
	}
	rt.state.Value[key] = obj
	return nil
}

// State returns a Go copy of the script's state map.
func (rt *Runtime) State() map[string]any {
	out, _ := objectToAny(rt.state).(map[string]any)
	return out
}

// Step runs init on the first call and update on every call.
func (rt *Runtime) Step() error {
	if rt == nil || rt.compiled == nil {
		return fmt.Errorf("scripting: nil runtime")
	}
	if !rt.initialized {
		rt.initialized = true
		if rt.hasInit {
			if err := rt.runPhase("init"); err != nil {
				return fmt.Errorf("scripting: %s init: %w", rt.name, err)
			}
		}
	}
	if err := rt.runPhase("update"); err != nil {
		return fmt.Errorf("scripting: %s update frame %d: %w", rt.name, rt.frame, err)
	}
	rt.frame++
	return nil
}

func (rt *Runtime) runPhase(phase string) error {
	if err := rt.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", rt.engine); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.state); err != nil {
		return err
	}
	return rt.compiled.Run()
}

// chase advances the agent one step toward target and reports whether it is
// still moving.
func (rt *Runtime) chase(target common.Vec2) bool {
	rt.nav.Update(rt.agent, rt.pos, target)
	wp, ok := rt.nav.Steer(rt.agent, rt.pos)
	if !ok {
		return false
	}
	d := wp.Sub(rt.pos)
	dist := d.Len()
	if dist <= rt.speed {
		rt.pos = wp
		return true
	}
	rt.pos.X += d.X / dist * rt.speed
	rt.pos.Y += d.Y / dist * rt.speed
	return true
}

func (rt *Runtime) buildEngine() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["find_path"] = &tengo.UserFunction{Name: "find_path", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 4 {
			return nil, tengo.ErrWrongNumArguments
		}
		coords, err := floatArgs("find_path", args)
		if err != nil {
			return nil, err
		}
		m := rt.nav.Mesh()
		start := m.NearestWalkableNode(coords[0], coords[1])
		goal := m.NearestWalkableNode(coords[2], coords[3])
		out := &tengo.Array{Value: []tengo.Object{}}
		if start == nil || goal == nil {
			return out, nil
		}
		for _, n := range rt.nav.Solver().FindPath(m, start, goal) {
			out.Value = append(out.Value, vecObject(m.CellCenter(n)))
		}
		return out, nil
	}}

	values["nearest_walkable"] = &tengo.UserFunction{Name: "nearest_walkable", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		coords, err := floatArgs("nearest_walkable", args)
		if err != nil {
			return nil, err
		}
		n := rt.nav.Mesh().NearestWalkableNode(coords[0], coords[1])
		if n == nil {
			return tengo.UndefinedValue, nil
		}
		return &tengo.Array{Value: []tengo.Object{&tengo.Int{Value: int64(n.X)}, &tengo.Int{Value: int64(n.Y)}}}, nil
	}}

	values["is_walkable"] = &tengo.UserFunction{Name: "is_walkable", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		x, ok := tengo.ToInt(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "x", Expected: "int", Found: args[0].TypeName()}
		}
		y, ok := tengo.ToInt(args[1])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "y", Expected: "int", Found: args[1].TypeName()}
		}
		if n := rt.nav.Mesh().Node(x, y); n != nil && n.Walkable {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["cell_size"] = &tengo.UserFunction{Name: "cell_size", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: rt.nav.Mesh().CellSize()}, nil
	}}

	values["frame"] = &tengo.UserFunction{Name: "frame", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(rt.frame)}, nil
	}}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vecObject(rt.pos), nil
	}}

	values["chase"] = &tengo.UserFunction{Name: "chase", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		coords, err := floatArgs("chase", args)
		if err != nil {
			return nil, err
		}
		if rt.chase(common.Vec2{X: coords[0], Y: coords[1]}) {
			return tengo.TrueValue, nil
		}
		return tengo.FalseValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		log.Printf("script %s: %s", rt.name, strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func floatArgs(fn string, args []tengo.Object) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, ok := tengo.ToFloat64(a)
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: fmt.Sprintf("%s arg %d", fn, i), Expected: "float", Found: a.TypeName()}
		}
		out[i] = f
	}
	return out, nil
}

func vecObject(v common.Vec2) *tengo.Array {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: v.X}, &tengo.Float{Value: v.Y}}}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}

	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.ImmutableMap:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
