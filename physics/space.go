// Package physics bridges the chipmunk space the game simulates in and the
// navigation mesh: static level geometry goes in as boxes, and whatever static
// shapes a space holds come back out as obstacle rectangles.
package physics

import (
	"log"

	"github.com/jakecoffman/cp"

	"github.com/Murgwell/Capstone-sub000/common"
	"github.com/Murgwell/Capstone-sub000/levels"
	"github.com/Murgwell/Capstone-sub000/navmesh"
)

const (
	CollisionSolid cp.CollisionType = iota + 1
	CollisionHazard
)

// NewStaticSpace creates a space holding the level's merged solid rectangles
// as static boxes and each hazard tile as a sensor triangle.
func NewStaticSpace(lvl *levels.Level) *cp.Space {
	space := cp.NewSpace()
	space.Iterations = 20
	if lvl == nil {
		return space
	}

	for _, r := range lvl.Obstacles(false) {
		AddObstacle(space, r)
	}
	for _, r := range lvl.Hazards() {
		verts := []cp.Vector{
			{X: r.X, Y: r.MaxY()},
			{X: r.MaxX(), Y: r.MaxY()},
			{X: r.X + r.Width/2, Y: r.Y},
		}
		shape := cp.NewPolyShapeRaw(space.StaticBody, 3, verts, 0)
		shape.SetSensor(true)
		shape.SetCollisionType(CollisionHazard)
		space.AddShape(shape)
	}
	return space
}

// AddObstacle adds r to the space as a static solid box.
func AddObstacle(space *cp.Space, r common.Rect) *cp.Shape {
	if space == nil || r.Empty() {
		return nil
	}
	r = r.Normalized()
	bb := cp.BB{L: r.X, B: r.Y, R: r.MaxX(), T: r.MaxY()}
	shape := cp.NewBox2(space.StaticBody, bb, 0)
	shape.SetFriction(0.8)
	shape.SetCollisionType(CollisionSolid)
	return space.AddShape(shape)
}

// Obstacles returns the bounding boxes of the static shapes in space. Dynamic
// and kinematic bodies are agents, not geometry, and are ignored; sensors only
// count when includeSensors is set.
func Obstacles(space *cp.Space, includeSensors bool) []common.Rect {
	if space == nil {
		return nil
	}
	var rects []common.Rect
	space.EachShape(func(shape *cp.Shape) {
		body := shape.Body()
		if body == nil || body.GetType() != cp.BODY_STATIC {
			return
		}
		if shape.Sensor() && !includeSensors {
			return
		}
		bb := shape.BB()
		r := common.Rect{X: bb.L, Y: bb.B, Width: bb.R - bb.L, Height: bb.T - bb.B}
		if r.Empty() {
			return
		}
		rects = append(rects, r)
	})
	return rects
}

// MeshFromSpace builds a navigation mesh from the static geometry of space.
func MeshFromSpace(space *cp.Space, width, height int, cellSize float64, includeSensors bool) *navmesh.Mesh {
	rects := Obstacles(space, includeSensors)
	m := navmesh.New(width, height, cellSize, rects)
	log.Printf("physics: mesh %dx%d from %d static shapes, %d walkable cells", m.Width(), m.Height(), len(rects), m.WalkableCount())
	return m
}
