package levels

import (
	"github.com/Murgwell/Capstone-sub000/common"
	"github.com/Murgwell/Capstone-sub000/navmesh"
)

func (l *Level) physicsLayer(idx int) bool {
	return idx < len(l.LayerMeta) && l.LayerMeta[idx].Physics
}

// TileAt reports the strongest tile value at (x, y) across physics layers:
// solid beats hazard beats empty.
func (l *Level) TileAt(x, y int) int {
	if l == nil || x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return TileEmpty
	}
	idx := y*l.Width + x
	out := TileEmpty
	for i, layer := range l.Layers {
		if !l.physicsLayer(i) {
			continue
		}
		switch layer[idx] {
		case TileEmpty:
		case TileHazard:
			if out == TileEmpty {
				out = TileHazard
			}
		default:
			return TileSolid
		}
	}
	return out
}

// Obstacles merges contiguous blocking tiles into rectangles in world units,
// growing each one greedily along the row and then down. Hazard tiles only
// block when includeHazards is set.
func (l *Level) Obstacles(includeHazards bool) []common.Rect {
	if l == nil || l.Width == 0 || l.Height == 0 {
		return nil
	}
	blocking := func(x, y int) bool {
		switch l.TileAt(x, y) {
		case TileSolid:
			return true
		case TileHazard:
			return includeHazards
		}
		return false
	}

	size := l.TileSize
	processed := make([]bool, l.Width*l.Height)
	var rects []common.Rect
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			idx := y*l.Width + x
			if processed[idx] {
				continue
			}
			if !blocking(x, y) {
				processed[idx] = true
				continue
			}

			w := 1
			for x+w < l.Width && !processed[y*l.Width+x+w] && blocking(x+w, y) {
				w++
			}

			h := 1
		heightLoop:
			for y+h < l.Height {
				for xi := x; xi < x+w; xi++ {
					if processed[(y+h)*l.Width+xi] || !blocking(xi, y+h) {
						break heightLoop
					}
				}
				h++
			}

			for yy := y; yy < y+h; yy++ {
				for xx := x; xx < x+w; xx++ {
					processed[yy*l.Width+xx] = true
				}
			}
			rects = append(rects, common.Rect{
				X:      float64(x) * size,
				Y:      float64(y) * size,
				Width:  float64(w) * size,
				Height: float64(h) * size,
			})
		}
	}
	return rects
}

// Hazards returns one rectangle per hazard tile.
func (l *Level) Hazards() []common.Rect {
	if l == nil {
		return nil
	}
	var rects []common.Rect
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if l.TileAt(x, y) == TileHazard {
				rects = append(rects, common.Rect{
					X:      float64(x) * l.TileSize,
					Y:      float64(y) * l.TileSize,
					Width:  l.TileSize,
					Height: l.TileSize,
				})
			}
		}
	}
	return rects
}

// Mesh builds a navigation mesh with one cell per tile.
func (l *Level) Mesh(avoidHazards bool) *navmesh.Mesh {
	if l == nil {
		return navmesh.New(0, 0, DefaultTileSize, nil)
	}
	return navmesh.New(l.Width, l.Height, l.TileSize, l.Obstacles(avoidHazards))
}

// Spawns returns the world-space centers of all entities of the given type.
func (l *Level) Spawns(kind string) []common.Vec2 {
	if l == nil {
		return nil
	}
	var out []common.Vec2
	for _, e := range l.Entities {
		if e.Type != kind {
			continue
		}
		out = append(out, common.Vec2{
			X: (float64(e.X) + 0.5) * l.TileSize,
			Y: (float64(e.Y) + 0.5) * l.TileSize,
		})
	}
	return out
}
