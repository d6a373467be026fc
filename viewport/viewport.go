// Package viewport keeps track of the part of the world plane that is on screen.
//
// The world plane is measured in pixels at zoom 0, so zooming in by one level doubles the scale.
// The map repeats itself along x, which is how longitude wraps around.
package viewport

import (
	"fmt"
	"math"

	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/mathhelp"
	"github.com/pdok/mapstream/quadkey"
	"github.com/pdok/mapstream/tilematrix"
	"github.com/pdok/mapstream/typedgeom"
)

const (
	DefaultMinZoom = 1
	DefaultMaxZoom = 15
)

type world = typedgeom.World
type client = typedgeom.Client

type Viewport struct {
	mapRect typedgeom.Rect[world]
	grid    *tilematrix.TileMatrixSet
	size    typedgeom.Vec[client]
	minZoom int
	maxZoom int
	zoom    int
	center  typedgeom.Vec[world]
}

// New centers a viewport of size pixels on mapRect at minZoom.
// The cell grid over mapRect has tiles of tilePixelSize pixels.
func New(mapRect typedgeom.Rect[world], size typedgeom.Vec[client], minZoom, maxZoom int, tilePixelSize uint) (*Viewport, error) {
	if minZoom < 0 || minZoom > maxZoom || maxZoom > quadkey.MaxZoom {
		return nil, fmt.Errorf(`invalid zoom range [%v, %v], expected within [0, %v]`, minZoom, maxZoom, quadkey.MaxZoom)
	}
	if mapRect.Width() <= 0 || mapRect.Height() <= 0 {
		return nil, fmt.Errorf(`map rect %v is empty`, mapRect)
	}
	// y points down in world space, so the first row of cells is at min y
	grid, err := tilematrix.NewQuad("world", mapRect.ToGeomExtent(), tilePixelSize, uint(maxZoom), tilematrix.BottomLeft)
	if err != nil {
		return nil, fmt.Errorf(`could not build cell grid: %w`, err)
	}
	v := &Viewport{
		mapRect: mapRect,
		grid:    grid,
		minZoom: minZoom,
		maxZoom: maxZoom,
		zoom:    minZoom,
	}
	v.Resize(size)
	v.SetCenter(mapRect.Center())
	return v, nil
}

func (v *Viewport) MapRect() typedgeom.Rect[world] {
	return v.mapRect
}

// Grid is the tile matrix set the cells of this viewport are taken from.
func (v *Viewport) Grid() *tilematrix.TileMatrixSet {
	return v.grid
}

func (v *Viewport) Zoom() int {
	return v.zoom
}

func (v *Viewport) MinZoom() int {
	return v.minZoom
}

func (v *Viewport) MaxZoom() int {
	return v.maxZoom
}

func (v *Viewport) Center() typedgeom.Vec[world] {
	return v.center
}

func (v *Viewport) Size() typedgeom.Vec[client] {
	return v.size
}

// SetZoom clamps zoom to the zoom range of the viewport.
func (v *Viewport) SetZoom(zoom int) {
	v.zoom = mathhelp.Clamp(zoom, v.minZoom, v.maxZoom)
}

// SetCenter wraps x around the map and clamps y to it.
func (v *Viewport) SetCenter(center typedgeom.Vec[world]) {
	v.center = typedgeom.NewVec[world](
		mathhelp.Wrap(center.X(), v.mapRect.MinX(), v.mapRect.MaxX()),
		mathhelp.Clamp(center.Y(), v.mapRect.MinY(), v.mapRect.MaxY()),
	)
}

func (v *Viewport) Resize(size typedgeom.Vec[client]) {
	v.size = typedgeom.NewVec[client](math.Max(0, size.X()), math.Max(0, size.Y()))
}

// Scale is the number of pixels per world unit at the current zoom.
func (v *Viewport) Scale() float64 {
	return mathhelp.ZoomScale(v.zoom)
}

func (v *Viewport) PlaneToView(p typedgeom.Vec[world]) typedgeom.Vec[client] {
	d := p.Sub(v.center).Mul(v.Scale())
	return typedgeom.NewVec[client](d.X()+v.size.X()/2, d.Y()+v.size.Y()/2)
}

func (v *Viewport) ViewToPlane(p typedgeom.Vec[client]) typedgeom.Vec[world] {
	k := v.Scale()
	return typedgeom.NewVec[world]((p.X()-v.size.X()/2)/k, (p.Y()-v.size.Y()/2)/k).Add(v.center)
}

// WindowRect is the world area on screen. It may stick out of the map along x.
func (v *Viewport) WindowRect() typedgeom.Rect[world] {
	k := v.Scale()
	half := typedgeom.NewVec[world](v.size.X()/k/2, v.size.Y()/k/2)
	return typedgeom.RectFromVecs(v.center.Sub(half), half.Mul(2))
}

// GetOrigins returns the origins of the copies of the map that rect overlaps, from west to east.
// A copy that rect only touches is left out.
func (v *Viewport) GetOrigins(rect typedgeom.Rect[world]) []typedgeom.Vec[world] {
	w := v.mapRect.Width()
	first := math.Floor((rect.MinX() - v.mapRect.MinX()) / w)
	last := math.Ceil((rect.MaxX()-v.mapRect.MinX())/w) - 1
	var origins []typedgeom.Vec[world]
	for i := first; i <= last; i++ {
		origins = append(origins, typedgeom.NewVec[world](v.mapRect.MinX()+i*w, v.mapRect.MinY()))
	}
	return origins
}

// VisibleCells returns the cells at zoom that cover the window, folded back onto the map.
func (v *Viewport) VisibleCells(zoom int) mapslicehelp.Set[quadkey.CellKey] {
	window := v.WindowRect()
	cells := make(mapslicehelp.Set[quadkey.CellKey])
	for _, origin := range v.GetOrigins(window) {
		shifted := window.Translate(v.mapRect.Origin().Sub(origin))
		part, ok := shifted.Intersection(v.mapRect)
		if !ok {
			continue
		}
		cells.AddAll(quadkey.CalculateCellKeys(v.grid, part, zoom))
	}
	return cells
}
