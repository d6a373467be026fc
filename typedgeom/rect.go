package typedgeom

import (
	"math"

	"github.com/go-spatial/geom"
)

// Rect represents the minx, miny, maxx and maxy of an axis aligned rectangle in space T.
type Rect[T any] [4]float64

// NewRect orders the given corners so that min <= max on both axes.
func NewRect[T any](x1, y1, x2, y2 float64) Rect[T] {
	return Rect[T]{math.Min(x1, x2), math.Min(y1, y2), math.Max(x1, x2), math.Max(y1, y2)}
}

// RectXYWH builds a rect from its min corner and its size.
func RectXYWH[T any](x, y, w, h float64) Rect[T] {
	return NewRect[T](x, y, x+w, y+h)
}

// RectFromVecs builds a rect from its origin (min corner) and dimension.
func RectFromVecs[T any](origin, dimension Vec[T]) Rect[T] {
	return RectXYWH[T](origin[0], origin[1], dimension[0], dimension[1])
}

func (r Rect[T]) MinX() float64 { return r[0] }
func (r Rect[T]) MinY() float64 { return r[1] }
func (r Rect[T]) MaxX() float64 { return r[2] }
func (r Rect[T]) MaxY() float64 { return r[3] }

func (r Rect[T]) Width() float64 {
	return r[2] - r[0]
}

func (r Rect[T]) Height() float64 {
	return r[3] - r[1]
}

func (r Rect[T]) Origin() Vec[T] {
	return Vec[T]{r[0], r[1]}
}

func (r Rect[T]) Dimension() Vec[T] {
	return Vec[T]{r.Width(), r.Height()}
}

func (r Rect[T]) Center() Vec[T] {
	return Vec[T]{(r[0] + r[2]) / 2, (r[1] + r[3]) / 2}
}

// Contains reports whether p lies inside r or on its boundary.
func (r Rect[T]) Contains(p Vec[T]) bool {
	return r[0] <= p[0] && p[0] <= r[2] && r[1] <= p[1] && p[1] <= r[3]
}

// Intersects reports whether r and o share at least one point.
func (r Rect[T]) Intersects(o Rect[T]) bool {
	return r[0] <= o[2] && o[0] <= r[2] && r[1] <= o[3] && o[1] <= r[3]
}

// Intersection returns the overlap of r and o, false if there is none.
func (r Rect[T]) Intersection(o Rect[T]) (Rect[T], bool) {
	if !r.Intersects(o) {
		return Rect[T]{}, false
	}
	return Rect[T]{math.Max(r[0], o[0]), math.Max(r[1], o[1]), math.Min(r[2], o[2]), math.Min(r[3], o[3])}, true
}

func (r Rect[T]) Union(o Rect[T]) Rect[T] {
	return Rect[T]{math.Min(r[0], o[0]), math.Min(r[1], o[1]), math.Max(r[2], o[2]), math.Max(r[3], o[3])}
}

// Inflate grows r by d on every side.
func (r Rect[T]) Inflate(d Vec[T]) Rect[T] {
	return Rect[T]{r[0] - d[0], r[1] - d[1], r[2] + d[0], r[3] + d[1]}
}

func (r Rect[T]) Translate(d Vec[T]) Rect[T] {
	return Rect[T]{r[0] + d[0], r[1] + d[1], r[2] + d[0], r[3] + d[1]}
}

// Ring returns the closed outline of r, counterclockwise when y points up.
func (r Rect[T]) Ring() Ring[T] {
	return Ring[T]{
		{r[0], r[1]},
		{r[2], r[1]},
		{r[2], r[3]},
		{r[0], r[3]},
		{r[0], r[1]},
	}
}

func (r Rect[T]) MultiPolygon() MultiPolygon[T] {
	return MultiPolygon[T]{{r.Ring()}}
}

func (r Rect[T]) ToGeomExtent() geom.Extent {
	return geom.Extent{r[0], r[1], r[2], r[3]}
}

func RectFromGeomExtent[T any](e geom.Extent) Rect[T] {
	return NewRect[T](e[0], e[1], e[2], e[3])
}

// BBoxOf returns the smallest rect containing all points, false when there are none.
func BBoxOf[T any](points []Vec[T]) (Rect[T], bool) {
	if len(points) == 0 {
		return Rect[T]{}, false
	}
	r := Rect[T]{points[0][0], points[0][1], points[0][0], points[0][1]}
	for _, p := range points[1:] {
		r[0] = math.Min(r[0], p[0])
		r[1] = math.Min(r[1], p[1])
		r[2] = math.Max(r[2], p[0])
		r[3] = math.Max(r[3], p[1])
	}
	return r, true
}

// SplitAtAntimeridian handles geographic boxes whose west edge lies east of their east edge.
// Such a box crosses the 180th meridian and is returned as two boxes, otherwise as one.
func SplitAtAntimeridian(west, south, east, north float64) []Rect[LonLat] {
	if west <= east {
		return []Rect[LonLat]{NewRect[LonLat](west, south, east, north)}
	}
	return []Rect[LonLat]{
		NewRect[LonLat](west, south, 180, north),
		NewRect[LonLat](-180, south, east, north),
	}
}
