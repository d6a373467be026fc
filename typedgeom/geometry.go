package typedgeom

import (
	"github.com/go-spatial/geom"
)

type LineString[T any] []Vec[T]

// Ring is a closed line string, the last point equals the first.
type Ring[T any] []Vec[T]

// Polygon is an outer ring followed by its holes.
type Polygon[T any] []Ring[T]

type MultiPolygon[T any] []Polygon[T]

type MultiLineString[T any] []LineString[T]

// IsEmpty reports whether mp carries no points at all.
func (mp MultiPolygon[T]) IsEmpty() bool {
	for _, p := range mp {
		for _, r := range p {
			if len(r) > 0 {
				return false
			}
		}
	}
	return true
}

func (mp MultiPolygon[T]) PointCount() int {
	n := 0
	for _, p := range mp {
		for _, r := range p {
			n += len(r)
		}
	}
	return n
}

func (mp MultiPolygon[T]) BBox() (Rect[T], bool) {
	var (
		bbox  Rect[T]
		found bool
	)
	for _, p := range mp {
		for _, r := range p {
			rb, ok := BBoxOf([]Vec[T](r))
			if !ok {
				continue
			}
			if found {
				bbox = bbox.Union(rb)
			} else {
				bbox, found = rb, true
			}
		}
	}
	return bbox, found
}

func (ml MultiLineString[T]) BBox() (Rect[T], bool) {
	var (
		bbox  Rect[T]
		found bool
	)
	for _, l := range ml {
		lb, ok := BBoxOf([]Vec[T](l))
		if !ok {
			continue
		}
		if found {
			bbox = bbox.Union(lb)
		} else {
			bbox, found = lb, true
		}
	}
	return bbox, found
}

func (mp MultiPolygon[T]) ToGeom() geom.MultiPolygon {
	out := make(geom.MultiPolygon, len(mp))
	for i, p := range mp {
		out[i] = make([][][2]float64, len(p))
		for j, r := range p {
			out[i][j] = make([][2]float64, len(r))
			for k, v := range r {
				out[i][j][k] = v
			}
		}
	}
	return out
}

func (ml MultiLineString[T]) ToGeom() geom.MultiLineString {
	out := make(geom.MultiLineString, len(ml))
	for i, l := range ml {
		out[i] = make([][2]float64, len(l))
		for j, v := range l {
			out[i][j] = v
		}
	}
	return out
}

// MultiPolygonFromGeom tags a go-spatial multipolygon with space T.
func MultiPolygonFromGeom[T any](g geom.MultiPolygon) MultiPolygon[T] {
	out := make(MultiPolygon[T], len(g))
	for i, p := range g {
		out[i] = make(Polygon[T], len(p))
		for j, r := range p {
			out[i][j] = make(Ring[T], len(r))
			for k, v := range r {
				out[i][j][k] = v
			}
		}
	}
	return out
}
