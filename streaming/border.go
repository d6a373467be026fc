package streaming

import (
	"math"

	"github.com/pdok/mapstream/typedgeom"
)

// borderEpsilon in degrees, clipped coordinates land on the clip rect up to rounding.
const borderEpsilon = 1e-9

func onBorder[T any](p typedgeom.Vec[T], r typedgeom.Rect[T]) bool {
	near := func(a, b float64) bool { return math.Abs(a-b) <= borderEpsilon }
	return near(p.X(), r.MinX()) || near(p.X(), r.MaxX()) || near(p.Y(), r.MinY()) || near(p.Y(), r.MaxY())
}

// borderTask extracts the outline of a clipped multipolygon without the edges its clip rect cut.
// Every Resume looks at one point. A line ends at the first border point after a visible point
// and the next line starts at the last border point before a visible point.
type borderTask[T any] struct {
	geometry typedgeom.MultiPolygon[T]
	clipRect typedgeom.Rect[T]

	polygon, ring, point int

	line        typedgeom.LineString[T]
	lines       typedgeom.MultiLineString[T]
	prev        *typedgeom.Vec[T]
	prevVisible bool
	done        bool
}

func newBorderTask[T any](geometry typedgeom.MultiPolygon[T], clipRect typedgeom.Rect[T]) *borderTask[T] {
	t := &borderTask[T]{geometry: geometry, clipRect: clipRect}
	t.skipEmpty()
	return t
}

// skipEmpty moves to the next ring that has points, or finishes.
func (t *borderTask[T]) skipEmpty() {
	for t.polygon < len(t.geometry) {
		p := t.geometry[t.polygon]
		for t.ring < len(p) {
			if t.point < len(p[t.ring]) {
				return
			}
			t.endLine()
			t.prev = nil
			t.prevVisible = false
			t.ring++
			t.point = 0
		}
		t.polygon++
		t.ring = 0
	}
	t.done = true
}

func (t *borderTask[T]) endLine() {
	if len(t.line) > 0 {
		t.lines = append(t.lines, t.line)
	}
	t.line = nil
}

func (t *borderTask[T]) Resume() {
	if t.done {
		return
	}
	current := t.geometry[t.polygon][t.ring][t.point]
	t.point++

	if onBorder(current, t.clipRect) {
		if t.prevVisible {
			t.line = append(t.line, current)
			t.endLine()
		}
		t.prev = &current
		t.prevVisible = false
	} else {
		if !t.prevVisible && t.prev != nil {
			t.line = append(t.line, *t.prev)
		}
		t.line = append(t.line, current)
		t.prevVisible = true
	}
	t.skipEmpty()
}

func (t *borderTask[T]) Alive() bool {
	return !t.done
}

func (t *borderTask[T]) Result() typedgeom.MultiLineString[T] {
	return t.lines
}
