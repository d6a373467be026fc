// Package projection maps points between coordinate spaces, forward with Project and back with Invert.
//
// Geographic projections turn longitude and latitude into a generic plane.
// A MapProjection fits such a plane onto the world rectangle of a map.
// Every projection panics with a NaNError instead of returning a non-finite point.
package projection

import (
	"github.com/pdok/mapstream/typedgeom"
)

type Transform[In, Out any] interface {
	Project(typedgeom.Vec[In]) typedgeom.Vec[Out]
	Invert(typedgeom.Vec[Out]) typedgeom.Vec[In]
}

// Scalar is a one dimensional transform.
type Scalar interface {
	Project(float64) float64
	Invert(float64) float64
}

type offset float64

// Offset moves values by -o.
func Offset(o float64) Scalar { return offset(o) }

func (o offset) Project(v float64) float64 { return v - float64(o) }
func (o offset) Invert(v float64) float64  { return v + float64(o) }

type scale float64

// Scale multiplies values by k.
func Scale(k float64) Scalar { return scale(k) }

func (k scale) Project(v float64) float64 { return v * float64(k) }
func (k scale) Invert(v float64) float64  { return v / float64(k) }

type chain [2]Scalar

func (c chain) Project(v float64) float64 { return c[1].Project(c[0].Project(v)) }
func (c chain) Invert(v float64) float64  { return c[0].Invert(c[1].Invert(v)) }

// Linear first offsets, then scales: (v - o) * k.
func Linear(o, k float64) Scalar {
	return chain{Offset(o), Scale(k)}
}

type tuple[In, Out any] struct {
	x, y Scalar
}

// Tuple applies x to the first ordinate and y to the second.
func Tuple[In, Out any](x, y Scalar) Transform[In, Out] {
	return tuple[In, Out]{x: x, y: y}
}

// Square applies s to both ordinates.
func Square[In, Out any](s Scalar) Transform[In, Out] {
	return tuple[In, Out]{x: s, y: s}
}

func (t tuple[In, Out]) Project(p typedgeom.Vec[In]) typedgeom.Vec[Out] {
	return typedgeom.Vec[Out]{t.x.Project(p[0]), t.y.Project(p[1])}
}

func (t tuple[In, Out]) Invert(p typedgeom.Vec[Out]) typedgeom.Vec[In] {
	return typedgeom.Vec[In]{t.x.Invert(p[0]), t.y.Invert(p[1])}
}

type composite[A, B, C any] struct {
	t1 Transform[A, B]
	t2 Transform[B, C]
}

// Composite projects through t1 then t2, and inverts through t2 then t1.
func Composite[A, B, C any](t1 Transform[A, B], t2 Transform[B, C]) Transform[A, C] {
	return composite[A, B, C]{t1: t1, t2: t2}
}

func (c composite[A, B, C]) Project(p typedgeom.Vec[A]) typedgeom.Vec[C] {
	return c.t2.Project(c.t1.Project(p))
}

func (c composite[A, B, C]) Invert(p typedgeom.Vec[C]) typedgeom.Vec[A] {
	return c.t1.Invert(c.t2.Invert(p))
}

// Funcs adapts a pair of functions to a Transform.
type Funcs[In, Out any] struct {
	ProjectFunc func(typedgeom.Vec[In]) typedgeom.Vec[Out]
	InvertFunc  func(typedgeom.Vec[Out]) typedgeom.Vec[In]
}

func (f Funcs[In, Out]) Project(p typedgeom.Vec[In]) typedgeom.Vec[Out] { return f.ProjectFunc(p) }
func (f Funcs[In, Out]) Invert(p typedgeom.Vec[Out]) typedgeom.Vec[In]  { return f.InvertFunc(p) }
