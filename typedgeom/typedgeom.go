// Package typedgeom resembles github.com/go-spatial/geom but tags every coordinate with the space it lives in.
//
// A Vec[LonLat] and a Vec[World] share the same memory layout ([2]float64),
// yet Go refuses to mix them without an explicit conversion.
// Moving between spaces is supposed to happen through a projection only,
// the conversion functions in this package exist for the projections themselves
// and for the edges of the system where go-spatial/geom types come in or go out.
package typedgeom

import (
	"math"
)

// LonLat is the geographic space: longitude and latitude in degrees, y pointing north.
type LonLat struct{}

// Generic is the plane a geographic projection outputs, before it is fitted onto the map.
type Generic struct{}

// World is the zoom independent plane the map lives in, y pointing down.
type World struct{}

// Client is the device pixel space of a viewport.
type Client struct{}

// Vec is a point or a displacement in coordinate space T.
type Vec[T any] [2]float64

func NewVec[T any](x, y float64) Vec[T] {
	return Vec[T]{x, y}
}

func (v Vec[T]) X() float64 {
	return v[0]
}

func (v Vec[T]) Y() float64 {
	return v[1]
}

func (v Vec[T]) Add(o Vec[T]) Vec[T] {
	return Vec[T]{v[0] + o[0], v[1] + o[1]}
}

func (v Vec[T]) Sub(o Vec[T]) Vec[T] {
	return Vec[T]{v[0] - o[0], v[1] - o[1]}
}

func (v Vec[T]) Mul(k float64) Vec[T] {
	return Vec[T]{v[0] * k, v[1] * k}
}

// IsFinite reports whether neither ordinate is NaN or infinite.
func (v Vec[T]) IsFinite() bool {
	return !math.IsNaN(v[0]) && !math.IsNaN(v[1]) && !math.IsInf(v[0], 0) && !math.IsInf(v[1], 0)
}

// DistanceSqr is the squared euclidean distance between v and o.
func (v Vec[T]) DistanceSqr(o Vec[T]) float64 {
	dx := v[0] - o[0]
	dy := v[1] - o[1]
	return dx*dx + dy*dy
}

// Reinterpret changes the space tag of v without touching its ordinates.
// Only projections should need this.
func Reinterpret[Out, In any](v Vec[In]) Vec[Out] {
	return Vec[Out](v)
}
