// Package resample approximates the image of a polyline under a non-linear transform.
//
// Segments are bisected in the source space until the transformed midpoint lies
// within epsilon of the chord between the transformed endpoints.
package resample

import (
	"log/slog"

	"github.com/pdok/mapstream/typedgeom"
)

// DefaultEpsilon is the tolerated deviation, in target units, of a resampled line from the true curve.
const DefaultEpsilon = 0.001

// maxDepth bounds the bisection for transforms that are not continuous.
const maxDepth = 20

type Resampler[In, Out any] struct {
	transform  func(typedgeom.Vec[In]) typedgeom.Vec[Out]
	epsilonSqr float64

	// called for every midpoint that was dropped, only set by tests
	onAccept func(t1, tm, t2 typedgeom.Vec[Out])
}

func New[In, Out any](transform func(typedgeom.Vec[In]) typedgeom.Vec[Out], epsilon float64) *Resampler[In, Out] {
	return &Resampler[In, Out]{transform: transform, epsilonSqr: epsilon * epsilon}
}

// Segment returns the transformed points from p1 up to and including p2.
// Bisection stops after maxDepth levels, so where the transform jumps the result
// may deviate more than epsilon from the true curve.
func (r *Resampler[In, Out]) Segment(p1, p2 typedgeom.Vec[In]) []typedgeom.Vec[Out] {
	t1 := r.transform(p1)
	t2 := r.transform(p2)
	out := []typedgeom.Vec[Out]{t1}
	return r.bisect(out, p1, t1, p2, t2, 0)
}

// bisect appends the points after t1 up to and including t2.
func (r *Resampler[In, Out]) bisect(out []typedgeom.Vec[Out], p1 typedgeom.Vec[In], t1 typedgeom.Vec[Out], p2 typedgeom.Vec[In], t2 typedgeom.Vec[Out], depth int) []typedgeom.Vec[Out] {
	pm := typedgeom.Vec[In]{(p1[0] + p2[0]) / 2, (p1[1] + p2[1]) / 2}
	tm := r.transform(pm)
	if depth < maxDepth && deviationSqr(t1, tm, t2) > r.epsilonSqr {
		out = r.bisect(out, p1, t1, pm, tm, depth+1)
		return r.bisect(out, pm, tm, p2, t2, depth+1)
	}
	if depth == maxDepth && deviationSqr(t1, tm, t2) > r.epsilonSqr {
		slog.Debug("resample depth exhausted", slog.Any("from", p1), slog.Any("to", p2))
	}
	if r.onAccept != nil {
		r.onAccept(t1, tm, t2)
	}
	return append(out, t2)
}

// Path resamples every segment of points, consecutive segments share their endpoint once.
func (r *Resampler[In, Out]) Path(points []typedgeom.Vec[In]) []typedgeom.Vec[Out] {
	switch len(points) {
	case 0:
		return nil
	case 1:
		return []typedgeom.Vec[Out]{r.transform(points[0])}
	}
	out := make([]typedgeom.Vec[Out], 0, len(points))
	for i := 1; i < len(points); i++ {
		if len(out) > 0 {
			out = out[:len(out)-1]
		}
		out = append(out, r.Segment(points[i-1], points[i])...)
	}
	return out
}

// deviationSqr is the squared distance of m to the line through a and b,
// or to a itself when a and b coincide.
func deviationSqr[T any](a, m, b typedgeom.Vec[T]) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSqr := dx*dx + dy*dy
	if lenSqr == 0 {
		return a.DistanceSqr(m)
	}
	cross := dx*(m[1]-a[1]) - dy*(m[0]-a[0])
	return cross * cross / lenSqr
}
