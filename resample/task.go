package resample

import (
	"github.com/pdok/mapstream/microtask"
	"github.com/pdok/mapstream/typedgeom"
)

// pathsTask resamples one segment per Resume.
type pathsTask[In, Out any] struct {
	r     *Resampler[In, Out]
	paths [][]typedgeom.Vec[In]
	out   [][]typedgeom.Vec[Out]
	path  int
	point int
}

func newPathsTask[In, Out any](r *Resampler[In, Out], paths [][]typedgeom.Vec[In]) *pathsTask[In, Out] {
	return &pathsTask[In, Out]{r: r, paths: paths, out: make([][]typedgeom.Vec[Out], len(paths)), point: 1}
}

func (t *pathsTask[In, Out]) Alive() bool {
	return t.path < len(t.paths)
}

func (t *pathsTask[In, Out]) Resume() {
	if !t.Alive() {
		return
	}
	p := t.paths[t.path]
	switch {
	case len(p) < 2:
		t.out[t.path] = t.r.Path(p)
	default:
		segment := t.r.Segment(p[t.point-1], p[t.point])
		if len(t.out[t.path]) > 0 {
			segment = segment[1:]
		}
		t.out[t.path] = append(t.out[t.path], segment...)
		if t.point++; t.point < len(p) {
			return
		}
	}
	t.path++
	t.point = 1
}

func (t *pathsTask[In, Out]) Result() [][]typedgeom.Vec[Out] {
	return t.out
}

// MultiPolygonTask resamples every ring of mp, one segment per step.
func MultiPolygonTask[In, Out any](r *Resampler[In, Out], mp typedgeom.MultiPolygon[In]) microtask.Task[typedgeom.MultiPolygon[Out]] {
	var paths [][]typedgeom.Vec[In]
	for _, p := range mp {
		for _, ring := range p {
			paths = append(paths, ring)
		}
	}
	return microtask.Map[[][]typedgeom.Vec[Out]](newPathsTask(r, paths), func(rings [][]typedgeom.Vec[Out]) typedgeom.MultiPolygon[Out] {
		out := make(typedgeom.MultiPolygon[Out], len(mp))
		i := 0
		for pi, p := range mp {
			out[pi] = make(typedgeom.Polygon[Out], len(p))
			for ri := range p {
				out[pi][ri] = rings[i]
				i++
			}
		}
		return out
	})
}

// MultiLineStringTask resamples every line of ml, one segment per step.
func MultiLineStringTask[In, Out any](r *Resampler[In, Out], ml typedgeom.MultiLineString[In]) microtask.Task[typedgeom.MultiLineString[Out]] {
	paths := make([][]typedgeom.Vec[In], len(ml))
	for i, l := range ml {
		paths[i] = l
	}
	return microtask.Map[[][]typedgeom.Vec[Out]](newPathsTask(r, paths), func(lines [][]typedgeom.Vec[Out]) typedgeom.MultiLineString[Out] {
		out := make(typedgeom.MultiLineString[Out], len(lines))
		for i, l := range lines {
			out[i] = l
		}
		return out
	})
}
