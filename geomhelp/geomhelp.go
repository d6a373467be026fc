package geomhelp

import (
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"
)

// https://en.wikipedia.org/wiki/Shoelace_formula
func Shoelace(pts [][2]float64) float64 {
	sum := 0.
	if len(pts) == 0 {
		return 0.
	}

	p0 := pts[len(pts)-1]
	for _, p1 := range pts {
		sum += p0[1]*p1[0] - p0[0]*p1[1]
		p0 = p1
	}
	return math.Abs(sum / 2)
}

// MultiPolygonArea subtracts the holes from the outer rings.
func MultiPolygonArea(mp geom.MultiPolygon) float64 {
	area := 0.
	for _, p := range mp {
		for i, r := range p {
			if i == 0 {
				area += Shoelace(r)
			} else {
				area -= Shoelace(r)
			}
		}
	}
	return area
}

// WktMustEncode renders g for log lines, cut off at maxLen runes. A maxLen of 0 means no limit.
func WktMustEncode(g geom.Geometry, maxLen uint) string {
	if maxLen == 0 {
		return wkt.MustEncode(g)
	}
	return truncate.StringWithTail(wkt.MustEncode(g), maxLen, "...")
}
