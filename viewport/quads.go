package viewport

import (
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/projection"
	"github.com/pdok/mapstream/quadkey"
	"github.com/pdok/mapstream/typedgeom"
)

const (
	// samplesPerAxis is the number of sample intervals along each side of a cell
	// that only partly lies in the domain of the projection.
	samplesPerAxis = 8
	// edgeEpsilon in degrees keeps rounding from pulling in neighbouring quads.
	edgeEpsilon = 1e-9
)

// CellToQuadKeys returns the geographic quads, at the zoom of cell, that cover what cell shows.
// A cell that does not show any part of the globe has no quads.
func (v *Viewport) CellToQuadKeys(mp projection.MapProjection, cell quadkey.CellKey) mapslicehelp.Set[quadkey.QuadKey] {
	geoRect, ok := invertRect(mp, cell.Rect(v.grid))
	if !ok {
		return make(mapslicehelp.Set[quadkey.QuadKey])
	}
	return quadkey.CalculateQuadKeys(deflate(geoRect), cell.Zoom())
}

func invertRect(mp projection.MapProjection, rect typedgeom.Rect[world]) (typedgeom.Rect[typedgeom.LonLat], bool) {
	inDomain := true
	for _, corner := range rect.Ring()[:4] {
		inDomain = inDomain && mp.InDomain(corner)
	}
	if inDomain {
		if geoRect, ok := invertOutline(mp, rect); ok {
			return geoRect, true
		}
	}
	return invertSamples(mp, rect)
}

// invertOutline follows the outline of rect through the inverse projection.
// It gives up when the outline leaves the domain between the corners.
func invertOutline(mp projection.MapProjection, rect typedgeom.Rect[world]) (geoRect typedgeom.Rect[typedgeom.LonLat], ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isNaN := r.(projection.NaNError); !isNaN {
				panic(r)
			}
			ok = false
		}
	}()
	return projection.TransformBBox(rect, mp.Invert), true
}

func invertSamples(mp projection.MapProjection, rect typedgeom.Rect[world]) (typedgeom.Rect[typedgeom.LonLat], bool) {
	var points []typedgeom.Vec[typedgeom.LonLat]
	for i := 0; i <= samplesPerAxis; i++ {
		for j := 0; j <= samplesPerAxis; j++ {
			p := typedgeom.NewVec[world](
				rect.MinX()+rect.Width()*float64(i)/samplesPerAxis,
				rect.MinY()+rect.Height()*float64(j)/samplesPerAxis,
			)
			if mp.InDomain(p) {
				points = append(points, mp.Invert(p))
			}
		}
	}
	return typedgeom.BBoxOf(points)
}

func deflate(r typedgeom.Rect[typedgeom.LonLat]) typedgeom.Rect[typedgeom.LonLat] {
	if r.Width() > 2*edgeEpsilon {
		r[0] += edgeEpsilon
		r[2] -= edgeEpsilon
	}
	if r.Height() > 2*edgeEpsilon {
		r[1] += edgeEpsilon
		r[3] -= edgeEpsilon
	}
	return r
}
