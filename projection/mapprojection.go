package projection

import (
	"math"

	"github.com/pdok/mapstream/resample"
	"github.com/pdok/mapstream/typedgeom"
)

// MapProjectionBuilder fits the valid rect of a geographic projection onto the map rect,
// centered and with the same scale on both axes.
type MapProjectionBuilder struct {
	GeoProjection GeoProjection
	MapRect       typedgeom.Rect[typedgeom.World]
	ReverseX      bool
	ReverseY      bool
}

// MapProjection projects longitude/latitude straight onto the world plane.
type MapProjection struct {
	geo     GeoProjection
	fit     Transform[typedgeom.Generic, typedgeom.World]
	mapRect typedgeom.Rect[typedgeom.World]
}

func (b MapProjectionBuilder) Create() MapProjection {
	planeRect := TransformBBox(b.GeoProjection.ValidRect(), b.GeoProjection.Project)
	w := b.MapRect.Width()
	h := b.MapRect.Height()
	k := math.Min(w/planeRect.Width(), h/planeRect.Height())
	padX := (w/k - planeRect.Width()) / 2
	padY := (h/k - planeRect.Height()) / 2

	fit := Tuple[typedgeom.Generic, typedgeom.World](
		axisFit(planeRect.MinX()-padX, planeRect.MaxX()+padX, b.MapRect.MinX(), k, b.ReverseX),
		axisFit(planeRect.MinY()-padY, planeRect.MaxY()+padY, b.MapRect.MinY(), k, b.ReverseY),
	)
	return MapProjection{geo: b.GeoProjection, fit: fit, mapRect: b.MapRect}
}

// axisFit maps [lo, hi] onto [target, target + (hi-lo)*k], flipped when reverse is set.
func axisFit(lo, hi, target, k float64, reverse bool) Scalar {
	if reverse {
		return Linear(hi+target/k, -k)
	}
	return Linear(lo-target/k, k)
}

func (m MapProjection) Project(p typedgeom.Vec[typedgeom.LonLat]) typedgeom.Vec[typedgeom.World] {
	return m.fit.Project(m.geo.Project(p))
}

func (m MapProjection) Invert(p typedgeom.Vec[typedgeom.World]) typedgeom.Vec[typedgeom.LonLat] {
	return m.geo.Invert(m.fit.Invert(p))
}

func (m MapProjection) MapRect() typedgeom.Rect[typedgeom.World] {
	return m.mapRect
}

func (m MapProjection) GeoProjection() GeoProjection {
	return m.geo
}

// InDomain reports whether Invert is defined at p.
func (m MapProjection) InDomain(p typedgeom.Vec[typedgeom.World]) bool {
	return m.geo.InDomain(m.fit.Invert(p))
}

// TransformBBox returns the bounding box of the image of rect, following its curved edges.
func TransformBBox[In, Out any](rect typedgeom.Rect[In], transform func(typedgeom.Vec[In]) typedgeom.Vec[Out]) typedgeom.Rect[Out] {
	points := resample.New(transform, resample.DefaultEpsilon).Path(rect.Ring())
	bbox, _ := typedgeom.BBoxOf(points)
	return bbox
}

// TransformMultiPolygon resamples and transforms every ring of mp at once.
func TransformMultiPolygon[In, Out any](mp typedgeom.MultiPolygon[In], transform func(typedgeom.Vec[In]) typedgeom.Vec[Out]) typedgeom.MultiPolygon[Out] {
	r := resample.New(transform, resample.DefaultEpsilon)
	out := make(typedgeom.MultiPolygon[Out], len(mp))
	for i, p := range mp {
		out[i] = make(typedgeom.Polygon[Out], len(p))
		for j, ring := range p {
			out[i][j] = r.Path(ring)
		}
	}
	return out
}
