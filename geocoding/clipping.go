// Package geocoding provides geocoding services that cut region boundaries into quad fragments,
// either on the fly from boundaries held in memory or from a GeoPackage tiled in advance.
package geocoding

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/geojson"

	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/geomhelp"
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/quadkey"
	"github.com/pdok/mapstream/regionindex"
	"github.com/pdok/mapstream/typedgeom"
)

// ClippingService clips boundaries held in memory to the clip rect of every requested quad.
type ClippingService struct {
	boundaries map[string]orb.MultiPolygon
	// Delay is added to every request, to mimic a remote service.
	Delay time.Duration
}

func NewClippingService(boundaries map[string]orb.MultiPolygon) *ClippingService {
	return &ClippingService{boundaries: boundaries}
}

// Execute leaves out regions it does not know and quads a region does not reach.
func (s *ClippingService) Execute(ctx context.Context, request fragment.GeocodingRequest) ([]fragment.GeocodedFeature, error) {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	var features []fragment.GeocodedFeature
	for _, id := range request.RegionIDs {
		boundary, ok := s.boundaries[id]
		if !ok {
			continue
		}
		feature := fragment.GeocodedFeature{ID: id}
		for _, q := range mapslicehelp.SortedKeys(request.TilesByRegion[id]) {
			if f, ok := Clip(boundary, q); ok {
				feature.Fragments = append(feature.Fragments, f)
			}
		}
		features = append(features, feature)
	}
	return features, nil
}

// BBoxes returns the bounding box of every boundary.
func (s *ClippingService) BBoxes() map[string]regionindex.RegionBBox {
	bboxes := make(map[string]regionindex.RegionBBox, len(s.boundaries))
	for id, mp := range s.boundaries {
		b := mp.Bound()
		bboxes[id] = regionindex.RegionBBox{West: b.Min.X(), South: b.Min.Y(), East: b.Max.X(), North: b.Max.Y()}
	}
	return bboxes
}

// Clip cuts the fragment of q out of boundary, false when nothing is left.
func Clip(boundary orb.MultiPolygon, q quadkey.QuadKey) (fragment.Fragment, bool) {
	r := q.ClipRect()
	bound := orb.Bound{Min: orb.Point{r.MinX(), r.MinY()}, Max: orb.Point{r.MaxX(), r.MaxY()}}
	if !bound.Intersects(boundary.Bound()) {
		return fragment.Fragment{}, false
	}
	clipped := clip.MultiPolygon(bound, boundary.Clone())
	if len(clipped) == 0 {
		return fragment.Fragment{}, false
	}
	geometry := fromOrb(clipped)
	// a boundary touching the clip rect leaves rings without area
	if geomhelp.MultiPolygonArea(geometry.ToGeom()) == 0 {
		return fragment.Fragment{}, false
	}
	return fragment.Fragment{QuadKey: q, Geometry: geometry}, true
}

func fromOrb(mp orb.MultiPolygon) typedgeom.MultiPolygon[typedgeom.LonLat] {
	out := make(typedgeom.MultiPolygon[typedgeom.LonLat], 0, len(mp))
	for _, p := range mp {
		poly := make(typedgeom.Polygon[typedgeom.LonLat], 0, len(p))
		for _, r := range p {
			ring := make(typedgeom.Ring[typedgeom.LonLat], len(r))
			for i, pt := range r {
				ring[i] = typedgeom.Vec[typedgeom.LonLat](pt)
			}
			poly = append(poly, ring)
		}
		out = append(out, poly)
	}
	return out
}

// LoadGeoJSON reads the polygons of a feature collection, grouped by the idProperty of their feature.
func LoadGeoJSON(path string, idProperty string) (map[string]orb.MultiPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(`reading %v: %w`, path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf(`parsing %v: %w`, path, err)
	}

	boundaries := make(map[string]orb.MultiPolygon)
	for i, f := range fc.Features {
		id, ok := f.Properties[idProperty].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf(`feature %v of %v has no string property %q`, i, path, idProperty)
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			boundaries[id] = append(boundaries[id], g)
		case orb.MultiPolygon:
			boundaries[id] = append(boundaries[id], g...)
		default:
			return nil, fmt.Errorf(`feature %q of %v is a %T, expected a (multi)polygon`, id, path, f.Geometry)
		}
	}
	return boundaries, nil
}
