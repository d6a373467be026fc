// Package fragment caches and fetches the geometry of regions, one quad tile at a time.
package fragment

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/quadkey"
	"github.com/pdok/mapstream/typedgeom"
)

// Key identifies the geometry of one region within one quad.
type Key struct {
	RegionID string
	QuadKey  quadkey.QuadKey
}

func NewKey(regionID string, q quadkey.QuadKey) Key {
	return Key{RegionID: regionID, QuadKey: q}
}

func (k Key) String() string {
	return fmt.Sprintf("%v/%v", k.RegionID, k.QuadKey)
}

// Fragment is the part of a region that lies within a quad.
// A nil Geometry means the region has nothing in that quad.
type Fragment struct {
	QuadKey  quadkey.QuadKey
	Geometry typedgeom.MultiPolygon[typedgeom.LonLat]
}

// Empty returns the fragment of a quad without geometry.
func Empty(q quadkey.QuadKey) Fragment {
	return Fragment{QuadKey: q}
}

func (f Fragment) IsEmpty() bool {
	return f.Geometry.IsEmpty()
}

// GeocodingRequest asks for the fragments of every region in the given quads.
type GeocodingRequest struct {
	RegionIDs     []string
	TilesByRegion map[string]mapslicehelp.Set[quadkey.QuadKey]
}

// GeocodedFeature is the answer for one region.
// Fragments of requested quads that are left out are empty.
type GeocodedFeature struct {
	ID        string
	Fragments []Fragment
}

// GeocodingService resolves the boundaries of regions, cut into quads.
type GeocodingService interface {
	Execute(ctx context.Context, request GeocodingRequest) ([]GeocodedFeature, error)
}

// ErrServiceUnavailable is returned by services that cannot answer right now.
var ErrServiceUnavailable = errors.New("geocoding service unavailable")
