package geocoding

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/quadkey"
	"github.com/pdok/mapstream/regionindex"
	"github.com/pdok/mapstream/typedgeom"
)

func square(minx, miny, maxx, maxy float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{minx, miny}, {maxx, miny}, {maxx, maxy}, {minx, maxy}, {minx, miny}}}
}

func request(tiles map[string][]quadkey.QuadKey) fragment.GeocodingRequest {
	r := fragment.GeocodingRequest{TilesByRegion: make(map[string]mapslicehelp.Set[quadkey.QuadKey])}
	for id, qs := range tiles {
		r.TilesByRegion[id] = mapslicehelp.NewSet(qs...)
	}
	r.RegionIDs = mapslicehelp.SortedKeys(r.TilesByRegion)
	return r
}

func TestLoadGeoJSON(t *testing.T) {
	boundaries, err := LoadGeoJSON(filepath.Join("testdata", "regions.geojson"), "id")
	require.NoError(t, err)
	require.Len(t, boundaries, 2)
	assert.Len(t, boundaries["A"], 1)
	assert.Len(t, boundaries["B"], 3)

	_, err = LoadGeoJSON(filepath.Join("testdata", "regions.geojson"), "name")
	assert.Error(t, err)
	_, err = LoadGeoJSON(filepath.Join("testdata", "missing.geojson"), "id")
	assert.Error(t, err)
}

func TestClip(t *testing.T) {
	boundary := orb.MultiPolygon{square(10, 10, 30, 30)}
	tests := []struct {
		name     string
		quad     quadkey.QuadKey
		wantOK   bool
		wantBBox typedgeom.Rect[typedgeom.LonLat]
	}{
		// "1" spans 0..180 by 0..90, so the square fits as a whole
		{name: "inside", quad: "1", wantOK: true, wantBBox: typedgeom.NewRect[typedgeom.LonLat](10, 10, 30, 30)},
		// "120" spans 0..45 by 22.5..45, its clip rect reaches 2.8125 further south
		{name: "cut by the clip rect", quad: "120", wantOK: true, wantBBox: typedgeom.NewRect[typedgeom.LonLat](10, 19.6875, 30, 30)},
		// the clip rect of "2" overlaps the corner of the square
		{name: "in the margin", quad: "2", wantOK: true, wantBBox: typedgeom.NewRect[typedgeom.LonLat](10, 10, 22.5, 11.25)},
		{name: "far away", quad: "20", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Clip(boundary, tt.quad)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.quad, f.QuadKey)
			bbox, ok := f.Geometry.BBox()
			require.True(t, ok)
			assert.InDeltaSlice(t, tt.wantBBox[:], bbox[:], 1e-9)
		})
	}
	// the source is left alone
	assert.Equal(t, orb.MultiPolygon{square(10, 10, 30, 30)}, boundary)

	// the clip rect of "0" ends at 22.5 east, where this square starts
	_, ok := Clip(orb.MultiPolygon{square(22.5, 10, 30, 20)}, "0")
	assert.False(t, ok)
}

func TestClippingService(t *testing.T) {
	s := NewClippingService(map[string]orb.MultiPolygon{
		"A": {square(10, 10, 30, 30)},
		"B": {square(-100, -40, -80, -20)},
	})

	features, err := s.Execute(context.Background(), request(map[string][]quadkey.QuadKey{
		"A":       {"1", "20"},
		"B":       {"2"},
		"unknown": {"0"},
	}))
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "A", features[0].ID)
	require.Len(t, features[0].Fragments, 1)
	assert.Equal(t, quadkey.QuadKey("1"), features[0].Fragments[0].QuadKey)
	assert.Equal(t, "B", features[1].ID)
	require.Len(t, features[1].Fragments, 1)

	assert.Equal(t, map[string]regionindex.RegionBBox{
		"A": {West: 10, South: 10, East: 30, North: 30},
		"B": {West: -100, South: -40, East: -80, North: -20},
	}, s.BBoxes())
}

func TestClippingServiceDelayHonoursContext(t *testing.T) {
	s := NewClippingService(nil)
	s.Delay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Execute(ctx, request(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeoPackageRoundTrip(t *testing.T) {
	source := NewClippingService(map[string]orb.MultiPolygon{
		"A": {square(10, 10, 30, 30)},
		"B": {square(-100, -40, -80, -20)},
	})
	path := filepath.Join(t.TempDir(), "fragments.gpkg")
	written, err := WriteGeoPackage(context.Background(), path, source, 0, 3, 4)
	require.NoError(t, err)
	assert.Positive(t, written)

	s, err := OpenGeoPackage(path)
	require.NoError(t, err)
	defer s.Close()

	bboxes, err := s.BBoxes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, source.BBoxes(), bboxes)

	r := request(map[string][]quadkey.QuadKey{"A": {"1", "120", "20"}, "B": {"2"}})
	want, err := source.Execute(context.Background(), r)
	require.NoError(t, err)
	got, err := s.Execute(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		require.Len(t, got[i].Fragments, len(want[i].Fragments))
		for j := range want[i].Fragments {
			assert.Equal(t, want[i].Fragments[j].QuadKey, got[i].Fragments[j].QuadKey)
			assert.Equal(t, want[i].Fragments[j].Geometry.PointCount(), got[i].Fragments[j].Geometry.PointCount())
		}
	}
}
