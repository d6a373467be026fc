package regionindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdok/mapstream/typedgeom"
)

func rect(minx, miny, maxx, maxy float64) typedgeom.Rect[typedgeom.LonLat] {
	return typedgeom.NewRect[typedgeom.LonLat](minx, miny, maxx, maxy)
}

func testIndex() *Index {
	idx := New()
	idx.Insert("US", RegionBBox{West: -125, South: 24, East: -66, North: 49})
	idx.Insert("NL", RegionBBox{West: 3.3, South: 50.7, East: 7.2, North: 53.6})
	// Fiji crosses the antimeridian
	idx.Insert("FJ", RegionBBox{West: 177, South: -21, East: -178, North: -12})
	idx.Insert("Null Island", RegionBBox{West: 0, South: 0, East: 0, North: 0})
	return idx
}

func TestSearch(t *testing.T) {
	idx := testIndex()
	tests := []struct {
		name string
		rect typedgeom.Rect[typedgeom.LonLat]
		want []string
	}{
		{name: "western hemisphere north", rect: rect(-180, 0, -1, 90), want: []string{"US"}},
		{name: "eastern hemisphere north", rect: rect(1, 0, 180, 90), want: []string{"NL"}},
		{name: "everywhere", rect: rect(-180, -90, 180, 90), want: []string{"FJ", "NL", "Null Island", "US"}},
		{name: "east of the antimeridian", rect: rect(-179.5, -20, -179, -19), want: []string{"FJ"}},
		{name: "west of the antimeridian", rect: rect(178, -20, 179, -19), want: []string{"FJ"}},
		{name: "a point region", rect: rect(-1, -1, 1, 1), want: []string{"Null Island"}},
		{name: "open ocean", rect: rect(-40, -40, -30, -30), want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Search(tt.rect))
		})
	}
}

func TestInsertMovesAndRemoveDrops(t *testing.T) {
	idx := testIndex()
	assert.Equal(t, 4, idx.Len())

	idx.Insert("NL", RegionBBox{West: -10, South: -10, East: -5, North: -5})
	assert.Equal(t, 4, idx.Len())
	assert.Empty(t, idx.Search(rect(3, 50, 8, 54)))
	assert.Equal(t, []string{"NL"}, idx.Search(rect(-8, -8, -7, -7)))

	idx.Remove("US")
	idx.Remove("unknown")
	assert.Equal(t, []string{"FJ", "NL", "Null Island"}, idx.IDs())
	assert.Empty(t, idx.Search(rect(-100, 30, -90, 40)))
	_, ok := idx.BBox("US")
	assert.False(t, ok)
	b, ok := idx.BBox("FJ")
	assert.True(t, ok)
	assert.Len(t, b.Rects(), 2)
}

func TestRegionBBoxIntersects(t *testing.T) {
	fiji := RegionBBox{West: 177, South: -21, East: -178, North: -12}
	assert.True(t, fiji.Intersects(rect(179, -15, 180, -14)))
	assert.True(t, fiji.Intersects(rect(-180, -15, -179, -14)))
	assert.False(t, fiji.Intersects(rect(0, -15, 10, -14)))
}
