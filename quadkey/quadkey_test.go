package quadkey

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/slippy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/tilematrix"
	"github.com/pdok/mapstream/typedgeom"
)

func TestQuadKeyTile(t *testing.T) {
	tests := []struct {
		key  QuadKey
		want *slippy.Tile
	}{
		{key: "", want: slippy.NewTile(0, 0, 0)},
		{key: "0", want: slippy.NewTile(1, 0, 0)},
		{key: "1", want: slippy.NewTile(1, 1, 0)},
		{key: "2", want: slippy.NewTile(1, 0, 1)},
		{key: "3", want: slippy.NewTile(1, 1, 1)},
		{key: "213", want: slippy.NewTile(3, 3, 5)},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.Tile())
			assert.Equal(t, tt.key, FromTile(tt.want))
			assert.Equal(t, len(tt.key), tt.key.Zoom())
		})
	}
}

func TestParse(t *testing.T) {
	q, err := Parse("0123")
	require.NoError(t, err)
	assert.Equal(t, QuadKey("0123"), q)

	_, err = Parse("0124")
	assert.Error(t, err)
	_, err = Parse("0000000000000000000000000")
	assert.Error(t, err)
}

func TestParentAndChildren(t *testing.T) {
	q := QuadKey("21")
	assert.Equal(t, QuadKey("2"), q.Parent())
	assert.Equal(t, QuadKey(""), QuadKey("").Parent())
	for _, c := range q.Children() {
		assert.Equal(t, q, c.Parent())
		assert.True(t, q.ComputeRect().Contains(c.ComputeRect().Center()))
	}
}

func TestComputeRect(t *testing.T) {
	tests := []struct {
		key  QuadKey
		want typedgeom.Rect[typedgeom.LonLat]
	}{
		{key: "", want: typedgeom.NewRect[typedgeom.LonLat](-180, -90, 180, 90)},
		{key: "0", want: typedgeom.NewRect[typedgeom.LonLat](-180, 0, 0, 90)},
		{key: "1", want: typedgeom.NewRect[typedgeom.LonLat](0, 0, 180, 90)},
		{key: "2", want: typedgeom.NewRect[typedgeom.LonLat](-180, -90, 0, 0)},
		{key: "31", want: typedgeom.NewRect[typedgeom.LonLat](90, -45, 180, 0)},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.ComputeRect())
		})
	}
}

func TestClipRect(t *testing.T) {
	assert.Equal(t, typedgeom.NewRect[typedgeom.LonLat](-202.5, -11.25, 22.5, 101.25), QuadKey("0").ClipRect())
	assert.Equal(t, typedgeom.NewRect[typedgeom.LonLat](78.75, -50.625, 191.25, 5.625), QuadKey("31").ClipRect())
}

func TestCalculateQuadKeys(t *testing.T) {
	tests := []struct {
		name string
		rect typedgeom.Rect[typedgeom.LonLat]
		zoom int
		want mapslicehelp.Set[QuadKey]
	}{
		{
			name: "whole world at zoom 1",
			rect: typedgeom.NewRect[typedgeom.LonLat](-180, -90, 180, 90),
			zoom: 1,
			want: mapslicehelp.NewSet[QuadKey]("0", "1", "2", "3"),
		},
		{
			name: "small box in the north east",
			rect: typedgeom.NewRect[typedgeom.LonLat](10, 10, 20, 20),
			zoom: 2,
			want: mapslicehelp.NewSet[QuadKey]("12"),
		},
		{
			name: "box on the equator",
			rect: typedgeom.NewRect[typedgeom.LonLat](10, -10, 20, 10),
			zoom: 1,
			want: mapslicehelp.NewSet[QuadKey]("1", "3"),
		},
		{
			name: "zoom out of range",
			rect: typedgeom.NewRect[typedgeom.LonLat](10, -10, 20, 10),
			zoom: MaxZoom + 1,
			want: mapslicehelp.NewSet[QuadKey](),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateQuadKeys(tt.rect, tt.zoom)
			assert.Equal(t, tt.want, got)
			for q := range got {
				assert.Equal(t, tt.zoom, q.Zoom())
				assert.True(t, q.ComputeRect().Intersects(tt.rect))
			}
		})
	}
}

func TestCalculateCellKeys(t *testing.T) {
	grid, err := tilematrix.NewQuad("world", geom.Extent{0, 0, 256, 256}, DefaultTilePixelSize, 15, tilematrix.BottomLeft)
	require.NoError(t, err)

	got := CalculateCellKeys(grid, typedgeom.NewRect[typedgeom.World](100, 100, 200, 120), 2)
	assert.Equal(t, mapslicehelp.NewSet[CellKey]("03", "12", "13"), got)

	for c := range got {
		assert.True(t, c.Rect(grid).Intersects(typedgeom.NewRect[typedgeom.World](100, 100, 200, 120)))
	}
	assert.Empty(t, CalculateCellKeys(grid, typedgeom.NewRect[typedgeom.World](0, 0, 10, 10), 16))
}
