package tilematrix

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/slippy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geographic(t *testing.T) *TileMatrixSet {
	t.Helper()
	tms, err := NewQuad("geographic", geom.Extent{-180, -90, 180, 90}, 256, 10, TopLeft)
	require.NoError(t, err)
	return tms
}

func world(t *testing.T) *TileMatrixSet {
	t.Helper()
	tms, err := NewQuad("world", geom.Extent{0, 0, 256, 256}, 256, 10, BottomLeft)
	require.NoError(t, err)
	return tms
}

func TestNewQuad(t *testing.T) {
	tms := geographic(t)
	assert.Equal(t, uint(10), tms.MaxZoom())

	tm := tms.TileMatrices[3]
	assert.Equal(t, uint(8), tm.MatrixWidth)
	assert.Equal(t, uint(8), tm.MatrixHeight)
	assert.Equal(t, 45.0, tm.TileSpanX)
	assert.Equal(t, 22.5, tm.TileSpanY)
	assert.Equal(t, TopLeft, tm.CornerOfOrigin)

	size, ok := tms.Size(3)
	require.True(t, ok)
	assert.Equal(t, slippy.NewTile(3, 8, 8), size)
}

func TestNewQuadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		bbox    geom.Extent
		tile    uint
		maxZoom uint
	}{
		{name: "no area", bbox: geom.Extent{0, 0, 0, 10}, tile: 256, maxZoom: 1},
		{name: "zero tile size", bbox: geom.Extent{0, 0, 10, 10}, tile: 0, maxZoom: 1},
		{name: "too deep", bbox: geom.Extent{0, 0, 10, 10}, tile: 256, maxZoom: MaxZoom + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuad(tt.name, tt.bbox, tt.tile, tt.maxZoom, TopLeft)
			require.Error(t, err)
		})
	}
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		name   string
		tms    *TileMatrixSet
		zoom   uint
		pt     geom.Point
		want   *slippy.Tile
		wantOK bool
	}{
		{name: "north west quadrant", tms: geographic(t), zoom: 1, pt: geom.Point{-10, 10}, want: slippy.NewTile(1, 0, 0), wantOK: true},
		{name: "south east quadrant", tms: geographic(t), zoom: 1, pt: geom.Point{10, -10}, want: slippy.NewTile(1, 1, 1), wantOK: true},
		{name: "outside", tms: geographic(t), zoom: 1, pt: geom.Point{-190, 0}, wantOK: false},
		{name: "slightly west of origin", tms: world(t), zoom: 2, pt: geom.Point{-0.5, 10}, wantOK: false},
		{name: "world rows start at the top", tms: world(t), zoom: 2, pt: geom.Point{200, 10}, want: slippy.NewTile(2, 3, 0), wantOK: true},
		{name: "unknown zoom", tms: world(t), zoom: 11, pt: geom.Point{1, 1}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.tms.FromNative(tt.zoom, tt.pt)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTileExtent(t *testing.T) {
	got, ok := geographic(t).TileExtent(slippy.NewTile(1, 1, 0))
	require.True(t, ok)
	assert.Equal(t, geom.Extent{0, 0, 180, 90}, got)

	got, ok = world(t).TileExtent(slippy.NewTile(2, 1, 3))
	require.True(t, ok)
	assert.Equal(t, geom.Extent{64, 192, 128, 256}, got)

	_, ok = world(t).TileExtent(slippy.NewTile(2, 4, 0))
	assert.False(t, ok)
}

func TestTilesInExtent(t *testing.T) {
	tests := []struct {
		name string
		zoom uint
		ext  geom.Extent
		want []*slippy.Tile
	}{
		{
			name: "exactly one tile",
			zoom: 1,
			ext:  geom.Extent{0, 0, 128, 128},
			want: []*slippy.Tile{slippy.NewTile(1, 0, 0)},
		},
		{
			name: "straddling a border",
			zoom: 1,
			ext:  geom.Extent{100, 10, 150, 20},
			want: []*slippy.Tile{slippy.NewTile(1, 0, 0), slippy.NewTile(1, 1, 0)},
		},
		{
			name: "clamped to the matrix",
			zoom: 1,
			ext:  geom.Extent{-50, 120, 10, 300},
			want: []*slippy.Tile{slippy.NewTile(1, 0, 0), slippy.NewTile(1, 0, 1)},
		},
		{
			name: "degenerate",
			zoom: 2,
			ext:  geom.Extent{64, 64, 64, 64},
			want: []*slippy.Tile{slippy.NewTile(2, 1, 1)},
		},
		{
			name: "disjoint",
			zoom: 2,
			ext:  geom.Extent{300, 0, 400, 10},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, world(t).TilesInExtent(tt.zoom, tt.ext))
		})
	}
}
