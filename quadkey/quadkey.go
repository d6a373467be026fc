// Package quadkey names quadtree tiles by their path from the root:
// one digit per zoom level, so the length of a key is its zoom.
//
// A QuadKey addresses geographic tiles over longitude [-180, 180] and latitude [-90, 90].
// A CellKey addresses screen tiles over the world plane of a map.
// Both are built the same way but live in different namespaces.
package quadkey

import (
	"fmt"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/slippy"

	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/morton"
	"github.com/pdok/mapstream/tilematrix"
	"github.com/pdok/mapstream/typedgeom"
)

// MaxZoom is the deepest key that can be computed.
const MaxZoom = 24

// DefaultTilePixelSize is the size in pixels of a tile on screen.
const DefaultTilePixelSize = 256

var geographic = mustGeographic()

func mustGeographic() *tilematrix.TileMatrixSet {
	tms, err := tilematrix.NewQuad("geographic", geom.Extent{-180, -90, 180, 90}, DefaultTilePixelSize, MaxZoom, tilematrix.TopLeft)
	if err != nil {
		panic(fmt.Errorf(`cannot build geographic quad tile matrix set: %w`, err))
	}
	return tms
}

type QuadKey string

// FromTile returns the key of a geographic tile.
func FromTile(tile *slippy.Tile) QuadKey {
	return QuadKey(path(tile))
}

// Parse validates s as a key.
func Parse(s string) (QuadKey, error) {
	if len(s) > MaxZoom {
		return "", fmt.Errorf(`quad key %q is deeper than %v`, s, MaxZoom)
	}
	if _, err := morton.FromDigits(s); err != nil {
		return "", err
	}
	return QuadKey(s), nil
}

func (q QuadKey) Zoom() int {
	return len(q)
}

func (q QuadKey) String() string {
	return string(q)
}

// Parent returns the key one level up, the root stays the root.
func (q QuadKey) Parent() QuadKey {
	if len(q) == 0 {
		return q
	}
	return q[:len(q)-1]
}

func (q QuadKey) Children() [4]QuadKey {
	return [4]QuadKey{q + "0", q + "1", q + "2", q + "3"}
}

// Tile returns the column and row of q, counted from the north west corner.
func (q QuadKey) Tile() *slippy.Tile {
	return tile(string(q))
}

// ComputeRect returns the geographic area q covers.
func (q QuadKey) ComputeRect() typedgeom.Rect[typedgeom.LonLat] {
	ext, ok := geographic.TileExtent(q.Tile())
	if !ok {
		panic(fmt.Errorf(`quad key %q is outside of the geographic tile matrix set`, q))
	}
	return typedgeom.RectFromGeomExtent[typedgeom.LonLat](ext)
}

// ClipRect is the rect the geometry of q is clipped to: ComputeRect grown by an eighth of its size on every side.
// The margin keeps the clip edges of a fragment out of sight.
func (q QuadKey) ClipRect() typedgeom.Rect[typedgeom.LonLat] {
	r := q.ComputeRect()
	return r.Inflate(r.Dimension().Mul(1. / 8))
}

// CalculateQuadKeys returns the keys of all tiles at zoom that cover rect.
func CalculateQuadKeys(rect typedgeom.Rect[typedgeom.LonLat], zoom int) mapslicehelp.Set[QuadKey] {
	keys := make(mapslicehelp.Set[QuadKey])
	if zoom < 0 || zoom > MaxZoom {
		return keys
	}
	for _, t := range geographic.TilesInExtent(uint(zoom), rect.ToGeomExtent()) {
		keys.Add(FromTile(t))
	}
	return keys
}

func path(t *slippy.Tile) string {
	return morton.Digits(morton.ToZ(uint32(t.X), uint32(t.Y)), t.Z)
}

func tile(p string) *slippy.Tile {
	z, err := morton.FromDigits(p)
	if err != nil {
		panic(fmt.Errorf(`malformed key: %w`, err))
	}
	x, y := morton.FromZ(z)
	return slippy.NewTile(uint(len(p)), uint(x), uint(y))
}
