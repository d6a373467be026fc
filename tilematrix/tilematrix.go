// Package tilematrix describes quad tile matrix sets in the manner of the OGC Tile Matrix Set standard (v2.0):
// tile matrix z splits a fixed bounding box into 2^z by 2^z equally sized tiles.
// See https://www.ogc.org/standard/tms/
package tilematrix

import (
	"fmt"
	"math"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/slippy"
)

// MaxZoom is the deepest tile matrix a quad set may have, so tile indices fit in 32 bits.
const MaxZoom = 31

type CornerOfOrigin string

const (
	// TopLeft counts rows from the maximum y downwards, for CRSs with y pointing up.
	TopLeft CornerOfOrigin = "topLeft"
	// BottomLeft counts rows from the minimum y upwards.
	// In a y-down plane this puts row 0 at the top of the screen.
	BottomLeft CornerOfOrigin = "bottomLeft"
)

// A 2D Point in the CRS of the tile matrix set
type TwoDPoint [2]float64

func (p TwoDPoint) XY() [2]float64 {
	return p
}

type TileMatrixSet struct {
	// Tile matrix set identifier
	ID string `validate:"required"`
	// Minimum bounding rectangle surrounding the tile matrix set
	BoundingBox geom.Extent
	// Describes scale levels and its tile matrices
	TileMatrices map[uint]TileMatrix `validate:"required,min=1,dive"`
}

// A tile matrix, corresponding to a particular zoom level of a TileMatrixSet.
type TileMatrix struct {
	ID uint
	// The corner of the tile matrix used as the origin for numbering tile rows and columns.
	CornerOfOrigin CornerOfOrigin `default:"topLeft" validate:"oneof=topLeft bottomLeft"`
	// Position of the corner of origin. This position is also a corner of the (0, 0) tile.
	PointOfOrigin TwoDPoint
	// Width of each tile of this tile matrix in pixels
	TileWidth uint `validate:"required,min=1"`
	// Height of each tile of this tile matrix in pixels
	TileHeight uint `validate:"required,min=1"`
	// Width of each tile in CRS units
	TileSpanX float64 `validate:"required,gt=0"`
	// Height of each tile in CRS units
	TileSpanY float64 `validate:"required,gt=0"`
	// Width of the matrix (number of tiles in width)
	MatrixWidth uint `validate:"required,min=1"`
	// Height of the matrix (number of tiles in height)
	MatrixHeight uint `validate:"required,min=1"`
}

// NewQuad builds tile matrices 0 up to and including maxZoom over bbox.
// Every tile is tilePixelSize pixels wide and high, whatever its span in CRS units.
func NewQuad(id string, bbox geom.Extent, tilePixelSize uint, maxZoom uint, corner CornerOfOrigin) (*TileMatrixSet, error) {
	if maxZoom > MaxZoom {
		return nil, fmt.Errorf(`max zoom %v exceeds %v`, maxZoom, MaxZoom)
	}
	if bbox[2] <= bbox[0] || bbox[3] <= bbox[1] {
		return nil, fmt.Errorf(`bounding box %v of tile matrix set %q has no area`, bbox, id)
	}
	origin := TwoDPoint{bbox[0], bbox[3]}
	if corner == BottomLeft {
		origin = TwoDPoint{bbox[0], bbox[1]}
	}

	tms := &TileMatrixSet{
		ID:           id,
		BoundingBox:  bbox,
		TileMatrices: make(map[uint]TileMatrix, maxZoom+1),
	}
	for z := uint(0); z <= maxZoom; z++ {
		var tm TileMatrix
		if err := defaults.Set(&tm); err != nil {
			return nil, err
		}
		count := uint(1) << z
		tm.ID = z
		if corner != "" {
			tm.CornerOfOrigin = corner
		}
		tm.PointOfOrigin = origin
		tm.TileWidth = tilePixelSize
		tm.TileHeight = tilePixelSize
		tm.TileSpanX = (bbox[2] - bbox[0]) / float64(count)
		tm.TileSpanY = (bbox[3] - bbox[1]) / float64(count)
		tm.MatrixWidth = count
		tm.MatrixHeight = count
		tms.TileMatrices[z] = tm
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(tms); err != nil {
		return nil, err
	}
	return tms, nil
}

func (tms *TileMatrixSet) MaxZoom() uint {
	return uint(len(tms.TileMatrices) - 1)
}

func (tms *TileMatrixSet) Size(zoom uint) (*slippy.Tile, bool) {
	tm, ok := tms.TileMatrices[zoom]
	if !ok {
		return nil, false
	}
	return slippy.NewTile(zoom, tm.MatrixWidth, tm.MatrixHeight), true
}

// position returns the fractional column and row of pt.
func (tm TileMatrix) position(pt geom.Point) (float64, float64) {
	col := (pt.X() - tm.PointOfOrigin.XY()[0]) / tm.TileSpanX
	var row float64
	switch tm.CornerOfOrigin {
	default:
		fallthrough
	case TopLeft:
		row = (tm.PointOfOrigin.XY()[1] - pt.Y()) / tm.TileSpanY
	case BottomLeft:
		row = (pt.Y() - tm.PointOfOrigin.XY()[1]) / tm.TileSpanY
	}
	return col, row
}

// FromNative returns the tile containing pt, false if pt lies outside of the matrix.
func (tms *TileMatrixSet) FromNative(zoom uint, pt geom.Point) (*slippy.Tile, bool) {
	tm, ok := tms.TileMatrices[zoom]
	if !ok {
		return nil, false
	}
	col, row := tm.position(pt)
	x := math.Floor(col)
	y := math.Floor(row)
	if x < 0 || y < 0 || x >= float64(tm.MatrixWidth) || y >= float64(tm.MatrixHeight) {
		return nil, false
	}
	return slippy.NewTile(zoom, uint(x), uint(y)), true
}

// TileExtent returns the area covered by tile.
func (tms *TileMatrixSet) TileExtent(tile *slippy.Tile) (geom.Extent, bool) {
	tm, ok := tms.TileMatrices[tile.Z]
	if !ok {
		return geom.Extent{}, false
	}
	if tile.X >= tm.MatrixWidth || tile.Y >= tm.MatrixHeight {
		return geom.Extent{}, false
	}

	minX := tm.PointOfOrigin.XY()[0] + float64(tile.X)*tm.TileSpanX
	var minY float64
	switch tm.CornerOfOrigin {
	default:
		fallthrough
	case TopLeft:
		minY = tm.PointOfOrigin.XY()[1] - float64(tile.Y+1)*tm.TileSpanY
	case BottomLeft:
		minY = tm.PointOfOrigin.XY()[1] + float64(tile.Y)*tm.TileSpanY
	}
	return geom.Extent{minX, minY, minX + tm.TileSpanX, minY + tm.TileSpanY}, true
}

// TilesInExtent returns the minimal set of tiles covering the part of ext that overlaps the matrix, row by row.
// An edge of ext that coincides with a tile border does not pull in the neighbouring tile.
func (tms *TileMatrixSet) TilesInExtent(zoom uint, ext geom.Extent) []*slippy.Tile {
	tm, ok := tms.TileMatrices[zoom]
	if !ok {
		return nil
	}
	bbox := tms.BoundingBox
	if ext[2] < bbox[0] || ext[0] > bbox[2] || ext[3] < bbox[1] || ext[1] > bbox[3] {
		return nil
	}

	c1, r1 := tm.position(geom.Point{ext[0], ext[1]})
	c2, r2 := tm.position(geom.Point{ext[2], ext[3]})
	minX, maxX := tileRange(math.Min(c1, c2), math.Max(c1, c2), tm.MatrixWidth)
	minY, maxY := tileRange(math.Min(r1, r2), math.Max(r1, r2), tm.MatrixHeight)

	tiles := make([]*slippy.Tile, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			tiles = append(tiles, slippy.NewTile(zoom, x, y))
		}
	}
	return tiles
}

func tileRange(lo, hi float64, count uint) (uint, uint) {
	first := math.Floor(lo)
	last := math.Ceil(hi) - 1
	if last < first {
		last = first
	}
	first = math.Max(0, math.Min(first, float64(count-1)))
	last = math.Max(0, math.Min(last, float64(count-1)))
	return uint(first), uint(last)
}
