package quadkey

import (
	"fmt"

	"github.com/go-spatial/geom/slippy"

	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/tilematrix"
	"github.com/pdok/mapstream/typedgeom"
)

// CellKey identifies a screen tile of the world plane.
type CellKey string

func CellFromTile(t *slippy.Tile) CellKey {
	return CellKey(path(t))
}

func (c CellKey) Zoom() int {
	return len(c)
}

func (c CellKey) String() string {
	return string(c)
}

func (c CellKey) Tile() *slippy.Tile {
	return tile(string(c))
}

// Rect returns the world area c covers on grid.
func (c CellKey) Rect(grid *tilematrix.TileMatrixSet) typedgeom.Rect[typedgeom.World] {
	ext, ok := grid.TileExtent(c.Tile())
	if !ok {
		panic(fmt.Errorf(`cell key %q is outside of tile matrix set %q`, c, grid.ID))
	}
	return typedgeom.RectFromGeomExtent[typedgeom.World](ext)
}

// CalculateCellKeys returns the keys of all cells at zoom that cover viewRect.
// The part of viewRect outside of the grid is ignored.
func CalculateCellKeys(grid *tilematrix.TileMatrixSet, viewRect typedgeom.Rect[typedgeom.World], zoom int) mapslicehelp.Set[CellKey] {
	keys := make(mapslicehelp.Set[CellKey])
	if zoom < 0 || uint(zoom) > grid.MaxZoom() {
		return keys
	}
	for _, t := range grid.TilesInExtent(uint(zoom), viewRect.ToGeomExtent()) {
		keys.Add(CellFromTile(t))
	}
	return keys
}
