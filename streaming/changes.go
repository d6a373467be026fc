package streaming

import (
	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/projection"
	"github.com/pdok/mapstream/quadkey"
	"github.com/pdok/mapstream/regionindex"
	"github.com/pdok/mapstream/viewport"
)

// maxCellMemo bounds the remembered cell to quads conversions.
const maxCellMemo = 4096

// ChangeDetection finds the fragments that became wanted or obsolete since the previous tick.
type ChangeDetection struct {
	viewport   *viewport.Viewport
	projection projection.MapProjection
	index      *regionindex.Index
	empty      *EmptyFragments

	grid    *GridState
	changed *ChangedFragments

	quadsByCell map[quadkey.CellKey]mapslicehelp.Set[quadkey.QuadKey]
}

func NewChangeDetection(vp *viewport.Viewport, mp projection.MapProjection, index *regionindex.Index,
	empty *EmptyFragments, grid *GridState, changed *ChangedFragments) *ChangeDetection {
	return &ChangeDetection{
		viewport:    vp,
		projection:  mp,
		index:       index,
		empty:       empty,
		grid:        grid,
		changed:     changed,
		quadsByCell: make(map[quadkey.CellKey]mapslicehelp.Set[quadkey.QuadKey]),
	}
}

// Update refreshes the grid state and diffs the wanted fragments against the previous tick.
// A fragment is wanted when its quad is visible and its region's bbox intersects the quad.
// Known empty fragments are never wanted, and a fragment turning out empty is not obsolete.
func (c *ChangeDetection) Update() {
	zoom := c.viewport.Zoom()
	cells := c.viewport.VisibleCells(zoom)
	quads := make(mapslicehelp.Set[quadkey.QuadKey])
	for cell := range cells {
		quads.AddAll(c.cellQuads(cell))
	}
	*c.grid = GridState{Zoom: zoom, VisibleCells: cells, VisibleQuads: quads}

	candidates := make(keySet)
	for q := range quads {
		for _, regionID := range c.index.Search(q.ComputeRect()) {
			candidates.Add(fragment.NewKey(regionID, q))
		}
	}
	wanted := make(keySet, len(candidates))
	for key := range candidates {
		if !c.empty.Contains(key) {
			wanted.Add(key)
		}
	}

	c.changed.Requested = mapslicehelp.Difference(wanted, c.changed.Wanted)
	c.changed.Obsolete = mapslicehelp.Difference(c.changed.Wanted, candidates)
	c.changed.Wanted = wanted
}

func (c *ChangeDetection) cellQuads(cell quadkey.CellKey) mapslicehelp.Set[quadkey.QuadKey] {
	if quads, ok := c.quadsByCell[cell]; ok {
		return quads
	}
	if len(c.quadsByCell) >= maxCellMemo {
		clear(c.quadsByCell)
	}
	quads := c.viewport.CellToQuadKeys(c.projection, cell)
	c.quadsByCell[cell] = quads
	return quads
}
