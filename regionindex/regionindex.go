// Package regionindex finds the regions whose bounding box overlaps a geographic rectangle.
package regionindex

import (
	"fmt"

	"github.com/dhconnelly/rtreego"

	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/typedgeom"
)

// minLength keeps degenerate boxes, like the one of a point, in the tree.
const minLength = 1e-9

// RegionBBox is the geographic extent of a region in degrees.
// A West greater than East means the box crosses the antimeridian.
type RegionBBox struct {
	West  float64 `json:"west" validate:"gte=-180,lte=180"`
	South float64 `json:"south" validate:"gte=-90,lte=90"`
	East  float64 `json:"east" validate:"gte=-180,lte=180"`
	North float64 `json:"north" validate:"gte=-90,lte=90,gtefield=South"`
}

// Rects returns b as one rect, or as two when it crosses the antimeridian.
func (b RegionBBox) Rects() []typedgeom.Rect[typedgeom.LonLat] {
	return typedgeom.SplitAtAntimeridian(b.West, b.South, b.East, b.North)
}

func (b RegionBBox) Intersects(r typedgeom.Rect[typedgeom.LonLat]) bool {
	for _, part := range b.Rects() {
		if part.Intersects(r) {
			return true
		}
	}
	return false
}

type entry struct {
	id   string
	rect typedgeom.Rect[typedgeom.LonLat]
}

func (e entry) Bounds() rtreego.Rect {
	return toRtree(e.rect)
}

func toRtree(r typedgeom.Rect[typedgeom.LonLat]) rtreego.Rect {
	point := rtreego.Point{r.MinX(), r.MinY()}
	lengths := []float64{max(r.Width(), minLength), max(r.Height(), minLength)}
	rect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		panic(fmt.Errorf(`cannot index %v: %w`, r, err))
	}
	return rect
}

// Index is an R-tree over region bounding boxes. It is not safe for concurrent use.
type Index struct {
	bboxes map[string]RegionBBox
	tree   *rtreego.Rtree
}

func New() *Index {
	return &Index{
		bboxes: make(map[string]RegionBBox),
		tree:   rtreego.NewTree(2, 25, 50),
	}
}

// Insert adds a region, or moves it when it was already indexed.
func (idx *Index) Insert(id string, bbox RegionBBox) {
	if _, ok := idx.bboxes[id]; ok {
		idx.bboxes[id] = bbox
		idx.rebuild()
		return
	}
	idx.bboxes[id] = bbox
	idx.insert(id, bbox)
}

func (idx *Index) insert(id string, bbox RegionBBox) {
	for _, part := range bbox.Rects() {
		idx.tree.Insert(entry{id: id, rect: part})
	}
}

func (idx *Index) Remove(id string) {
	if _, ok := idx.bboxes[id]; !ok {
		return
	}
	delete(idx.bboxes, id)
	idx.rebuild()
}

func (idx *Index) rebuild() {
	idx.tree = rtreego.NewTree(2, 25, 50)
	for _, id := range mapslicehelp.SortedKeys(idx.bboxes) {
		idx.insert(id, idx.bboxes[id])
	}
}

func (idx *Index) BBox(id string) (RegionBBox, bool) {
	b, ok := idx.bboxes[id]
	return b, ok
}

func (idx *Index) Len() int {
	return len(idx.bboxes)
}

// IDs returns all indexed regions, sorted.
func (idx *Index) IDs() []string {
	return mapslicehelp.SortedKeys(idx.bboxes)
}

// Search returns the sorted ids of the regions whose bounding box overlaps rect.
func (idx *Index) Search(rect typedgeom.Rect[typedgeom.LonLat]) []string {
	found := make(mapslicehelp.Set[string])
	for _, s := range idx.tree.SearchIntersect(toRtree(rect)) {
		e := s.(entry)
		if e.rect.Intersects(rect) {
			found.Add(e.id)
		}
	}
	return mapslicehelp.SortedKeys(found)
}
