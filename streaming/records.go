package streaming

import (
	"cmp"
	"slices"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/quadkey"
	"github.com/pdok/mapstream/regionindex"
	"github.com/pdok/mapstream/typedgeom"
)

const (
	// DefaultEmptyQuadsPerRegion bounds the known empty quads remembered for one region.
	DefaultEmptyQuadsPerRegion = 50000
	// DefaultEmptyRegions bounds the regions that have known empty quads.
	DefaultEmptyRegions = 5000
)

type keySet = mapslicehelp.Set[fragment.Key]

// GridState is what the viewport shows in the current tick.
type GridState struct {
	Zoom         int
	VisibleCells mapslicehelp.Set[quadkey.CellKey]
	VisibleQuads mapslicehelp.Set[quadkey.QuadKey]
}

// ChangedFragments holds the outcome of change detection for the current tick.
type ChangedFragments struct {
	// Wanted are all fragments the viewport needs right now, known empty ones excluded.
	Wanted keySet
	// Requested became wanted in this tick.
	Requested keySet
	// Obsolete stopped being wanted in this tick.
	Obsolete keySet
}

func newChangedFragments() *ChangedFragments {
	return &ChangedFragments{Wanted: make(keySet), Requested: make(keySet), Obsolete: make(keySet)}
}

// AnyChanges reports whether this tick requested or dropped anything.
func (c *ChangedFragments) AnyChanges() bool {
	return len(c.Requested) > 0 || len(c.Obsolete) > 0
}

// DownloadingFragments tracks the fragments between being requested and being downloaded.
// Only the delivery of responses is safe for concurrent use, everything else belongs to the tick loop.
type DownloadingFragments struct {
	// zoom -> keys, oldest first
	queue       map[int]*orderedmap.OrderedMap[fragment.Key, struct{}]
	downloading keySet
	// drained from the response buffer in the current tick
	downloaded map[fragment.Key]fragment.Fragment
	failed     keySet

	mu        sync.Mutex
	responses map[fragment.Key]fragment.Fragment
	failures  keySet
}

func newDownloadingFragments() *DownloadingFragments {
	return &DownloadingFragments{
		queue:       make(map[int]*orderedmap.OrderedMap[fragment.Key, struct{}]),
		downloading: make(keySet),
		downloaded:  make(map[fragment.Key]fragment.Fragment),
		failed:      make(keySet),
		responses:   make(map[fragment.Key]fragment.Fragment),
		failures:    make(keySet),
	}
}

// ZoomQueue returns the queued keys of zoom, oldest first.
func (d *DownloadingFragments) ZoomQueue(zoom int) []fragment.Key {
	q, ok := d.queue[zoom]
	if !ok {
		return nil
	}
	return mapslicehelp.OrderedMapKeys(q)
}

// Queued returns the number of queued keys over all zooms.
func (d *DownloadingFragments) Queued() int {
	n := 0
	for _, q := range d.queue {
		n += q.Len()
	}
	return n
}

func (d *DownloadingFragments) IsQueued(key fragment.Key) bool {
	q, ok := d.queue[key.QuadKey.Zoom()]
	if !ok {
		return false
	}
	_, present := q.Get(key)
	return present
}

func (d *DownloadingFragments) extendQueue(keys keySet) {
	// sorted, so keys requested in the same tick are downloaded in a stable order
	for _, key := range sortedKeys(keys) {
		zoom := key.QuadKey.Zoom()
		q, ok := d.queue[zoom]
		if !ok {
			q = orderedmap.New[fragment.Key, struct{}]()
			d.queue[zoom] = q
		}
		q.Set(key, struct{}{})
	}
}

// reduceQueue removes keys from the queue and returns the ones that were queued.
func (d *DownloadingFragments) reduceQueue(keys keySet) keySet {
	removed := make(keySet)
	for key := range keys {
		q, ok := d.queue[key.QuadKey.Zoom()]
		if !ok {
			continue
		}
		if _, present := q.Delete(key); present {
			removed.Add(key)
		}
		if q.Len() == 0 {
			delete(d.queue, key.QuadKey.Zoom())
		}
	}
	return removed
}

// popQueue removes and returns up to n of the oldest keys queued for zoom.
func (d *DownloadingFragments) popQueue(zoom, n int) []fragment.Key {
	q, ok := d.queue[zoom]
	if !ok {
		return nil
	}
	popped := mapslicehelp.PopOldest(q, n)
	if q.Len() == 0 {
		delete(d.queue, zoom)
	}
	return popped
}

// Downloading returns the keys that are part of a request in flight.
func (d *DownloadingFragments) Downloading() keySet {
	return d.downloading
}

// Downloaded returns the responses drained in the current tick.
func (d *DownloadingFragments) Downloaded() map[fragment.Key]fragment.Fragment {
	return d.downloaded
}

// Failed returns the keys whose request failed, drained in the current tick.
func (d *DownloadingFragments) Failed() keySet {
	return d.failed
}

// deliver buffers the response of a request. It may be called from any goroutine.
func (d *DownloadingFragments) deliver(fragments map[fragment.Key]fragment.Fragment) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, f := range fragments {
		d.responses[key] = f
	}
}

// fail buffers the keys of a failed request. It may be called from any goroutine.
func (d *DownloadingFragments) fail(keys []fragment.Key) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, key := range keys {
		d.failures.Add(key)
	}
}

// drain moves the buffered responses and failures into the current tick.
func (d *DownloadingFragments) drain() {
	d.mu.Lock()
	responses, failures := d.responses, d.failures
	d.responses = make(map[fragment.Key]fragment.Fragment)
	d.failures = make(keySet)
	d.mu.Unlock()

	d.downloaded = responses
	d.failed = failures
	for key := range responses {
		d.downloading.Remove(key)
	}
	for key := range failures {
		d.downloading.Remove(key)
	}
}

// StreamingFragments are the fragments that are queued, downloading or being reprojected.
type StreamingFragments struct {
	keys keySet
}

func newStreamingFragments() *StreamingFragments {
	return &StreamingFragments{keys: make(keySet)}
}

func (s *StreamingFragments) Contains(key fragment.Key) bool {
	return s.keys.Contains(key)
}

func (s *StreamingFragments) Keys() keySet {
	return s.keys
}

func (s *StreamingFragments) Len() int {
	return len(s.keys)
}

func (s *StreamingFragments) add(key fragment.Key) {
	s.keys.Add(key)
}

func (s *StreamingFragments) remove(key fragment.Key) {
	s.keys.Remove(key)
}

// WorldFragment is a fragment reprojected onto the world plane, ready to be rendered.
type WorldFragment struct {
	Key      fragment.Key
	BBox     typedgeom.Rect[typedgeom.World]
	Geometry typedgeom.MultiPolygon[typedgeom.World]
	// ClipPath is the outline of the quad.
	ClipPath typedgeom.MultiPolygon[typedgeom.World]
	// Border is the outline of the region within the quad, without the edges the quad cut.
	Border typedgeom.MultiLineString[typedgeom.World]
}

// CachedFragments holds the reprojected fragments, least recently stored first.
type CachedFragments struct {
	entries *orderedmap.OrderedMap[fragment.Key, *WorldFragment]
}

func newCachedFragments() *CachedFragments {
	return &CachedFragments{entries: orderedmap.New[fragment.Key, *WorldFragment]()}
}

func (c *CachedFragments) Contains(key fragment.Key) bool {
	_, ok := c.entries.Get(key)
	return ok
}

func (c *CachedFragments) Get(key fragment.Key) (*WorldFragment, bool) {
	return c.entries.Get(key)
}

func (c *CachedFragments) Len() int {
	return c.entries.Len()
}

// Keys returns the cached keys, least recently stored first.
func (c *CachedFragments) Keys() []fragment.Key {
	return mapslicehelp.OrderedMapKeys(c.entries)
}

// store panics when key is cached already, a fragment is reprojected once until it is disposed.
func (c *CachedFragments) store(f *WorldFragment) {
	if c.Contains(f.Key) {
		panic("fragment " + f.Key.String() + " is cached already")
	}
	c.entries.Set(f.Key, f)
}

func (c *CachedFragments) dispose(key fragment.Key) {
	c.entries.Delete(key)
}

// trim disposes of the oldest fragments that are not kept until at most capacity are left.
func (c *CachedFragments) trim(capacity int, keep keySet) int {
	var disposed []fragment.Key
	excess := c.entries.Len() - capacity
	for p := c.entries.Oldest(); p != nil && len(disposed) < excess; p = p.Next() {
		if !keep.Contains(p.Key) {
			disposed = append(disposed, p.Key)
		}
	}
	for _, key := range disposed {
		c.entries.Delete(key)
	}
	return len(disposed)
}

// EmptyFragments remembers which quads of a region have no geometry.
// Both regions and their quads are evicted least recently added first.
type EmptyFragments struct {
	regions        *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[quadkey.QuadKey, struct{}]]
	regionLimit    int
	quadsPerRegion int
}

func NewEmptyFragments(regionLimit, quadsPerRegion int) *EmptyFragments {
	return &EmptyFragments{
		regions:        orderedmap.New[string, *orderedmap.OrderedMap[quadkey.QuadKey, struct{}]](),
		regionLimit:    max(1, regionLimit),
		quadsPerRegion: max(1, quadsPerRegion),
	}
}

func (e *EmptyFragments) Contains(key fragment.Key) bool {
	quads, ok := e.regions.Get(key.RegionID)
	if !ok {
		return false
	}
	_, ok = quads.Get(key.QuadKey)
	return ok
}

// Len returns the number of known empty fragments over all regions.
func (e *EmptyFragments) Len() int {
	n := 0
	for p := e.regions.Oldest(); p != nil; p = p.Next() {
		n += p.Value.Len()
	}
	return n
}

func (e *EmptyFragments) add(key fragment.Key) {
	quads, ok := e.regions.Delete(key.RegionID)
	if !ok {
		quads = orderedmap.New[quadkey.QuadKey, struct{}]()
	}
	e.regions.Set(key.RegionID, quads)
	mapslicehelp.PopOldest(e.regions, e.regions.Len()-e.regionLimit)

	quads.Delete(key.QuadKey)
	quads.Set(key.QuadKey, struct{}{})
	mapslicehelp.PopOldest(quads, quads.Len()-e.quadsPerRegion)
}

func (e *EmptyFragments) addAll(keys keySet) {
	for _, key := range sortedKeys(keys) {
		e.add(key)
	}
}

func (e *EmptyFragments) removeRegion(regionID string) {
	e.regions.Delete(regionID)
}

// EmittedFragments are the fragments that became ready to render in the current tick.
type EmittedFragments struct {
	keys keySet
}

func newEmittedFragments() *EmittedFragments {
	return &EmittedFragments{keys: make(keySet)}
}

func (e *EmittedFragments) Keys() keySet {
	return e.keys
}

func (e *EmittedFragments) set(keys keySet) {
	e.keys = keys
}

// Region is a named area whose boundary is rendered fragment by fragment.
// Its fragments change only as a whole, once nothing it waits for is left.
type Region struct {
	ID   string
	BBox regionindex.RegionBBox

	pending   keySet
	ready     keySet
	changed   bool
	fragments []*WorldFragment
}

func newRegion(id string, bbox regionindex.RegionBBox) *Region {
	return &Region{ID: id, BBox: bbox, pending: make(keySet), ready: make(keySet)}
}

// Fragments returns the fragments to render, ordered by quad.
func (r *Region) Fragments() []*WorldFragment {
	return r.fragments
}

// Waiting returns the number of fragments the region still waits for.
func (r *Region) Waiting() int {
	return len(r.pending)
}

// Ready reports whether the region waits for nothing.
func (r *Region) Ready() bool {
	return len(r.pending) == 0
}

func sortedKeys(keys keySet) []fragment.Key {
	l := make([]fragment.Key, 0, len(keys))
	for key := range keys {
		l = append(l, key)
	}
	sortKeys(l)
	return l
}

func sortKeys(keys []fragment.Key) {
	slices.SortFunc(keys, func(a, b fragment.Key) int {
		if c := cmp.Compare(a.RegionID, b.RegionID); c != 0 {
			return c
		}
		return cmp.Compare(a.QuadKey, b.QuadKey)
	})
}
