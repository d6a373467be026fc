// Package streaming moves the fragments of regions from wanted to rendered, one tick at a time.
//
// Every tick runs four stages in a fixed order: change detection, download, emission and
// region readiness. The stages share plain records, each record is written by the stage that owns it.
// Downloads are the only work that happens outside the tick, their responses are buffered
// and drained at the start of the next download stage.
package streaming

import (
	"context"
	"fmt"
	"time"

	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/metrics"
	"github.com/pdok/mapstream/projection"
	"github.com/pdok/mapstream/regionindex"
	"github.com/pdok/mapstream/resample"
	"github.com/pdok/mapstream/viewport"
)

const (
	// DefaultCacheZoomWindow is the number of zoom levels worth of visible fragments that are cached.
	DefaultCacheZoomWindow = 3
	// DefaultRegionsPerTile is the number of regions cached per visible tile.
	DefaultRegionsPerTile = 8
)

type Options struct {
	MaxConcurrentDownloads int
	MicroTaskQuant         int
	MicroTaskBudget        time.Duration
	Epsilon                float64
	CacheZoomWindow        int
	RegionsPerTile         int
	EmptyRegions           int
	EmptyQuadsPerRegion    int
	// Launcher runs downloads, GoLauncher when nil.
	Launcher Launcher
}

func DefaultOptions() Options {
	return Options{
		MaxConcurrentDownloads: DefaultMaxConcurrentDownloads,
		MicroTaskQuant:         DefaultMicroTaskQuant,
		MicroTaskBudget:        DefaultMicroTaskBudget,
		Epsilon:                resample.DefaultEpsilon,
		CacheZoomWindow:        DefaultCacheZoomWindow,
		RegionsPerTile:         DefaultRegionsPerTile,
		EmptyRegions:           DefaultEmptyRegions,
		EmptyQuadsPerRegion:    DefaultEmptyQuadsPerRegion,
		Launcher:               GoLauncher,
	}
}

// Stats is a snapshot of the pipeline after a tick.
type Stats struct {
	Ticks          uint64
	Elapsed        time.Duration
	Zoom           int
	VisibleCells   int
	VisibleQuads   int
	Wanted         int
	Queued         int
	Downloading    int
	Streaming      int
	Reprojecting   int
	Cached         int
	Empty          int
	Emitted        int
	Regions        int
	RegionsWaiting int
	Cache          fragment.CacheStats
}

func (s Stats) String() string {
	return fmt.Sprintf("zoom %d: %d quads, %d wanted, %d queued, %d downloading, %d reprojecting, %d cached, %d empty, %d/%d regions waiting",
		s.Zoom, s.VisibleQuads, s.Wanted, s.Queued, s.Downloading, s.Reprojecting, s.Cached, s.Empty, s.RegionsWaiting, s.Regions)
}

// Engine owns the records and stages of the pipeline. It is not safe for concurrent use.
type Engine struct {
	viewport *viewport.Viewport
	index    *regionindex.Index
	provider *fragment.Provider
	regions  map[string]*Region
	options  Options

	grid        *GridState
	changed     *ChangedFragments
	downloading *DownloadingFragments
	streaming   *StreamingFragments
	cached      *CachedFragments
	empty       *EmptyFragments
	emitted     *EmittedFragments

	changeDetection *ChangeDetection
	download        *Download
	emission        *Emission
	readiness       *RegionReadiness

	// keys of removed regions, reported obsolete in the next tick
	removed keySet

	capacity int
	waiting  int
	ticks    uint64
	elapsed  time.Duration
}

// withDefaults fills in the unset options.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxConcurrentDownloads <= 0 {
		o.MaxConcurrentDownloads = d.MaxConcurrentDownloads
	}
	if o.MicroTaskQuant <= 0 {
		o.MicroTaskQuant = d.MicroTaskQuant
	}
	if o.Epsilon <= 0 {
		o.Epsilon = d.Epsilon
	}
	if o.CacheZoomWindow <= 0 {
		o.CacheZoomWindow = d.CacheZoomWindow
	}
	if o.RegionsPerTile <= 0 {
		o.RegionsPerTile = d.RegionsPerTile
	}
	if o.EmptyRegions <= 0 {
		o.EmptyRegions = d.EmptyRegions
	}
	if o.EmptyQuadsPerRegion <= 0 {
		o.EmptyQuadsPerRegion = d.EmptyQuadsPerRegion
	}
	if o.Launcher == nil {
		o.Launcher = d.Launcher
	}
	return o
}

// NewEngine streams the regions added to it for what vp shows. Unset options take their default,
// a MicroTaskBudget of zero lets every reprojection finish within the tick it started.
func NewEngine(vp *viewport.Viewport, mp projection.MapProjection, service fragment.GeocodingService, options Options) *Engine {
	options = options.withDefaults()
	e := &Engine{
		viewport:    vp,
		index:       regionindex.New(),
		regions:     make(map[string]*Region),
		options:     options,
		grid:        &GridState{},
		changed:     newChangedFragments(),
		downloading: newDownloadingFragments(),
		streaming:   newStreamingFragments(),
		cached:      newCachedFragments(),
		empty:       NewEmptyFragments(options.EmptyRegions, options.EmptyQuadsPerRegion),
		emitted:     newEmittedFragments(),
		removed:     make(keySet),
		capacity:    1,
	}
	e.provider = fragment.NewProvider(service, fragment.NewCache(e.capacity))
	e.changeDetection = NewChangeDetection(vp, mp, e.index, e.empty, e.grid, e.changed)
	e.download = NewDownload(e.provider, options.MaxConcurrentDownloads, options.Launcher,
		e.grid, e.changed, e.downloading, e.streaming, e.cached)
	e.emission = NewEmission(mp, options.Epsilon, options.MicroTaskQuant, options.MicroTaskBudget,
		e.changed, e.downloading, e.streaming, e.cached, e.empty, e.emitted)
	e.readiness = NewRegionReadiness(e.regions, e.changed, e.emitted, e.cached)
	return e
}

func (e *Engine) Viewport() *viewport.Viewport {
	return e.viewport
}

func (e *Engine) Provider() *fragment.Provider {
	return e.provider
}

// AddRegion starts streaming the region. Adding a region again updates its bbox.
func (e *Engine) AddRegion(id string, bbox regionindex.RegionBBox) {
	e.index.Insert(id, bbox)
	if region, ok := e.regions[id]; ok {
		region.BBox = bbox
		return
	}
	e.regions[id] = newRegion(id, bbox)
}

// RemoveRegion stops streaming the region and forgets its reprojected and empty fragments.
// Its wanted fragments turn obsolete in the next tick, unless the region is added again before.
// Downloads in flight are not aborted, their responses are dropped or used by the region added again.
func (e *Engine) RemoveRegion(id string) {
	e.index.Remove(id)
	delete(e.regions, id)
	e.empty.removeRegion(id)
	for _, key := range e.cached.Keys() {
		if key.RegionID == id {
			e.cached.dispose(key)
		}
	}

	forgotten := make(keySet)
	for key := range mapslicehelp.Union(e.changed.Wanted, e.streaming.Keys()) {
		if key.RegionID == id {
			forgotten.Add(key)
		}
	}
	for key := range forgotten {
		if e.changed.Wanted.Contains(key) {
			e.changed.Wanted.Remove(key)
			e.removed.Add(key)
		}
		e.emission.cancel(key)
	}
	for key := range e.downloading.reduceQueue(forgotten) {
		e.streaming.remove(key)
	}
}

func (e *Engine) Region(id string) (*Region, bool) {
	region, ok := e.regions[id]
	return region, ok
}

// Regions returns the ids of the streamed regions, sorted.
func (e *Engine) Regions() []string {
	return mapslicehelp.SortedKeys(e.regions)
}

func (e *Engine) Grid() GridState {
	return *e.grid
}

func (e *Engine) Changed() *ChangedFragments {
	return e.changed
}

func (e *Engine) Downloading() *DownloadingFragments {
	return e.downloading
}

func (e *Engine) Streaming() *StreamingFragments {
	return e.streaming
}

func (e *Engine) Cached() *CachedFragments {
	return e.cached
}

func (e *Engine) Empty() *EmptyFragments {
	return e.empty
}

func (e *Engine) Emitted() *EmittedFragments {
	return e.emitted
}

// Tick runs every stage once. ctx is handed to the downloads started in this tick
// and has to outlive them.
func (e *Engine) Tick(ctx context.Context, dt time.Duration) {
	start := time.Now()
	e.ticks++
	e.elapsed += dt

	e.changeDetection.Update()
	for key := range e.removed {
		if !e.changed.Wanted.Contains(key) {
			e.changed.Obsolete.Add(key)
		}
	}
	clear(e.removed)
	e.resize()
	e.download.Update(ctx)
	e.emission.Update()
	e.waiting = e.readiness.Update()
	e.cached.trim(e.capacity, e.changed.Wanted)

	e.observe()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
}

// resize follows the fragment cache capacity to the number of visible cells.
func (e *Engine) resize() {
	capacity := fragment.CacheCapacity(len(e.grid.VisibleCells), e.options.CacheZoomWindow, e.options.RegionsPerTile)
	if capacity != e.capacity {
		e.capacity = capacity
		e.provider.Cache().Resize(capacity)
	}
}

func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:          e.ticks,
		Elapsed:        e.elapsed,
		Zoom:           e.grid.Zoom,
		VisibleCells:   len(e.grid.VisibleCells),
		VisibleQuads:   len(e.grid.VisibleQuads),
		Wanted:         len(e.changed.Wanted),
		Queued:         e.downloading.Queued(),
		Downloading:    len(e.downloading.Downloading()),
		Streaming:      e.streaming.Len(),
		Reprojecting:   e.emission.Pending(),
		Cached:         e.cached.Len(),
		Empty:          e.empty.Len(),
		Emitted:        len(e.emitted.Keys()),
		Regions:        len(e.regions),
		RegionsWaiting: e.waiting,
		Cache:          e.provider.Cache().Stats(),
	}
}

func (e *Engine) observe() {
	s := e.Stats()
	for state, n := range map[string]int{
		"wanted":       s.Wanted,
		"queued":       s.Queued,
		"downloading":  s.Downloading,
		"streaming":    s.Streaming,
		"reprojecting": s.Reprojecting,
		"cached":       s.Cached,
		"empty":        s.Empty,
		"emitted":      s.Emitted,
	} {
		metrics.PipelineFragments.WithLabelValues(state).Set(float64(n))
	}
}
