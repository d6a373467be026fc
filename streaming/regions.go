package streaming

import (
	"log/slog"

	"github.com/pdok/mapstream/metrics"
)

// RegionReadiness swaps the fragments of a region once it no longer waits for any.
type RegionReadiness struct {
	regions map[string]*Region
	changed *ChangedFragments
	emitted *EmittedFragments
	cached  *CachedFragments
}

func NewRegionReadiness(regions map[string]*Region, changed *ChangedFragments,
	emitted *EmittedFragments, cached *CachedFragments) *RegionReadiness {
	return &RegionReadiness{regions: regions, changed: changed, emitted: emitted, cached: cached}
}

// Update returns the number of regions that still wait for fragments.
func (r *RegionReadiness) Update() int {
	for key := range r.changed.Requested {
		if region, ok := r.regions[key.RegionID]; ok {
			region.pending.Add(key)
			region.changed = true
		}
	}
	for key := range r.changed.Obsolete {
		if region, ok := r.regions[key.RegionID]; ok {
			region.pending.Remove(key)
			region.ready.Remove(key)
			region.changed = true
		}
	}
	for key := range r.emitted.Keys() {
		region, ok := r.regions[key.RegionID]
		if !ok || !region.pending.Contains(key) {
			continue
		}
		region.pending.Remove(key)
		// empty fragments are done without anything to render
		if r.cached.Contains(key) {
			region.ready.Add(key)
		}
		region.changed = true
	}

	waiting := 0
	for _, region := range r.regions {
		if !region.Ready() {
			waiting++
			continue
		}
		if region.changed {
			r.swap(region)
		}
	}
	metrics.RegionsWaiting.Set(float64(waiting))
	return waiting
}

func (r *RegionReadiness) swap(region *Region) {
	keys := sortedKeys(region.ready)
	fragments := make([]*WorldFragment, 0, len(keys))
	for _, key := range keys {
		if wf, ok := r.cached.Get(key); ok {
			fragments = append(fragments, wf)
		}
	}
	region.fragments = fragments
	region.changed = false
	slog.Debug("region ready",
		slog.String("region", region.ID),
		slog.Int("fragments", len(fragments)))
}
