package fragment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/metrics"
	"github.com/pdok/mapstream/quadkey"
)

// Provider answers fragment requests from the cache and fetches what is missing in one batch.
type Provider struct {
	service GeocodingService
	cache   *Cache
}

func NewProvider(service GeocodingService, cache *Cache) *Provider {
	return &Provider{service: service, cache: cache}
}

func (p *Provider) Cache() *Cache {
	return p.cache
}

// GetFragments returns the fragment of every requested (region, quad) pair, ordered by quad per region.
// Pairs that are not cached are fetched with a single call to the geocoding service.
// A quad the service leaves out is empty and is cached as such.
// When the service fails nothing is cached and the error is returned.
func (p *Provider) GetFragments(ctx context.Context, requested map[string]mapslicehelp.Set[quadkey.QuadKey]) (map[string][]Fragment, error) {
	found := make(map[string]map[quadkey.QuadKey]Fragment, len(requested))
	missing := make(map[string]mapslicehelp.Set[quadkey.QuadKey])
	for regionID, quads := range requested {
		found[regionID] = make(map[quadkey.QuadKey]Fragment, len(quads))
		for q := range quads {
			if f, ok := p.cache.Get(regionID, q); ok {
				found[regionID][q] = f
				continue
			}
			if missing[regionID] == nil {
				missing[regionID] = make(mapslicehelp.Set[quadkey.QuadKey])
			}
			missing[regionID].Add(q)
		}
	}
	if len(missing) == 0 {
		return collect(found), nil
	}

	fetched, err := p.fetch(ctx, missing)
	if err != nil {
		return nil, err
	}
	p.cache.PutAll(fetched)
	for regionID, fs := range fetched {
		for _, f := range fs {
			found[regionID][f.QuadKey] = f
		}
	}
	return collect(found), nil
}

// fetch asks the service for missing and fills in the empty fragments it left out.
// Fragments the service returns for anything that was not asked for are dropped.
func (p *Provider) fetch(ctx context.Context, missing map[string]mapslicehelp.Set[quadkey.QuadKey]) (map[string][]Fragment, error) {
	request := GeocodingRequest{
		RegionIDs:     mapslicehelp.SortedKeys(missing),
		TilesByRegion: missing,
	}
	start := time.Now()
	features, err := p.service.Execute(ctx, request)
	metrics.GeocodingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeocodingRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf(`could not fetch fragments of %v regions: %w`, len(missing), err)
	}
	metrics.GeocodingRequests.WithLabelValues("ok").Inc()

	fetched := make(map[string][]Fragment, len(missing))
	unasked := 0
	for _, feature := range features {
		for _, f := range feature.Fragments {
			if !missing[feature.ID].Contains(f.QuadKey) {
				unasked++
				continue
			}
			fetched[feature.ID] = append(fetched[feature.ID], f)
		}
	}

	var withGeometry, empty int
	for regionID, quads := range missing {
		returned := make(mapslicehelp.Set[quadkey.QuadKey])
		for _, f := range fetched[regionID] {
			returned.Add(f.QuadKey)
			if f.IsEmpty() {
				empty++
			} else {
				withGeometry++
			}
		}
		for q := range mapslicehelp.Difference(quads, returned) {
			fetched[regionID] = append(fetched[regionID], Empty(q))
			empty++
		}
	}
	metrics.FragmentsReceived.WithLabelValues("geometry").Add(float64(withGeometry))
	metrics.FragmentsReceived.WithLabelValues("empty").Add(float64(empty))
	slog.Debug("fetched fragments",
		slog.Int("regions", len(missing)),
		slog.Int("geometry", withGeometry),
		slog.Int("empty", empty),
		slog.Int("unasked", unasked),
		slog.Duration("took", time.Since(start)))
	return fetched, nil
}

func collect(found map[string]map[quadkey.QuadKey]Fragment) map[string][]Fragment {
	result := make(map[string][]Fragment, len(found))
	for regionID, byQuad := range found {
		fs := make([]Fragment, 0, len(byQuad))
		for _, q := range mapslicehelp.SortedKeys(byQuad) {
			fs = append(fs, byQuad[q])
		}
		result[regionID] = fs
	}
	return result
}
