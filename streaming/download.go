package streaming

import (
	"context"
	"log/slog"

	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/quadkey"
)

// DefaultMaxConcurrentDownloads bounds the fragments that are downloading at the same time.
const DefaultMaxConcurrentDownloads = 40

// Launcher runs a download. It must not wait for it to finish, unless it is meant to.
type Launcher func(download func())

// GoLauncher runs every download in its own goroutine.
func GoLauncher(download func()) {
	go download()
}

// SyncLauncher runs a download before returning, its response is drained in the next tick.
func SyncLauncher(download func()) {
	download()
}

// Download moves wanted fragments through the per-zoom queues into batched provider requests.
type Download struct {
	provider      *fragment.Provider
	maxConcurrent int
	launch        Launcher

	grid        *GridState
	changed     *ChangedFragments
	downloading *DownloadingFragments
	streaming   *StreamingFragments
	cached      *CachedFragments
}

func NewDownload(provider *fragment.Provider, maxConcurrent int, launch Launcher, grid *GridState,
	changed *ChangedFragments, downloading *DownloadingFragments, streaming *StreamingFragments,
	cached *CachedFragments) *Download {
	if launch == nil {
		launch = GoLauncher
	}
	return &Download{
		provider:      provider,
		maxConcurrent: max(1, maxConcurrent),
		launch:        launch,
		grid:          grid,
		changed:       changed,
		downloading:   downloading,
		streaming:     streaming,
		cached:        cached,
	}
}

// Update drains the responses, requeues what failed and is still wanted,
// drops obsolete keys from the queue, queues new requests and starts a download when there is room.
func (d *Download) Update(ctx context.Context) {
	d.downloading.drain()

	failed := d.downloading.Failed()
	for key := range failed {
		d.streaming.remove(key)
	}
	retry := mapslicehelp.Intersection(failed, d.changed.Wanted)

	for key := range d.downloading.reduceQueue(d.changed.Obsolete) {
		d.streaming.remove(key)
	}

	queue := make(keySet)
	for key := range mapslicehelp.Union(d.changed.Requested, retry) {
		if d.streaming.Contains(key) || d.cached.Contains(key) {
			continue
		}
		queue.Add(key)
		d.streaming.add(key)
	}
	d.downloading.extendQueue(queue)

	free := d.maxConcurrent - len(d.downloading.Downloading())
	keys := d.downloading.popQueue(d.grid.Zoom, free)
	if len(keys) == 0 {
		return
	}
	for _, key := range keys {
		d.downloading.Downloading().Add(key)
	}
	d.fetch(ctx, keys)
}

func (d *Download) fetch(ctx context.Context, keys []fragment.Key) {
	request := make(map[string]mapslicehelp.Set[quadkey.QuadKey])
	for _, key := range keys {
		if request[key.RegionID] == nil {
			request[key.RegionID] = make(mapslicehelp.Set[quadkey.QuadKey])
		}
		request[key.RegionID].Add(key.QuadKey)
	}

	d.launch(func() {
		result, err := d.provider.GetFragments(ctx, request)
		if err != nil {
			slog.Warn("could not download fragments",
				slog.Int("fragments", len(keys)),
				slog.String("error", err.Error()))
			d.downloading.fail(keys)
			return
		}

		fragments := make(map[fragment.Key]fragment.Fragment, len(keys))
		for regionID, fs := range result {
			for _, f := range fs {
				fragments[fragment.NewKey(regionID, f.QuadKey)] = f
			}
		}
		var unanswered []fragment.Key
		for _, key := range keys {
			if _, ok := fragments[key]; !ok {
				unanswered = append(unanswered, key)
			}
		}
		d.downloading.deliver(fragments)
		if len(unanswered) > 0 {
			d.downloading.fail(unanswered)
		}
	})
}
