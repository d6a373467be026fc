package streaming

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/geomhelp"
	"github.com/pdok/mapstream/metrics"
	"github.com/pdok/mapstream/microtask"
	"github.com/pdok/mapstream/projection"
	"github.com/pdok/mapstream/resample"
	"github.com/pdok/mapstream/typedgeom"
)

const (
	// DefaultMicroTaskQuant is the number of steps a reprojection takes per turn.
	DefaultMicroTaskQuant = 100
	// DefaultMicroTaskBudget is the time all reprojections together may take per tick.
	DefaultMicroTaskBudget = 8 * time.Millisecond
)

type (
	lonLat = typedgeom.LonLat
	world  = typedgeom.World
)

// Emission reprojects downloaded fragments onto the world plane, a few steps per tick,
// and emits the fragments that became ready.
type Emission struct {
	projection projection.MapProjection
	epsilon    float64
	quant      int
	budget     time.Duration
	scheduler  *microtask.Scheduler

	tasks       map[fragment.Key]microtask.ID
	transformed map[fragment.Key]*WorldFragment

	changed     *ChangedFragments
	downloading *DownloadingFragments
	streaming   *StreamingFragments
	cached      *CachedFragments
	empty       *EmptyFragments
	emitted     *EmittedFragments
}

func NewEmission(mp projection.MapProjection, epsilon float64, quant int, budget time.Duration,
	changed *ChangedFragments, downloading *DownloadingFragments, streaming *StreamingFragments,
	cached *CachedFragments, empty *EmptyFragments, emitted *EmittedFragments) *Emission {
	return &Emission{
		projection:  mp,
		epsilon:     epsilon,
		quant:       quant,
		budget:      budget,
		scheduler:   microtask.NewScheduler(),
		tasks:       make(map[fragment.Key]microtask.ID),
		transformed: make(map[fragment.Key]*WorldFragment),
		changed:     changed,
		downloading: downloading,
		streaming:   streaming,
		cached:      cached,
		empty:       empty,
		emitted:     emitted,
	}
}

// Pending returns the number of reprojections that have not finished.
func (e *Emission) Pending() int {
	return e.scheduler.Len()
}

// Update emits the fragments that are empty, reprojected or requested while cached already.
// Downloaded fragments that are no longer wanted are dropped without reprojecting them.
func (e *Emission) Update() {
	for key := range e.changed.Obsolete {
		e.cancel(key)
	}

	empty := make(keySet)
	obsolete := 0
	for key, f := range e.downloading.Downloaded() {
		switch {
		case !e.changed.Wanted.Contains(key):
			e.streaming.remove(key)
			obsolete++
		case f.IsEmpty():
			e.streaming.remove(key)
			empty.Add(key)
		default:
			e.start(key, f.Geometry)
		}
	}
	if obsolete > 0 {
		slog.Debug("dropped obsolete fragments", slog.Int("fragments", obsolete))
	}

	e.scheduler.Run(e.budget)
	metrics.MicroTasks.Set(float64(e.scheduler.Len()))

	emitted := empty.Clone()
	for key, wf := range e.transformed {
		e.streaming.remove(key)
		e.cached.store(wf)
		emitted.Add(key)
	}
	clear(e.transformed)
	for key := range e.changed.Requested {
		if e.cached.Contains(key) {
			emitted.Add(key)
		}
	}

	e.empty.addAll(empty)
	e.emitted.set(emitted)
}

// cancel stops the reprojection of key, if one is running.
func (e *Emission) cancel(key fragment.Key) {
	if id, ok := e.tasks[key]; ok {
		e.scheduler.Cancel(id)
		delete(e.tasks, key)
		e.streaming.remove(key)
	}
}

func (e *Emission) start(key fragment.Key, geometry typedgeom.MultiPolygon[lonLat]) {
	task := e.reprojection(key, geometry)
	e.tasks[key] = e.scheduler.Add(task, e.quant, func() {
		delete(e.tasks, key)
		e.transformed[key] = task.Result()
	})
}

type reprojected = microtask.PairResult[
	typedgeom.MultiLineString[world],
	microtask.PairResult[typedgeom.MultiPolygon[world], typedgeom.MultiPolygon[world]],
]

// reprojection extracts the border of geometry, then resamples the border, the quad outline and geometry.
func (e *Emission) reprojection(key fragment.Key, geometry typedgeom.MultiPolygon[lonLat]) microtask.Task[*WorldFragment] {
	r := resample.New[lonLat, world](e.projection.Project, e.epsilon)
	clipPath := key.QuadKey.ComputeRect().MultiPolygon()

	border := newBorderTask(geometry, key.QuadKey.ClipRect())
	task := microtask.FlatMap[typedgeom.MultiLineString[lonLat], reprojected](border,
		func(border typedgeom.MultiLineString[lonLat]) microtask.Task[reprojected] {
			var worldBorder microtask.Task[typedgeom.MultiLineString[world]]
			if len(border) == 0 {
				worldBorder = microtask.Constant[typedgeom.MultiLineString[world]](nil)
			} else {
				worldBorder = resample.MultiLineStringTask(r, border)
			}
			return microtask.Pair(worldBorder, microtask.Pair(
				resample.MultiPolygonTask(r, clipPath),
				resample.MultiPolygonTask(r, geometry),
			))
		})

	return microtask.Map(task, func(res reprojected) *WorldFragment {
		worldGeometry := res.Second.Second
		bbox, ok := worldGeometry.BBox()
		if !ok {
			panic(fmt.Sprintf("fragment %v has no bbox: %v", key, geomhelp.WktMustEncode(geometry.ToGeom(), 200)))
		}
		return &WorldFragment{
			Key:      key,
			BBox:     bbox,
			Geometry: worldGeometry,
			ClipPath: res.Second.First,
			Border:   res.First,
		}
	})
}
