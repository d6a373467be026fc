package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/pdok/mapstream/config"
	"github.com/pdok/mapstream/fragment"
	"github.com/pdok/mapstream/geocoding"
	"github.com/pdok/mapstream/mapslicehelp"
	"github.com/pdok/mapstream/metrics"
	"github.com/pdok/mapstream/regionindex"
	"github.com/pdok/mapstream/streaming"
)

const CONFIG string = `config`
const GEOJSON string = `geojson`
const IDPROPERTY string = `idProperty`
const GPKG string = `gpkg`
const TICKS string = `ticks`
const METRICSADDR string = `metricsAddr`
const TARGET string = `target`
const OVERWRITE string = `overwrite`
const MINZOOM string = `minZoom`
const MAXZOOM string = `maxZoom`
const PAGESIZE string = `pagesize`

func main() {
	app := cli.NewApp()
	app.Name = "mapstream"
	app.Usage = "A Golang map fragment streaming engine"
	app.Version = versioninfo.Short()

	geojsonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    GEOJSON,
			Aliases: []string{"j"},
			Usage:   "GeoJSON feature collection with the region boundaries",
			EnvVars: []string{strcase.ToScreamingSnake(GEOJSON)},
		},
		&cli.StringFlag{
			Name:    IDPROPERTY,
			Aliases: []string{"id"},
			Usage:   "Feature property holding the region ID",
			Value:   "id",
			EnvVars: []string{strcase.ToScreamingSnake(IDPROPERTY)},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "stream",
			Usage: "Stream the fragments of all regions in view, zooming in one level at a time",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:    CONFIG,
					Aliases: []string{"c"},
					Usage:   "JSON config file, defaults apply when left out",
					EnvVars: []string{strcase.ToScreamingSnake(CONFIG)},
				},
				&cli.StringFlag{
					Name:    GPKG,
					Aliases: []string{"g"},
					Usage:   "GeoPackage written by the tile command, used instead of GeoJSON",
					EnvVars: []string{strcase.ToScreamingSnake(GPKG)},
				},
				&cli.IntFlag{
					Name:    TICKS,
					Aliases: []string{"n"},
					Usage:   "Stop after this many ticks, 0 keeps streaming until the view has settled at the max zoom",
					EnvVars: []string{strcase.ToScreamingSnake(TICKS)},
				},
				&cli.StringFlag{
					Name:    METRICSADDR,
					Aliases: []string{"m"},
					Usage:   "Serve Prometheus metrics on this address, e.g. :9090",
					EnvVars: []string{strcase.ToScreamingSnake(METRICSADDR)},
				},
			}, geojsonFlags...),
			Action: stream,
		},
		{
			Name:  "tile",
			Usage: "Clip region boundaries from GeoJSON into a GeoPackage of quad tile fragments",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:     TARGET,
					Aliases:  []string{"t"},
					Usage:    "Target GPKG",
					Required: true,
					EnvVars:  []string{strcase.ToScreamingSnake(TARGET)},
				},
				&cli.BoolFlag{
					Name:    OVERWRITE,
					Aliases: []string{"o"},
					Usage:   "Overwrite the target GPKG if it exists",
					EnvVars: []string{strcase.ToScreamingSnake(OVERWRITE)},
				},
				&cli.IntFlag{
					Name:    MINZOOM,
					Usage:   "First zoom level to tile",
					Value:   1,
					EnvVars: []string{strcase.ToScreamingSnake(MINZOOM)},
				},
				&cli.IntFlag{
					Name:    MAXZOOM,
					Usage:   "Last zoom level to tile",
					Value:   8,
					EnvVars: []string{strcase.ToScreamingSnake(MAXZOOM)},
				},
				&cli.IntFlag{
					Name:    PAGESIZE,
					Aliases: []string{"p"},
					Usage:   "Page Size, how many fragments are written per transaction to the target GPKG",
					Value:   1000,
					EnvVars: []string{strcase.ToScreamingSnake(PAGESIZE)},
				},
			}, geojsonFlags...),
			Action: tile,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func stream(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String(CONFIG); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	if c.IsSet(METRICSADDR) {
		cfg.MetricsAddr = c.String(METRICSADDR)
	}
	if err := cfg.SetupLogging(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, bboxes, closeService, err := openService(ctx, c)
	if err != nil {
		return err
	}
	defer closeService()

	mp, err := cfg.MapProjection()
	if err != nil {
		return err
	}
	vp, err := cfg.Viewport(mp)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr)
	}

	engine := streaming.NewEngine(vp, mp, service, cfg.EngineOptions())
	for _, id := range mapslicehelp.SortedKeys(bboxes) {
		engine.AddRegion(id, bboxes[id])
	}

	log.Println("=== start streaming ===")
	err = run(ctx, engine, cfg, c.Int(TICKS))
	log.Printf("  %v", engine.Stats())
	log.Println("=== done streaming ===")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// run ticks the engine at the configured rate. Whenever nothing is in flight it zooms in one level,
// and it returns once that is no longer possible or maxTicks have passed.
func run(ctx context.Context, engine *streaming.Engine, cfg config.Config, maxTicks int) error {
	ticker := time.NewTicker(cfg.Tick())
	defer ticker.Stop()

	last := time.Now()
	for tick := 1; maxTicks <= 0 || tick <= maxTicks; tick++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			engine.Tick(ctx, now.Sub(last))
			last = now
		}

		stats := engine.Stats()
		if tick%cfg.StatsEvery == 0 {
			slog.Info("stats", slog.Int("tick", tick), slog.String("summary", stats.String()), slog.Any("cache", stats.Cache))
		}
		if !settled(stats) {
			continue
		}
		vp := engine.Viewport()
		if vp.Zoom() >= vp.MaxZoom() {
			return nil
		}
		vp.SetZoom(vp.Zoom() + 1)
		slog.Info("zooming in", slog.Int("zoom", vp.Zoom()), slog.Int("tick", tick))
	}
	return nil
}

func settled(s streaming.Stats) bool {
	return s.Queued == 0 && s.Downloading == 0 && s.Streaming == 0 && s.RegionsWaiting == 0
}

func openService(ctx context.Context, c *cli.Context) (fragment.GeocodingService, map[string]regionindex.RegionBBox, func(), error) {
	if path := c.String(GPKG); path != "" {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return nil, nil, nil, fmt.Errorf("error opening source GeoPackage: %w", err)
		}
		service, err := geocoding.OpenGeoPackage(path)
		if err != nil {
			return nil, nil, nil, err
		}
		bboxes, err := service.BBoxes(ctx)
		if err != nil {
			_ = service.Close()
			return nil, nil, nil, err
		}
		return service, bboxes, func() { _ = service.Close() }, nil
	}

	service, err := clippingService(c)
	if err != nil {
		return nil, nil, nil, err
	}
	return service, service.BBoxes(), func() {}, nil
}

func clippingService(c *cli.Context) (*geocoding.ClippingService, error) {
	path := c.String(GEOJSON)
	if path == "" {
		return nil, fmt.Errorf("either --%v or --%v is required", GEOJSON, GPKG)
	}
	boundaries, err := geocoding.LoadGeoJSON(path, c.String(IDPROPERTY))
	if err != nil {
		return nil, err
	}
	return geocoding.NewClippingService(boundaries), nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", slog.String("addr", addr), slog.Any("error", err))
		}
	}()
	slog.Info("serving metrics", slog.String("addr", addr))
}

func tile(c *cli.Context) error {
	source, err := clippingService(c)
	if err != nil {
		return err
	}
	target := c.String(TARGET)
	if c.Bool(OVERWRITE) {
		removeTarget(target)
	}

	log.Println("=== start tiling ===")
	n, err := geocoding.WriteGeoPackage(c.Context, target, source, c.Int(MINZOOM), c.Int(MAXZOOM), c.Int(PAGESIZE))
	if err != nil {
		return err
	}
	log.Printf("  wrote %d fragments to %s", n, target)
	log.Println("=== done tiling ===")
	return nil
}

func removeTarget(targetPath string) {
	err := os.Remove(targetPath)
	var pathError *os.PathError
	if err != nil {
		if !(errors.As(err, &pathError) && errors.Is(pathError.Err, syscall.ENOENT)) {
			log.Fatalf("could not remove target file: %e", err)
		}
	}
}
