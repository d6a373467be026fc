// Package config reads the settings of the streaming engine from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/mapstream/logging"
	"github.com/pdok/mapstream/projection"
	"github.com/pdok/mapstream/streaming"
	"github.com/pdok/mapstream/typedgeom"
	"github.com/pdok/mapstream/viewport"
)

type Config struct {
	// Projection is one of projection.Types, kept as a plain string for marshmallow
	Projection string `json:"projection" default:"mercator" validate:"oneof=geographic mercator azimuthal-equal-area azimuthal-equidistant conic-conformal conic-equal-area"`
	// MapSize is the width and height of the world plane at zoom 0
	MapSize       float64 `json:"mapSize" default:"256" validate:"gt=0"`
	TilePixelSize uint    `json:"tilePixelSize" default:"256" validate:"min=1"`
	MinZoom       int     `json:"minZoom" default:"1" validate:"min=0,max=24"`
	MaxZoom       int     `json:"maxZoom" default:"15" validate:"min=0,max=24,gtefield=MinZoom"`
	// Zoom is where the viewport starts, clamped to the min and max zoom
	Zoom           int     `json:"zoom" default:"1" validate:"min=0"`
	CenterLon      float64 `json:"centerLon" validate:"min=-180,max=180"`
	CenterLat      float64 `json:"centerLat" validate:"min=-90,max=90"`
	ViewportWidth  float64 `json:"viewportWidth" default:"800" validate:"gt=0"`
	ViewportHeight float64 `json:"viewportHeight" default:"600" validate:"gt=0"`

	MaxConcurrentDownloads int     `json:"maxConcurrentDownloads" default:"40" validate:"min=1"`
	CacheZoomWindow        int     `json:"cacheZoomWindow" default:"3" validate:"min=1"`
	RegionsPerTile         int     `json:"regionsPerTile" default:"8" validate:"min=1"`
	MicroTaskQuant         int     `json:"microTaskQuant" default:"100" validate:"min=1"`
	MicroTaskBudgetMillis  int     `json:"microTaskBudgetMillis" default:"8" validate:"min=0"`
	Epsilon                float64 `json:"epsilon" default:"0.001" validate:"gt=0"`

	TickMillis int `json:"tickMillis" default:"16" validate:"min=1"`
	// StatsEvery is the number of ticks between two stats lines
	StatsEvery int `json:"statsEvery" default:"60" validate:"min=1"`

	LogLevel    string `json:"logLevel" default:"info" validate:"oneof=debug info warn error"`
	LogFormat   string `json:"logFormat" default:"text" validate:"oneof=text json"`
	MetricsAddr string `json:"metricsAddr,omitempty" validate:"omitempty,hostname_port"`
}

// Default returns the configuration that applies when nothing is set.
func Default() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(err)
	}
	return c
}

func Load(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err = json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("could not read config %v: %w", path, err)
	}
	return c, nil
}

func (c *Config) UnmarshalJSON(data []byte) error {
	err := defaults.Set(c)
	if err != nil {
		return err
	}

	unknown, err := marshmallow.Unmarshal(data, c, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		keys := make([]string, 0, len(unknown))
		for k := range unknown {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys %q", keys)
	}

	return c.Validate()
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(c)
}

func (c *Config) MapRect() typedgeom.Rect[typedgeom.World] {
	return typedgeom.NewRect[typedgeom.World](0, 0, c.MapSize, c.MapSize)
}

func (c *Config) MapProjection() (projection.MapProjection, error) {
	geo, err := projection.New(projection.Type(c.Projection))
	if err != nil {
		return projection.MapProjection{}, err
	}
	return projection.MapProjectionBuilder{GeoProjection: geo, MapRect: c.MapRect(), ReverseY: true}.Create(), nil
}

// Viewport returns a viewport at the configured zoom, centered on the configured longitude and latitude.
func (c *Config) Viewport(mp projection.MapProjection) (*viewport.Viewport, error) {
	size := typedgeom.NewVec[typedgeom.Client](c.ViewportWidth, c.ViewportHeight)
	vp, err := viewport.New(c.MapRect(), size, c.MinZoom, c.MaxZoom, c.TilePixelSize)
	if err != nil {
		return nil, err
	}
	vp.SetZoom(c.Zoom)
	vp.SetCenter(mp.Project(typedgeom.NewVec[typedgeom.LonLat](c.CenterLon, c.CenterLat)))
	return vp, nil
}

func (c *Config) EngineOptions() streaming.Options {
	options := streaming.DefaultOptions()
	options.MaxConcurrentDownloads = c.MaxConcurrentDownloads
	options.CacheZoomWindow = c.CacheZoomWindow
	options.RegionsPerTile = c.RegionsPerTile
	options.MicroTaskQuant = c.MicroTaskQuant
	options.MicroTaskBudget = time.Duration(c.MicroTaskBudgetMillis) * time.Millisecond
	options.Epsilon = c.Epsilon
	return options
}

func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// SetupLogging installs the default logger as configured.
func (c *Config) SetupLogging() error {
	return logging.Setup(os.Stderr, c.LogLevel, c.LogFormat)
}
