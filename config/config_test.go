package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/mapstream/projection"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, string(projection.Mercator), c.Projection)
	assert.Equal(t, 256., c.MapSize)
	assert.Equal(t, uint(256), c.TilePixelSize)
	assert.Equal(t, 1, c.MinZoom)
	assert.Equal(t, 15, c.MaxZoom)
	assert.Equal(t, 0.001, c.Epsilon)
	assert.Equal(t, 16*time.Millisecond, c.Tick())

	options := c.EngineOptions()
	assert.Equal(t, 40, options.MaxConcurrentDownloads)
	assert.Equal(t, 8*time.Millisecond, options.MicroTaskBudget)
	assert.Equal(t, 100, options.MicroTaskQuant)
}

func TestUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "empty object gets defaults",
			json: `{}`,
			check: func(t *testing.T, c Config) {
				assert.Equal(t, Default(), c)
			},
		},
		{
			name: "overrides",
			json: `{"projection": "conic-equal-area", "maxZoom": 8, "viewportWidth": 1024, "metricsAddr": ":9090", "logFormat": "json"}`,
			check: func(t *testing.T, c Config) {
				assert.Equal(t, string(projection.ConicEqualArea), c.Projection)
				assert.Equal(t, 8, c.MaxZoom)
				assert.Equal(t, 1024., c.ViewportWidth)
				assert.Equal(t, 600., c.ViewportHeight)
				assert.Equal(t, ":9090", c.MetricsAddr)
				assert.Equal(t, "json", c.LogFormat)
			},
		},
		{
			name:    "unknown key",
			json:    `{"zoomLevel": 3}`,
			wantErr: true,
		},
		{
			name:    "unknown projection",
			json:    `{"projection": "robinson"}`,
			wantErr: true,
		},
		{
			name:    "max zoom below min zoom",
			json:    `{"minZoom": 5, "maxZoom": 4}`,
			wantErr: true,
		},
		{
			name:    "zero epsilon",
			json:    `{"epsilon": 0}`,
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			json:    `{"centerLat": 91}`,
			wantErr: true,
		},
		{
			name:    "wrong type",
			json:    `{"minZoom": "one"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			err := json.Unmarshal([]byte(tt.json), &c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestMapProjectionFollowsConfig(t *testing.T) {
	for _, typ := range []projection.Type{
		projection.Geographic,
		projection.Mercator,
		projection.AzimuthalEqualArea,
		projection.AzimuthalEquidistant,
		projection.ConicConformal,
		projection.ConicEqualArea,
	} {
		t.Run(string(typ), func(t *testing.T) {
			var c Config
			require.NoError(t, json.Unmarshal([]byte(`{"projection": "`+string(typ)+`"}`), &c))
			assert.Equal(t, string(typ), c.Projection)
			mp, err := c.MapProjection()
			require.NoError(t, err)
			assert.Equal(t, typ, mp.GeoProjection().Type())
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"zoom": 3, "centerLon": 5.3, "centerLat": 52.1}`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	mp, err := c.MapProjection()
	require.NoError(t, err)
	vp, err := c.Viewport(mp)
	require.NoError(t, err)
	assert.Equal(t, 3, vp.Zoom())
	center := mp.Invert(vp.Center())
	assert.InDelta(t, 5.3, center.X(), 1e-9)
	assert.InDelta(t, 52.1, center.Y(), 1e-9)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
