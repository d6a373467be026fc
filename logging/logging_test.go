package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
		check   func(t *testing.T, out string)
	}{
		{
			name:   "json at info drops debug",
			level:  "info",
			format: "json",
			check: func(t *testing.T, out string) {
				var record map[string]any
				require.NoError(t, json.Unmarshal([]byte(out), &record))
				assert.Equal(t, "shown", record["msg"])
				assert.Equal(t, "US", record["region"])
			},
		},
		{
			name:   "text at debug",
			level:  "DEBUG",
			format: "text",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "msg=hidden")
				assert.Contains(t, out, "msg=shown region=US")
			},
		},
		{name: "unknown level", level: "loud", format: "text", wantErr: true},
		{name: "unknown format", level: "info", format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Setup(&buf, tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			slog.Debug("hidden")
			slog.Info("shown", slog.String("region", "US"))
			tt.check(t, buf.String())
		})
	}
}
