package geomhelp

import (
	"strings"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
)

func TestMultiPolygonArea(t *testing.T) {
	tests := []struct {
		name string
		mp   geom.MultiPolygon
		want float64
	}{
		{
			name: "square",
			mp:   geom.MultiPolygon{{{{0, 0}, {2, 0}, {2, 2}, {0, 2}}}},
			want: 4,
		},
		{
			name: "square with hole",
			mp:   geom.MultiPolygon{{{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, {{1, 1}, {2, 1}, {2, 2}, {1, 2}}}},
			want: 15,
		},
		{
			name: "two squares",
			mp:   geom.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}, {{{5, 5}, {7, 5}, {7, 7}, {5, 7}}}},
			want: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, MultiPolygonArea(tt.mp), 1e-12)
		})
	}
}

func TestWktMustEncode(t *testing.T) {
	g := geom.LineString{{1, 2}, {3, 4}, {5, 6}}
	full := WktMustEncode(g, 0)
	assert.Contains(t, full, "LINESTRING")
	assert.Contains(t, full, "5 6")

	short := WktMustEncode(g, 10)
	assert.Len(t, short, 10)
	assert.True(t, strings.HasSuffix(short, "..."))
}
