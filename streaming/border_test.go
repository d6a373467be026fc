package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdok/mapstream/microtask"
	"github.com/pdok/mapstream/typedgeom"
)

func pt(x, y float64) typedgeom.Vec[lonLat] {
	return typedgeom.NewVec[lonLat](x, y)
}

func TestBorderTask(t *testing.T) {
	clipRect := typedgeom.NewRect[lonLat](0, 0, 10, 10)

	tests := []struct {
		name     string
		geometry typedgeom.MultiPolygon[lonLat]
		want     typedgeom.MultiLineString[lonLat]
	}{
		{
			name:     "empty",
			geometry: nil,
			want:     nil,
		},
		{
			name: "inside",
			geometry: typedgeom.MultiPolygon[lonLat]{{{
				pt(2, 2), pt(4, 2), pt(4, 4), pt(2, 2),
			}}},
			want: typedgeom.MultiLineString[lonLat]{{
				pt(2, 2), pt(4, 2), pt(4, 4), pt(2, 2),
			}},
		},
		{
			name: "cut by the west edge",
			geometry: typedgeom.MultiPolygon[lonLat]{{{
				pt(0, 2), pt(5, 2), pt(5, 8), pt(0, 8), pt(0, 2),
			}}},
			want: typedgeom.MultiLineString[lonLat]{{
				pt(0, 2), pt(5, 2), pt(5, 8), pt(0, 8),
			}},
		},
		{
			name: "cut twice",
			geometry: typedgeom.MultiPolygon[lonLat]{{{
				pt(0, 2), pt(5, 2), pt(10, 2), pt(10, 8), pt(5, 8), pt(0, 8), pt(0, 2),
			}}},
			want: typedgeom.MultiLineString[lonLat]{
				{pt(0, 2), pt(5, 2), pt(10, 2)},
				{pt(10, 8), pt(5, 8), pt(0, 8)},
			},
		},
		{
			name:     "the clip rect itself",
			geometry: clipRect.MultiPolygon(),
			want:     nil,
		},
		{
			name: "lines do not continue into the next ring",
			geometry: typedgeom.MultiPolygon[lonLat]{
				{{pt(2, 2), pt(3, 2), pt(2, 2)}},
				{{pt(6, 6), pt(7, 6), pt(6, 6)}},
			},
			want: typedgeom.MultiLineString[lonLat]{
				{pt(2, 2), pt(3, 2), pt(2, 2)},
				{pt(6, 6), pt(7, 6), pt(6, 6)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newBorderTask(tt.geometry, clipRect)
			steps := microtask.RunToCompletion(task)
			assert.Equal(t, tt.geometry.PointCount(), steps)
			assert.Equal(t, tt.want, task.Result())
		})
	}
}

func TestOnBorder(t *testing.T) {
	r := typedgeom.NewRect[lonLat](-22.5, -11.25, 22.5, 101.25)
	assert.True(t, onBorder(pt(-22.5, 40), r))
	assert.True(t, onBorder(pt(0, 101.25+1e-12), r))
	assert.False(t, onBorder(pt(0, 40), r))
	assert.False(t, onBorder(pt(-22.49, -11.24), r))
}
