package mathhelp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name   string
		v      float64
		lo, hi float64
		want   float64
	}{
		{name: "inside", v: 10, lo: -180, hi: 180, want: 10},
		{name: "east overflow", v: 190, lo: -180, hi: 180, want: -170},
		{name: "west overflow", v: -190, lo: -180, hi: 180, want: 170},
		{name: "upper bound wraps to lower", v: 180, lo: -180, hi: 180, want: -180},
		{name: "several turns", v: 256*3 + 5, lo: 0, hi: 256, want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Wrap(tt.v, tt.lo, tt.hi), 1e-9)
		})
	}
}

func TestEuclidianMod(t *testing.T) {
	assert.Equal(t, 3, EuclidianMod(-1, 4))
	assert.Equal(t, 1, EuclidianMod(5, 4))
	assert.Equal(t, 0, EuclidianMod(-8, 4))
}

func TestClampAndBetween(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 1, 15))
	assert.Equal(t, 15, Clamp(20, 1, 15))
	assert.Equal(t, 7.5, Clamp(7.5, 1, 15))
	assert.True(t, BetweenInc(2, 3, 1))
	assert.False(t, BetweenInc(4.0, 1, 3))
}

func TestZoomScale(t *testing.T) {
	assert.Equal(t, 1.0, ZoomScale(0))
	assert.Equal(t, 1024.0, ZoomScale(10))
	assert.Equal(t, uint(1024), Pow2(10))
	assert.InDelta(t, math.Pi, ToRadians(180), 1e-12)
	assert.InDelta(t, 90, ToDegrees(math.Pi/2), 1e-12)
}
