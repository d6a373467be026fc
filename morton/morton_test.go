package morton

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToZ(t *testing.T) {
	tests := []struct {
		name string
		x, y uint32
		want Z
	}{
		{name: "origin", x: 0, y: 0, want: 0},
		{name: "east", x: 1, y: 0, want: 1},
		{name: "south", x: 0, y: 1, want: 2},
		{name: "south east", x: 1, y: 1, want: 3},
		{name: "second level", x: 2, y: 3, want: 0b1110},
		{name: "max", x: math.MaxUint32, y: math.MaxUint32, want: math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := ToZ(tt.x, tt.y)
			assert.Equal(t, tt.want, z)
			x, y := FromZ(z)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		name  string
		x, y  uint32
		depth uint
		want  string
	}{
		{name: "root", depth: 0, want: ""},
		{name: "level one", x: 1, y: 1, depth: 1, want: "3"},
		// the classic example of the Bing Maps tile system documentation
		{name: "level three", x: 3, y: 5, depth: 3, want: "213"},
		{name: "leading zeros", x: 1, y: 0, depth: 4, want: "0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Digits(ToZ(tt.x, tt.y), tt.depth)
			assert.Equal(t, tt.want, got)

			z, err := FromDigits(got)
			require.NoError(t, err)
			assert.Equal(t, ToZ(tt.x, tt.y), z)
		})
	}
}

func TestFromDigitsInvalid(t *testing.T) {
	_, err := FromDigits("0124")
	require.Error(t, err)
	require.Panics(t, func() { Digits(0, MaxDepth+1) })
}
