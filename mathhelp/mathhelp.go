package mathhelp

import (
	"math"

	"golang.org/x/exp/constraints"
)

// BetweenInc reports whether f lies between p and q, bounds included, in whichever order they come.
func BetweenInc[N constraints.Integer | constraints.Float](f, p, q N) bool {
	if p <= q {
		return p <= f && f <= q
	}
	return q <= f && f <= p
}

func Pow2(n uint) uint {
	return 1 << n
}

// ZoomScale is the linear scale factor of a zoom level, 2^zoom.
func ZoomScale(zoom int) float64 {
	return math.Ldexp(1, zoom)
}

func Clamp[N constraints.Ordered](v, lo, hi N) N {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func EuclidianMod(d, m int) int {
	r := d % m
	if (r < 0 && m > 0) || (r > 0 && m < 0) {
		return r + m
	}
	return r
}

// Wrap folds v into [lo, hi) like EuclidianMod does for integers.
func Wrap(v, lo, hi float64) float64 {
	span := hi - lo
	r := math.Mod(v-lo, span)
	if r < 0 {
		r += span
	}
	return lo + r
}

func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Sign returns -1, 0 or 1.
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
