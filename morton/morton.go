// Package morton interleaves tile column and row bits into one Z-order code.
// Read two bits at a time from the top, a Z code of depth n is a quadtree path:
// the low bit of each pair selects the eastern half, the high bit the second row.
package morton

import (
	"fmt"
)

type Z uint64

// MaxDepth is the deepest quadtree path a Z can hold.
const MaxDepth = 32

var (
	masks = [...]uint64{
		0x5555555555555555,
		0x3333333333333333,
		0x0F0F0F0F0F0F0F0F,
		0x00FF00FF00FF00FF,
		0x0000FFFF0000FFFF,
		0x00000000FFFFFFFF,
	}
	shifts = [...]uint{1, 2, 4, 8, 16}
)

func spread(v uint32) uint64 {
	s := uint64(v)
	for i := len(shifts) - 1; i >= 0; i-- {
		s = (s | (s << shifts[i])) & masks[i]
	}
	return s
}

func compact(s uint64) uint32 {
	s &= masks[0]
	for i := range shifts {
		s = (s | (s >> shifts[i])) & masks[i+1]
	}
	return uint32(s)
}

func ToZ(x, y uint32) Z {
	return Z(spread(x) | spread(y)<<1)
}

func FromZ(z Z) (x, y uint32) {
	return compact(uint64(z)), compact(uint64(z) >> 1)
}

// Digits renders the lowest depth bit pairs of z as a path of '0'..'3', most significant pair first.
func Digits(z Z, depth uint) string {
	if depth > MaxDepth {
		panic(fmt.Errorf(`cannot render Z at depth %v`, depth))
	}
	path := make([]byte, depth)
	for k := uint(0); k < depth; k++ {
		path[k] = '0' + byte((z>>(2*(depth-1-k)))&3)
	}
	return string(path)
}

// FromDigits is the inverse of Digits.
func FromDigits(path string) (Z, error) {
	if len(path) > MaxDepth {
		return 0, fmt.Errorf(`path of length %v is deeper than %v`, len(path), MaxDepth)
	}
	var z Z
	for i := 0; i < len(path); i++ {
		d := path[i]
		if d < '0' || d > '3' {
			return 0, fmt.Errorf(`invalid digit %q at position %v of %q`, d, i, path)
		}
		z = z<<2 | Z(d-'0')
	}
	return z, nil
}
