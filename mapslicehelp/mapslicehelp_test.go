package mapslicehelp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func TestSetOperations(t *testing.T) {
	a := NewSet(1, 2, 3)
	b := NewSet(2, 3, 4)

	assert.Equal(t, NewSet(1), Difference(a, b))
	assert.Equal(t, NewSet(2, 3), Intersection(a, b))
	assert.Equal(t, NewSet(1, 2, 3, 4), Union(a, b))

	c := a.Clone()
	c.Remove(1)
	assert.True(t, a.Contains(1))
	assert.False(t, c.Contains(1))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}

func TestPopOldest(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		want     []string
		wantLeft []string
	}{
		{name: "none", n: 0, want: nil, wantLeft: []string{"a", "b", "c"}},
		{name: "some", n: 2, want: []string{"a", "b"}, wantLeft: []string{"c"}},
		{name: "more than available", n: 5, want: []string{"a", "b", "c"}, wantLeft: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := orderedmap.New[string, struct{}]()
			for _, k := range []string{"a", "b", "c"} {
				m.Set(k, struct{}{})
			}
			assert.Equal(t, tt.want, PopOldest(m, tt.n))
			assert.Equal(t, tt.wantLeft, OrderedMapKeys(m))
		})
	}
}
