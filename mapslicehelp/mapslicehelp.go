package mapslicehelp

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
)

// Set is a plain hash set.
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](elements ...T) Set[T] {
	s := make(Set[T], len(elements))
	for _, e := range elements {
		s[e] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(e T) {
	s[e] = struct{}{}
}

func (s Set[T]) AddAll(o Set[T]) {
	for e := range o {
		s[e] = struct{}{}
	}
}

func (s Set[T]) Remove(e T) {
	delete(s, e)
}

func (s Set[T]) Contains(e T) bool {
	_, ok := s[e]
	return ok
}

func (s Set[T]) Clone() Set[T] {
	return maps.Clone(s)
}

// Difference returns the elements of a that are not in b.
func Difference[T comparable](a, b Set[T]) Set[T] {
	d := make(Set[T])
	for e := range a {
		if !b.Contains(e) {
			d[e] = struct{}{}
		}
	}
	return d
}

func Intersection[T comparable](a, b Set[T]) Set[T] {
	if len(b) < len(a) {
		a, b = b, a
	}
	i := make(Set[T])
	for e := range a {
		if b.Contains(e) {
			i[e] = struct{}{}
		}
	}
	return i
}

func Union[T comparable](a, b Set[T]) Set[T] {
	u := make(Set[T], len(a)+len(b))
	u.AddAll(a)
	u.AddAll(b)
	return u
}

// SortedKeys returns the keys of m in ascending order, for deterministic iteration.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func AsKeys[T comparable](elements []T) Set[T] {
	return NewSet(elements...)
}

func OrderedMapKeys[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []K {
	l := make([]K, m.Len())
	i := 0
	for p := m.Oldest(); p != nil; p = p.Next() {
		l[i] = p.Key
		i++
	}
	return l
}

// PopOldest removes and returns up to n of the oldest entries of m, oldest first.
func PopOldest[K comparable, V any](m *orderedmap.OrderedMap[K, V], n int) []K {
	if n <= 0 {
		return nil
	}
	popped := make([]K, 0, min(n, m.Len()))
	for p := m.Oldest(); p != nil && len(popped) < n; p = p.Next() {
		popped = append(popped, p.Key)
	}
	for _, k := range popped {
		m.Delete(k)
	}
	return popped
}
