// Package sets provides a minimal generic Set ADT backed by a Go map.
package sets

// HashSet is a hash table based set with O(1) average-case Add/Contains,
// implemented directly on Go's built-in map rather than wrapping a
// separate interface: the only operations this module needs are
// membership tracking and insertion.
type HashSet[T comparable] map[T]struct{}

// NewHashSet creates a HashSet with the given initial capacity hint.
// The optional size parameter can be used to avoid map reallocations;
// if multiple values are provided, only the last positive value is used.
func NewHashSet[T comparable](size ...int) HashSet[T] {
	c := 0
	for _, s := range size {
		if s > 0 {
			c = s
		}
	}
	return make(HashSet[T], c)
}

// Contains reports whether x is in the set.
func (s HashSet[T]) Contains(x T) bool {
	_, ok := s[x]
	return ok
}

// Add inserts x into the set if it is not already present.
// Returns true if the set did not already contain x.
func (s HashSet[T]) Add(x T) bool {
	if s.Contains(x) {
		return false
	}
	s[x] = struct{}{}
	return true
}
