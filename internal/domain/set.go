package domain

import (
	"cmp"
	"encoding/json"
	"slices"
)

// Set is an immutable set of ordered values. The zero value is an empty set.
// Mutating methods return a new set and never touch the receiver.
type Set[T cmp.Ordered] struct {
	items map[T]struct{}
}

// NewSet builds a set from the given values.
func NewSet[T cmp.Ordered](values ...T) Set[T] {
	items := make(map[T]struct{}, len(values))
	for _, v := range values {
		items[v] = struct{}{}
	}
	return Set[T]{items: items}
}

// Has reports whether v is a member.
func (s Set[T]) Has(v T) bool {
	_, ok := s.items[v]
	return ok
}

// Len returns the number of members.
func (s Set[T]) Len() int {
	return len(s.items)
}

// IsEmpty reports whether the set has no members.
func (s Set[T]) IsEmpty() bool {
	return len(s.items) == 0
}

// With returns a copy of the set that also contains v.
func (s Set[T]) With(v T) Set[T] {
	next := s.clone()
	next.items[v] = struct{}{}
	return next
}

// Without returns a copy of the set without v.
func (s Set[T]) Without(v T) Set[T] {
	next := s.clone()
	delete(next.items, v)
	return next
}

// Toggle returns a copy with v's membership flipped.
func (s Set[T]) Toggle(v T) Set[T] {
	if s.Has(v) {
		return s.Without(v)
	}
	return s.With(v)
}

// Values returns the members in ascending order.
func (s Set[T]) Values() []T {
	out := make([]T, 0, len(s.items))
	for v := range s.items {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Equal reports whether both sets hold the same members.
func (s Set[T]) Equal(other Set[T]) bool {
	if s.Len() != other.Len() {
		return false
	}
	for v := range s.items {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes the set from an array.
func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var values []T
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewSet(values...)
	return nil
}

func (s Set[T]) clone() Set[T] {
	items := make(map[T]struct{}, len(s.items)+1)
	for v := range s.items {
		items[v] = struct{}{}
	}
	return Set[T]{items: items}
}
