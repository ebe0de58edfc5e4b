package sortedset

import (
	"cmp"
	"iter"
	"slices"
)

//AlreadyPresent is returned by InsertionIndex when the value is a member already
const AlreadyPresent = -1

//Set is an always sorted sequence of unique values
//the ordering is given by the cmp func passed on construction
//Set is not safe for concurrent use, the owner must guard it
type Set[T any] struct {
	items []T
	cmp   func(a, b T) int
}

//New creates the empty set ordered by cmp
func New[T any](cmp func(a, b T) int) *Set[T] {
	return &Set[T]{cmp: cmp}
}

//NewOrdered creates the empty set for the builtin ordered types
func NewOrdered[T cmp.Ordered]() *Set[T] {
	return New(cmp.Compare[T])
}

//Of builds the set from arbitrary values, duplicates are dropped
func Of[T any](cmp func(a, b T) int, values ...T) *Set[T] {
	s := New(cmp)
	for _, v := range values {
		s.Insert(v)
	}
	return s
}

func (s *Set[T]) Len() int {
	return len(s.items)
}

//At returns the i-th smallest member
func (s *Set[T]) At(i int) T {
	return s.items[i]
}

//search locates v: the index of the member equal to v or the index where v would be inserted
func (s *Set[T]) search(v T) (int, bool) {
	lo, hi := 0, len(s.items)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c := s.cmp(s.items[mid], v)
		switch {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid
		default:
			return mid, true
		}
	}
	return lo, false
}

//Contains reports whether v is a member, O(log n)
func (s *Set[T]) Contains(v T) bool {
	_, found := s.search(v)
	return found
}

//InsertionIndex returns the index v should be inserted at to keep the order
//or AlreadyPresent if v is a member
func (s *Set[T]) InsertionIndex(v T) int {
	i, found := s.search(v)
	if found {
		return AlreadyPresent
	}
	return i
}

//Insert adds v, returns false if it was a member already
func (s *Set[T]) Insert(v T) bool {
	i := s.InsertionIndex(v)
	if i == AlreadyPresent {
		return false
	}
	s.items = slices.Insert(s.items, i, v)
	return true
}

//Upsert inserts v or, when an equal member exists, calls merge with a pointer to the stored member
//merge must not change the member's position in the order
func (s *Set[T]) Upsert(v T, merge func(stored *T)) {
	i, found := s.search(v)
	if found {
		merge(&s.items[i])
		return
	}
	s.items = slices.Insert(s.items, i, v)
}

//Remove deletes v, returns false if it was not a member
func (s *Set[T]) Remove(v T) bool {
	i, found := s.search(v)
	if !found {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

//DeleteRange removes the members with index in [lo, hi) for which del returns true
//returns the count of removed members
func (s *Set[T]) DeleteRange(lo, hi int, del func(T) bool) int {
	lo, hi = s.clamp(lo, hi)
	if lo >= hi {
		return 0
	}
	kept := lo
	for i := lo; i < hi; i++ {
		if !del(s.items[i]) {
			s.items[kept] = s.items[i]
			kept++
		}
	}
	removed := hi - kept
	if removed > 0 {
		s.items = slices.Delete(s.items, kept, hi)
	}
	return removed
}

//DeleteSpans removes every member of the index windows [lo, hi) in one compaction
//the spans must be ascending, overlapping parts are removed once
//returns the count of removed members
func (s *Set[T]) DeleteSpans(spans [][2]int) int {
	w, r, removed := 0, 0, 0
	for _, sp := range spans {
		lo, hi := s.clamp(sp[0], sp[1])
		lo = max(lo, r)
		if lo >= hi {
			continue
		}
		if w == r {
			w = lo
		} else {
			w += copy(s.items[w:], s.items[r:lo])
		}
		r = hi
		removed += hi - lo
	}
	if removed == 0 {
		return 0
	}
	w += copy(s.items[w:], s.items[r:])
	clear(s.items[w:])
	s.items = s.items[:w]
	return removed
}

//Clear removes all members keeping the allocated storage
func (s *Set[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

//Clone returns an independent copy of the set
func (s *Set[T]) Clone() *Set[T] {
	return &Set[T]{items: slices.Clone(s.items), cmp: s.cmp}
}

//Equal reports whether both sets hold the same members
func (s *Set[T]) Equal(o *Set[T]) bool {
	return slices.EqualFunc(s.items, o.items, func(a, b T) bool { return s.cmp(a, b) == 0 })
}

//Slice returns a copy of the members in order
func (s *Set[T]) Slice() []T {
	return slices.Clone(s.items)
}

//All iterates the members in ascending order
//the returned sequence can be ranged over any number of times
func (s *Set[T]) All() iter.Seq[T] {
	return s.Range(0, len(s.items))
}

//Range iterates the members with index in [lo, hi)
func (s *Set[T]) Range(lo, hi int) iter.Seq[T] {
	return func(yield func(T) bool) {
		l, h := s.clamp(lo, hi)
		for i := l; i < h && i < len(s.items); i++ {
			if !yield(s.items[i]) {
				return
			}
		}
	}
}

//FirstIndex returns the lowest index whose member matches the key, -1 if none does
//key compares a member against the searched key and may report equality for several adjacent members
//the key ordering must be consistent with the set ordering
func (s *Set[T]) FirstIndex(key func(T) int) int {
	i := s.LowerBound(key)
	if i < len(s.items) && key(s.items[i]) == 0 {
		return i
	}
	return -1
}

//LastIndex returns the highest index whose member matches the key, -1 if none does
func (s *Set[T]) LastIndex(key func(T) int) int {
	i := s.UpperBound(key) - 1
	if i >= 0 && key(s.items[i]) == 0 {
		return i
	}
	return -1
}

//LowerBound returns the first index whose member is not below the key
func (s *Set[T]) LowerBound(key func(T) int) int {
	lo, hi := 0, len(s.items)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if key(s.items[mid]) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

//UpperBound returns the first index whose member is above the key
func (s *Set[T]) UpperBound(key func(T) int) int {
	lo, hi := 0, len(s.items)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if key(s.items[mid]) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (s *Set[T]) clamp(lo, hi int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > len(s.items) {
		hi = len(s.items)
	}
	return lo, hi
}
