// Package repository provides the in-memory data access layer. Every collection lives
// only in process memory; repositories hand out copies, never pointers into the tables.
package repository

import (
	"sync"

	"github.com/google/uuid"
)

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}

// table is an ordered, mutex-guarded collection keyed by id.
type table[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) string
	clone func(T) T
}

func newTable[T any](id func(T) string, clone func(T) T) *table[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &table[T]{id: id, clone: clone}
}

func (t *table[T]) append(v T) {
	t.mu.Lock()
	t.items = append(t.items, t.clone(v))
	t.mu.Unlock()
}

func (t *table[T]) prepend(v T) {
	t.mu.Lock()
	t.items = append([]T{t.clone(v)}, t.items...)
	t.mu.Unlock()
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, v := range t.items {
		if t.id(v) == id {
			return t.clone(v), true
		}
	}
	var zero T
	return zero, false
}

func (t *table[T]) find(match func(T) bool) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, v := range t.items {
		if match(v) {
			return t.clone(v), true
		}
	}
	var zero T
	return zero, false
}

// filter returns copies of every item matching match, in collection order.
// A nil match returns everything.
func (t *table[T]) filter(match func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.items))
	for _, v := range t.items {
		if match == nil || match(v) {
			out = append(out, t.clone(v))
		}
	}
	return out
}

// update applies fn to the item with the given id and reports whether it existed.
func (t *table[T]) update(id string, fn func(*T)) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.id(t.items[i]) == id {
			fn(&t.items[i])
			return t.clone(t.items[i]), true
		}
	}
	var zero T
	return zero, false
}

// updateWhere applies fn to every matching item and returns how many were touched.
func (t *table[T]) updateWhere(match func(T) bool, fn func(*T)) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for i := range t.items {
		if match(t.items[i]) {
			fn(&t.items[i])
			n++
		}
	}
	return n
}

// removeWhere drops every matching item and returns the removed rows.
func (t *table[T]) removeWhere(match func(T) bool) []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.items[:0:0]
	var removed []T
	for _, v := range t.items {
		if match(v) {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	t.items = kept
	return removed
}

func (t *table[T]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// edgeSet is a mutex-guarded set of directed edges with insertion timestamps.
type edgeSet[K comparable, V any] struct {
	mu    sync.RWMutex
	rows  map[K]V
	order []K
}

func newEdgeSet[K comparable, V any]() *edgeSet[K, V] {
	return &edgeSet[K, V]{rows: make(map[K]V)}
}

// add inserts the row and reports whether it was new.
func (s *edgeSet[K, V]) add(k K, v V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[k]; ok {
		return false
	}
	s.rows[k] = v
	s.order = append(s.order, k)
	return true
}

// remove deletes the row and reports whether it existed.
func (s *edgeSet[K, V]) remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[k]; !ok {
		return false
	}
	delete(s.rows, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *edgeSet[K, V]) has(k K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[k]
	return ok
}

func (s *edgeSet[K, V]) get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.rows[k]
	return v, ok
}

// values returns matching rows in insertion order.
func (s *edgeSet[K, V]) values(match func(K) bool) []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]V, 0)
	for _, k := range s.order {
		if match == nil || match(k) {
			out = append(out, s.rows[k])
		}
	}
	return out
}

// removeWhere deletes every matching row and returns them.
func (s *edgeSet[K, V]) removeWhere(match func(K) bool) []V {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []V
	kept := s.order[:0:0]
	for _, k := range s.order {
		if match(k) {
			removed = append(removed, s.rows[k])
			delete(s.rows, k)
			continue
		}
		kept = append(kept, k)
	}
	s.order = kept
	return removed
}
