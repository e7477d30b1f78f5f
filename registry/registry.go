// Package registry provides concurrent containers keyed by generated
// integer ids or by unique string labels. The list structure is guarded
// by a reader/writer lock; each entry carries its own mutex so edits on
// distinct entries proceed in parallel while the list stays readable.
package registry

import (
	"errors"
	"sync"

	"golang.org/x/exp/slices"
)

// ErrNotFound is returned when a key has no entry.
var ErrNotFound = errors.New("not found")

// ---------------------------------------------------------------------------
// Integer-keyed store
// ---------------------------------------------------------------------------

type entry[V any] struct {
	id    uint64
	mu    sync.Mutex
	value V
}

// Store is a concurrent container keyed by generated ids. Ids are
// issued from a monotonic counter starting at 1 and never reused.
type Store[V any] struct {
	mu      sync.RWMutex
	entries []*entry[V]
	nextID  uint64
}

// NewStore builds an empty store.
func NewStore[V any]() *Store[V] {
	return &Store[V]{nextID: 1}
}

// Insert adds value under a fresh id and returns the id.
func (s *Store[V]) Insert(value V) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	// entries stay sorted because ids are monotonic
	s.entries = append(s.entries, &entry[V]{id: id, value: value})
	return id
}

// Erase removes the entry under id. It reports whether an entry was
// removed.
func (s *Store[V]) Erase(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.search(id)
	if !ok {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// Get returns the value under id.
func (s *Store[V]) Get(id uint64) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.search(id)
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return s.entries[i].value, nil
}

// Edit runs fn against the value under id while holding that entry's
// mutex. The list lock is held for reading only, so edits on distinct
// ids run concurrently.
func (s *Store[V]) Edit(id uint64, fn func(value V) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.search(id)
	if !ok {
		return ErrNotFound
	}
	e := s.entries[i]

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.value)
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Contains reports whether id has an entry.
func (s *Store[V]) Contains(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.search(id)
	return ok
}

// search locates id in the sorted entry slice. Callers hold s.mu.
func (s *Store[V]) search(id uint64) (int, bool) {
	return slices.BinarySearchFunc(s.entries, id, func(e *entry[V], id uint64) int {
		switch {
		case e.id < id:
			return -1
		case e.id > id:
			return 1
		default:
			return 0
		}
	})
}

// ---------------------------------------------------------------------------
// Label-keyed store
// ---------------------------------------------------------------------------

type labelEntry[V any] struct {
	label string
	mu    sync.Mutex
	value V
}

// LabelStore is a concurrent container keyed by unique string labels.
// The label population is small and bounded, so lookups scan linearly.
type LabelStore[V any] struct {
	mu      sync.RWMutex
	entries []*labelEntry[V]
}

// NewLabelStore builds an empty label store.
func NewLabelStore[V any]() *LabelStore[V] {
	return &LabelStore[V]{}
}

// Insert adds value under label. Duplicate labels are rejected.
func (s *LabelStore[V]) Insert(label string, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(label) >= 0 {
		return errors.New("bad values")
	}
	s.entries = append(s.entries, &labelEntry[V]{label: label, value: value})
	return nil
}

// Get returns the value under label.
func (s *LabelStore[V]) Get(label string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.find(label)
	if i < 0 {
		var zero V
		return zero, ErrNotFound
	}
	return s.entries[i].value, nil
}

// GetOrInsert returns the value under label, building and inserting it
// with factory when absent. Concurrent callers for the same label get
// the same value; factory runs at most once per inserted label.
func (s *LabelStore[V]) GetOrInsert(label string, factory func() (V, error)) (V, error) {
	if v, err := s.Get(label); err == nil {
		return v, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.find(label); i >= 0 {
		return s.entries[i].value, nil
	}
	v, err := factory()
	if err != nil {
		var zero V
		return zero, err
	}
	s.entries = append(s.entries, &labelEntry[V]{label: label, value: v})
	return v, nil
}

// Edit runs fn against the value under label while holding that
// entry's mutex.
func (s *LabelStore[V]) Edit(label string, fn func(value V) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.find(label)
	if i < 0 {
		return ErrNotFound
	}
	e := s.entries[i]

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.value)
}

// Len returns the number of entries.
func (s *LabelStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// find locates label. Callers hold s.mu.
func (s *LabelStore[V]) find(label string) int {
	for i, e := range s.entries {
		if e.label == label {
			return i
		}
	}
	return -1
}
