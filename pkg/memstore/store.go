// Package memstore provides a generic, thread-safe, in-memory keyed store
// used for session state, locally held blobs, and other server-side state
// that has no durable backing in dev and test modes. It keeps insertion
// order for deterministic listing and supports cursor-based pagination.
package memstore

import (
	"encoding/json"
	"sort"
	"sync"
)

// Store is a generic, thread-safe, in-memory store for values of type T.
// T must be JSON-marshalable for snapshotting.
type Store[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string // insertion order for deterministic listing
}

// New creates an empty Store.
func New[T any]() *Store[T] {
	return &Store[T]{
		items: make(map[string]T),
		order: make([]string, 0),
	}
}

// Set stores a value under id. Overwriting an existing id preserves its
// position in the insertion order.
func (s *Store[T]) Set(id string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = item
}

// Get retrieves a value by id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// GetOrCreate returns the value under id, creating it with newFn when
// absent. The second return reports whether the value already existed.
func (s *Store[T]) GetOrCreate(id string, newFn func() T) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[id]; ok {
		return item, true
	}
	item := newFn()
	s.items[id] = item
	s.order = append(s.order, id)
	return item, false
}

// Delete removes a value by id. Returns true if it existed.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return false
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all values in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]T, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.items[id])
	}
	return result
}

// ListIDs returns all ids in insertion order.
func (s *Store[T]) ListIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Page is a paginated result set.
type Page[T any] struct {
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
	Cursor  string `json:"cursor,omitempty"`
	Total   int    `json:"total"`
}

// Paginate returns a page of values using cursor-based pagination. The
// cursor is the last id seen; an empty cursor starts from the beginning.
// A limit <= 0 returns everything.
func (s *Store[T]) Paginate(cursor string, limit int) Page[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	startIdx := 0
	if cursor != "" {
		for i, id := range s.order {
			if id == cursor {
				startIdx = i + 1
				break
			}
		}
	}

	if limit <= 0 {
		limit = len(s.order)
	}

	endIdx := startIdx + limit
	hasMore := false
	if endIdx > len(s.order) {
		endIdx = len(s.order)
	} else if endIdx < len(s.order) {
		hasMore = true
	}

	data := make([]T, 0, endIdx-startIdx)
	var lastCursor string
	for i := startIdx; i < endIdx; i++ {
		data = append(data, s.items[s.order[i]])
		lastCursor = s.order[i]
	}

	return Page[T]{
		Data:    data,
		HasMore: hasMore,
		Cursor:  lastCursor,
		Total:   len(s.order),
	}
}

// Count returns the number of stored values.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Filter returns values matching the predicate, in insertion order.
func (s *Store[T]) Filter(predicate func(id string, item T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []T
	for _, id := range s.order {
		if predicate(id, s.items[id]) {
			result = append(result, s.items[id])
		}
	}
	return result
}

// Reset clears all values.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
	s.order = make([]string, 0)
}

// Snapshot returns all values as a JSON-serializable map.
func (s *Store[T]) Snapshot() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]T, len(s.items))
	for k, v := range s.items {
		snapshot[k] = v
	}
	return snapshot
}

// LoadSnapshot replaces all values from a map. Ids are sorted so the
// resulting iteration order is deterministic.
func (s *Store[T]) LoadSnapshot(snapshot map[string]T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T, len(snapshot))
	s.order = make([]string, 0, len(snapshot))
	for k, v := range snapshot {
		s.items[k] = v
		s.order = append(s.order, k)
	}
	sort.Strings(s.order)
}

// MarshalJSON serializes the store as its items map.
func (s *Store[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// UnmarshalJSON replaces the store's contents from an items map.
func (s *Store[T]) UnmarshalJSON(data []byte) error {
	var snapshot map[string]T
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	s.LoadSnapshot(snapshot)
	return nil
}
