// Package entity provides a generic normalized container for records with a
// stable identity. State is the pair {ids, entities}: ids is an ordered,
// duplicate-free sequence and entities maps every member of ids to its
// record. The two never disagree.
package entity

import (
	"slices"
	"sort"

	"github.com/tiendc/go-deepcopy"
)

// IDFunc extracts the uniform id from a record. It must be pure and total:
// every record an endpoint can return yields a non-empty id. Records whose
// wire shape uses a renamed or composite primary key (category_id, order_id)
// map it to the uniform id here.
type IDFunc[T any] func(record T) string

// Compare orders two records. Negative means a sorts before b.
type Compare[T any] func(a, b T) int

// Store holds one entity type's normalized records.
type Store[T any] struct {
	ids      []string
	entities map[string]T
	idOf     IDFunc[T]
	compare  Compare[T] // nil preserves insertion/API order
}

// NewStore creates an empty store that preserves insertion order.
func NewStore[T any](idOf IDFunc[T]) *Store[T] {
	return &Store[T]{
		entities: make(map[string]T),
		idOf:     idOf,
	}
}

// NewSortedStore creates an empty store kept sorted by compare. The order is
// maintained incrementally on every insert; the sequence is never re-sorted
// wholesale outside SetAll.
func NewSortedStore[T any](idOf IDFunc[T], compare Compare[T]) *Store[T] {
	s := NewStore(idOf)
	s.compare = compare
	return s
}

// Len returns the number of records.
func (s *Store[T]) Len() int {
	return len(s.ids)
}

// IDs returns the ids in order.
func (s *Store[T]) IDs() []string {
	return slices.Clone(s.ids)
}

// SetAll replaces the store contents wholesale, rebuilding order per the
// store's policy. Used for full-list refreshes.
func (s *Store[T]) SetAll(records []T) {
	s.ids = s.ids[:0]
	clear(s.entities)
	s.AddMany(records)
}

// AddOne inserts record, respecting the sort policy. It is a no-op if the id
// is already present; callers needing insert-or-replace use UpsertOne.
func (s *Store[T]) AddOne(record T) bool {
	id := s.idOf(record)
	if _, exists := s.entities[id]; exists {
		return false
	}
	s.entities[id] = record
	s.insertID(id, record)
	return true
}

// AddMany inserts each record, skipping ids already present.
func (s *Store[T]) AddMany(records []T) {
	for _, record := range records {
		s.AddOne(record)
	}
}

// UpsertOne inserts record or replaces the existing record with the same id.
// In insertion-order mode a replacement keeps its position; in sorted mode it
// is re-positioned in case the sort key changed.
func (s *Store[T]) UpsertOne(record T) {
	id := s.idOf(record)
	if _, exists := s.entities[id]; exists {
		s.entities[id] = record
		s.reposition(id, record)
		return
	}
	s.entities[id] = record
	s.insertID(id, record)
}

// UpdateOne merges changes into the existing record for id. It is a no-op if
// the id is absent; callers must check existence first when correctness
// depends on it. The change function receives the current record and returns
// the updated one.
func (s *Store[T]) UpdateOne(id string, change func(T) T) bool {
	current, exists := s.entities[id]
	if !exists {
		return false
	}
	// Identity is stable: the record stays under its original id even if the
	// change function rewrote the id field.
	updated := change(current)
	s.entities[id] = updated
	s.reposition(id, updated)
	return true
}

// InsertAt inserts record at position i, clamped to the current bounds. A
// sorted store ignores i and keeps its sort order; an existing id is replaced
// in place. Used to restore a removed record at its original position.
func (s *Store[T]) InsertAt(i int, record T) {
	id := s.idOf(record)
	if _, exists := s.entities[id]; exists {
		s.UpsertOne(record)
		return
	}
	s.entities[id] = record
	if s.compare != nil {
		s.insertID(id, record)
		return
	}
	if i < 0 {
		i = 0
	}
	if i > len(s.ids) {
		i = len(s.ids)
	}
	s.ids = slices.Insert(s.ids, i, id)
}

// IndexOf returns the position of id in the ordered sequence, -1 if absent.
func (s *Store[T]) IndexOf(id string) int {
	return slices.Index(s.ids, id)
}

// RemoveOne deletes id from both ids and entities.
func (s *Store[T]) RemoveOne(id string) bool {
	if _, exists := s.entities[id]; !exists {
		return false
	}
	delete(s.entities, id)
	s.removeID(id)
	return true
}

// RemoveMany deletes every given id.
func (s *Store[T]) RemoveMany(ids []string) {
	for _, id := range ids {
		s.RemoveOne(id)
	}
}

// SelectAll returns the records in ids order.
func (s *Store[T]) SelectAll() []T {
	records := make([]T, len(s.ids))
	for i, id := range s.ids {
		records[i] = s.entities[id]
	}
	return records
}

// SelectByID returns the record for id. The second return is false for a
// missing id; it never panics.
func (s *Store[T]) SelectByID(id string) (T, bool) {
	record, ok := s.entities[id]
	return record, ok
}

// Has reports whether id is present.
func (s *Store[T]) Has(id string) bool {
	_, ok := s.entities[id]
	return ok
}

// Clone returns a deep copy of the store. Records are copied through
// go-deepcopy so the clone shares no mutable state with the original.
func (s *Store[T]) Clone() *Store[T] {
	clone := &Store[T]{
		ids:      slices.Clone(s.ids),
		entities: make(map[string]T, len(s.entities)),
		idOf:     s.idOf,
		compare:  s.compare,
	}
	for id, record := range s.entities {
		var cp T
		if err := deepcopy.Copy(&cp, record); err != nil {
			cp = record
		}
		clone.entities[id] = cp
	}
	return clone
}

// insertID places id into the ordered sequence per the sort policy.
func (s *Store[T]) insertID(id string, record T) {
	if s.compare == nil {
		s.ids = append(s.ids, id)
		return
	}
	i := sort.Search(len(s.ids), func(i int) bool {
		return s.compare(record, s.entities[s.ids[i]]) < 0
	})
	s.ids = slices.Insert(s.ids, i, id)
}

func (s *Store[T]) removeID(id string) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}

// reposition re-inserts id when an update may have moved its sort key.
func (s *Store[T]) reposition(id string, record T) {
	if s.compare == nil {
		return
	}
	s.removeID(id)
	i := sort.Search(len(s.ids), func(i int) bool {
		return s.compare(record, s.entities[s.ids[i]]) < 0
	})
	s.ids = slices.Insert(s.ids, i, id)
}
