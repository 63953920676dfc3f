// Package memstore is the in-process record store behind STORE_BACKEND=memory.
// Every read returns clones so callers never alias stored records.
package memstore

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Table is a mutex-guarded map of records keyed by UUID.
type Table[T any] struct {
	mu    sync.RWMutex
	rows  map[uuid.UUID]*T
	clone func(*T) *T
}

func NewTable[T any](clone func(*T) *T) *Table[T] {
	return &Table[T]{rows: make(map[uuid.UUID]*T), clone: clone}
}

// Insert stores a clone of v. It reports false when id is taken.
func (t *Table[T]) Insert(id uuid.UUID, v *T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return false
	}
	t.rows[id] = t.clone(v)
	return true
}

func (t *Table[T]) Get(id uuid.UUID) (*T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return t.clone(v), true
}

// Mutate applies fn to the stored record under the write lock and returns
// clones of the record before and after. fn's error aborts the change.
func (t *Table[T]) Mutate(id uuid.UUID, fn func(*T) error) (before, after *T, found bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.rows[id]
	if !ok {
		return nil, nil, false, nil
	}
	before = t.clone(cur)
	next := t.clone(cur)
	if err := fn(next); err != nil {
		return before, nil, true, err
	}
	t.rows[id] = next
	return before, t.clone(next), true, nil
}

func (t *Table[T]) Delete(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

// Select returns clones of the records matching keep, ordered by less.
func (t *Table[T]) Select(keep func(*T) bool, less func(a, b *T) bool) []*T {
	t.mu.RLock()
	out := make([]*T, 0, len(t.rows))
	for _, v := range t.rows {
		if keep == nil || keep(v) {
			out = append(out, t.clone(v))
		}
	}
	t.mu.RUnlock()

	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out
}

// Any reports whether some record satisfies pred.
func (t *Table[T]) Any(pred func(*T) bool) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, v := range t.rows {
		if pred(v) {
			return true
		}
	}
	return false
}

func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Page slices records for limit/offset pagination.
func Page[T any](records []*T, limit, offset int) []*T {
	if offset >= len(records) {
		return []*T{}
	}
	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return records[offset:end]
}
