package resource

import (
	"maps"
	"slices"

	"github.com/wippyai/wasm-gl/errors"
)

// Table maps handles to host-side values of one category.
//
// Handles come from a monotonic counter and are never reused for the
// lifetime of the table, so a stale handle held by a guest can never alias
// a newer resource. Get and Remove on an absent handle (including 0) fail
// with a not_found error.
//
// Table is not safe for concurrent use; it belongs to the render thread.
type Table[T any] struct {
	entries   map[Handle]T
	observers []Observer
	category  string
	phase     errors.Phase
	next      Handle
}

// NewTable creates an empty table. category names the table in errors and
// events (e.g. "buffer", "texture").
func NewTable[T any](category string) *Table[T] {
	return &Table[T]{
		entries:  make(map[Handle]T),
		category: category,
		phase:    errors.PhaseBridge,
	}
}

// Category returns the table's category name.
func (t *Table[T]) Category() string {
	return t.category
}

// Add stores value and returns its new handle. It never fails.
func (t *Table[T]) Add(value T) Handle {
	t.next++
	h := t.next
	t.entries[h] = value

	t.notify(Event{
		Type:     EventCreated,
		Category: t.category,
		Handle:   h,
		Value:    value,
	})
	return h
}

// Get returns the value for h.
func (t *Table[T]) Get(h Handle) (T, error) {
	v, ok := t.entries[h]
	if !ok {
		var zero T
		return zero, errors.HandleNotFound(t.phase, t.category, uint32(h))
	}
	return v, nil
}

// Has reports whether h is live.
func (t *Table[T]) Has(h Handle) bool {
	_, ok := t.entries[h]
	return ok
}

// Remove forgets h and returns its value so the caller can destroy it.
// A second Remove of the same handle fails.
func (t *Table[T]) Remove(h Handle) (T, error) {
	v, ok := t.entries[h]
	if !ok {
		var zero T
		return zero, errors.HandleNotFound(t.phase, t.category, uint32(h))
	}
	delete(t.entries, h)

	t.notify(Event{
		Type:     EventRemoved,
		Category: t.category,
		Handle:   h,
		Value:    v,
	})
	return v, nil
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	return len(t.entries)
}

// Issued returns the highest handle ever returned by Add.
func (t *Table[T]) Issued() Handle {
	return t.next
}

// Each calls fn for every live handle in ascending order until fn returns false.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	for _, h := range slices.Sorted(maps.Keys(t.entries)) {
		if !fn(h, t.entries[h]) {
			return
		}
	}
}

// Drain removes every live handle in ascending order, passing each value
// to release. The handle counter is kept, so handles issued afterwards
// still never collide with drained ones.
func (t *Table[T]) Drain(release func(Handle, T)) {
	for _, h := range slices.Sorted(maps.Keys(t.entries)) {
		v, err := t.Remove(h)
		if err != nil {
			continue
		}
		if release != nil {
			release(h, v)
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table[T]) Unsubscribe(o Observer) {
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table[T]) notify(e Event) {
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
