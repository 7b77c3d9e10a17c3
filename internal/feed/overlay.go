package feed

import "sync"

// Overlay holds optimistic local values on top of a Feed. A staged value
// shows immediately; Confirm replaces it with the server's answer and Revert
// drops it. Confirmed values live until the next wholesale refresh, after
// which ClearConfirmed hands authority back to the feed.
type Overlay[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]overlayEntry[V]
}

type overlayEntry[V any] struct {
	value     V
	confirmed bool
}

func NewOverlay[K comparable, V any]() *Overlay[K, V] {
	return &Overlay[K, V]{entries: make(map[K]overlayEntry[V])}
}

// Stage records an unconfirmed local value for k.
func (o *Overlay[K, V]) Stage(k K, v V) {
	o.mu.Lock()
	o.entries[k] = overlayEntry[V]{value: v}
	o.mu.Unlock()
}

// Confirm stores the authoritative value for k.
func (o *Overlay[K, V]) Confirm(k K, v V) {
	o.mu.Lock()
	o.entries[k] = overlayEntry[V]{value: v, confirmed: true}
	o.mu.Unlock()
}

// Revert drops whatever is recorded for k.
func (o *Overlay[K, V]) Revert(k K) {
	o.mu.Lock()
	delete(o.entries, k)
	o.mu.Unlock()
}

func (o *Overlay[K, V]) Get(k K) (V, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	e, ok := o.entries[k]
	return e.value, ok
}

// Pending reports whether k has a staged value still waiting for the server.
func (o *Overlay[K, V]) Pending(k K) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	e, ok := o.entries[k]
	return ok && !e.confirmed
}

// ClearConfirmed drops confirmed entries. Staged ones survive so an in-flight
// toggle is not lost to a refresh that raced it.
func (o *Overlay[K, V]) ClearConfirmed() {
	o.mu.Lock()
	for k, e := range o.entries {
		if e.confirmed {
			delete(o.entries, k)
		}
	}
	o.mu.Unlock()
}

func (o *Overlay[K, V]) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.entries)
}
