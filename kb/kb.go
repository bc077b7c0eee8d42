// Package kb holds per-link continuity state for the observable engines.
package kb

import (
	"sync"
	"time"

	"github.com/signalsfoundry/atdf-observables/model"
)

// EventType indicates what kind of change happened in a store.
type EventType int

const (
	// EventArmed: a pending record was stored on an empty link.
	EventArmed EventType = iota
	// EventConsumed: the pending record was paired and replaced.
	EventConsumed
	// EventReset: a discontinuity dropped the pending record.
	EventReset
)

func (e EventType) String() string {
	switch e {
	case EventArmed:
		return "armed"
	case EventConsumed:
		return "consumed"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers after every state change.
type Event[K comparable] struct {
	Type EventType
	Key  K
}

type subscriber[K comparable] struct {
	id int
	fn func(Event[K])
}

// Store is an in-memory, thread-safe map from link keys to state values.
// Keys handed to the constructor exist from the start with zero state;
// others are created on first write.
type Store[K comparable, V any] struct {
	mu sync.RWMutex

	entries map[K]V
	order   []K

	subs   []subscriber[K]
	nextID int
}

// NewStore constructs a store pre-populated with keys.
func NewStore[K comparable, V any](keys []K) *Store[K, V] {
	s := &Store[K, V]{
		entries: make(map[K]V, len(keys)),
		order:   make([]K, 0, len(keys)),
	}
	for _, k := range keys {
		if _, ok := s.entries[k]; ok {
			continue
		}
		var zero V
		s.entries[k] = zero
		s.order = append(s.order, k)
	}
	return s
}

// Get returns the state for key; absent keys read as the zero state.
func (s *Store[K, V]) Get(key K) V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key]
}

// Has reports whether key has an entry.
func (s *Store[K, V]) Has(key K) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// Len is the number of entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Put stores v under key and notifies subscribers with ev.
func (s *Store[K, V]) Put(key K, v V, ev EventType) {
	s.mu.Lock()
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = v
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Event[K]{Type: ev, Key: key})
}

// Reset returns key to the zero state and emits EventReset.
func (s *Store[K, V]) Reset(key K) {
	var zero V
	s.Put(key, zero, EventReset)
}

// Each calls fn for every entry in insertion order over a snapshot.
func (s *Store[K, V]) Each(fn func(K, V)) {
	s.mu.RLock()
	keys := append([]K(nil), s.order...)
	vals := make([]V, len(keys))
	for i, k := range keys {
		vals[i] = s.entries[k]
	}
	s.mu.RUnlock()

	for i, k := range keys {
		fn(k, vals[i])
	}
}

// Subscribe registers a callback for store events. It returns an
// unsubscribe function.
func (s *Store[K, V]) Subscribe(fn func(Event[K])) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber[K]{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store[K, V]) snapshotSubs() []func(Event[K]) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(Event[K]), len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.fn
	}
	return out
}

// Notify subscribers outside the lock to avoid deadlocks.
func notify[K comparable](subs []func(Event[K]), ev Event[K]) {
	for _, fn := range subs {
		fn(ev)
	}
}

// LinkState is the Doppler continuity state of one link.
type LinkState struct {
	Armed         bool
	Pending       model.CanonicalRecord
	ExpectedNext  time.Time
	CountInterval float64
}

// RampState is the pending ramp of one station and band, with its
// frequency and rate already converted to sky values.
type RampState struct {
	Armed     bool
	Pending   model.CanonicalRecord
	Frequency float64
	Rate      float64
}

type (
	LinkStore = Store[model.LinkKey, LinkState]
	RampStore = Store[model.RampKey, RampState]
)

// NewLinkStore is pre-populated with every DSN station and band pair.
func NewLinkStore() *LinkStore { return NewStore[model.LinkKey, LinkState](model.AllLinkKeys()) }

// NewRampStore is pre-populated with every DSN station and band.
func NewRampStore() *RampStore { return NewStore[model.RampKey, RampState](model.AllRampKeys()) }
