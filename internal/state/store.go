// Package state holds the authoritative in-memory roadmap and applies
// structural mutations to it.
//
// Every mutation builds a new snapshot from a deep copy of the current one
// and swaps it in; published snapshots are never modified afterwards, so
// consumers can compare snapshots by pointer or by UpdatedAt instead of
// diffing them. Snapshots handed out by the store must be treated as
// read-only.
package state

import (
	"sort"
	"sync"
	"time"

	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/google/uuid"
)

// Origin tells listeners where a snapshot came from.
type Origin int

const (
	// OriginLocal marks snapshots produced by a mutation on this store.
	OriginLocal Origin = iota
	// OriginRemote marks snapshots installed by Replace (pulled state).
	OriginRemote
)

func (o Origin) String() string {
	if o == OriginRemote {
		return "remote"
	}
	return "local"
}

// Listener receives every new snapshot. Listeners run synchronously, in
// mutation order. They may read the store but must not call its mutating
// methods.
type Listener func(snapshot *roadmap.Roadmap, origin Origin)

// Store is the single mutator of the roadmap aggregate.
type Store struct {
	mu        sync.Mutex
	current   *roadmap.Roadmap
	listeners map[int]Listener
	nextID    int

	// writeMu serializes mutations together with their notifications, so
	// listeners observe snapshots in mutation order. Taken before mu.
	writeMu sync.Mutex

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the generator of lane, item and resource ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates a store holding a copy of initial. A nil initial roadmap
// starts the store from roadmap.NewDefault.
func New(initial *roadmap.Roadmap, opts ...Option) *Store {
	s := &Store{
		current:   initial.Clone(),
		listeners: make(map[int]Listener),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.current == nil {
		s.current = roadmap.NewDefault(s.now())
	}
	return s
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *roadmap.Roadmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers a listener for future snapshots and returns a function
// that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Replace installs r as the current snapshot without stamping it.
// Listeners see OriginRemote.
func (s *Store) Replace(r *roadmap.Roadmap) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.current = r.Clone()
	snapshot, listeners := s.current, s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot, OriginRemote)
}

// update applies fn to a deep copy of the current snapshot. When fn returns
// publish=true the copy is stamped and becomes current.
func (s *Store) update(fn func(next *roadmap.Roadmap) (publish bool)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	next := s.current.Clone()
	if !fn(next) {
		s.mu.Unlock()
		return
	}
	next.UpdatedAt = s.stampLocked()
	s.current = next
	snapshot, listeners := s.current, s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot, OriginLocal)
}

// stampLocked returns now, nudged forward so that UpdatedAt strictly
// increases across local mutations even with a coarse or skewed clock.
func (s *Store) stampLocked() time.Time {
	ts := s.now().UTC()
	if !ts.After(s.current.UpdatedAt) {
		ts = s.current.UpdatedAt.Add(time.Millisecond)
	}
	return ts
}

// listenersLocked returns the registered listeners in subscription order.
func (s *Store) listenersLocked() []Listener {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	return listeners
}

func notify(listeners []Listener, snapshot *roadmap.Roadmap, origin Origin) {
	for _, l := range listeners {
		l(snapshot, origin)
	}
}

// Lanes returns the current lanes sorted by Order. Lanes with equal Order
// keep their collection order.
func (s *Store) Lanes() []roadmap.Lane {
	return SortedLanes(s.Snapshot())
}

// SortedLanes returns r's lanes sorted by Order, stable on ties.
func SortedLanes(r *roadmap.Roadmap) []roadmap.Lane {
	lanes := append([]roadmap.Lane{}, r.Lanes...)
	sort.SliceStable(lanes, func(i, j int) bool { return lanes[i].Order < lanes[j].Order })
	return lanes
}
