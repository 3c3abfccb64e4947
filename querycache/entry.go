package querycache

import (
	"sync"
	"time"

	"github.com/soukhub/go-storecache/cache"
)

// Status is the lifecycle state of a cache entry.
type Status uint8

const (
	// StatusIdle means the entry exists but has never resolved.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight and no prior data exists.
	StatusLoading
	// StatusSuccess means the entry holds normalized data.
	StatusSuccess
	// StatusError means the last fetch failed; prior data, if any, is kept.
	StatusError
)

// String renders the status for logs.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the read surface of an entry: current data, status, and the last
// error. Data is frozen at publication: patches and merges work on a snapshot
// and swap it in, so a Result stays valid to read from any goroutine for as
// long as the caller holds it.
type Result struct {
	Status Status
	Data   any
	Err    error
}

// Snapshotter is implemented by normalized data shapes that can produce an
// independent deep copy of themselves. Shapes carrying an entity.Store must
// implement it (reflection cannot reach the store's internals); plain value
// shapes may rely on the CopyOf fallback.
type Snapshotter interface {
	Snapshot() any
}

// snapshotOf returns a private copy of published entry data for a patch or
// merge to work on. The original stays frozen for any Result already handed
// out.
func snapshotOf(data any) any {
	if data == nil {
		return nil
	}
	if s, ok := data.(Snapshotter); ok {
		return s.Snapshot()
	}
	return CopyOf(data)
}

// entry is one cached query: (endpoint, serialized-args) → state.
type entry struct {
	key      string
	endpoint *Endpoint

	mu            sync.Mutex
	status        Status
	data          any
	err           error
	tags          []cache.Tag
	stale         bool
	lastFetchedAt time.Time
	lastArgs      any
	hasFetched    bool
	inflight      chan struct{}
	subscribers   map[uint64]*Subscription
}

func newEntry(key string, ep *Endpoint) *entry {
	return &entry{
		key:         key,
		endpoint:    ep,
		subscribers: make(map[uint64]*Subscription),
	}
}

// resultLocked snapshots the read surface. Callers hold e.mu.
func (e *entry) resultLocked() Result {
	return Result{Status: e.status, Data: e.data, Err: e.err}
}

// notifyLocked pushes the current result to every subscriber, latest-wins.
// Callers hold e.mu.
func (e *entry) notifyLocked() {
	res := e.resultLocked()
	for _, sub := range e.subscribers {
		sub.push(res)
	}
}

// Subscription is one consumer's handle on a cache entry. Updates delivers
// the entry's result after every change; delivery is latest-wins, so a slow
// consumer sees the newest state, not every intermediate one.
type Subscription struct {
	id      uint64
	key     string
	c       *Cache
	updates chan Result
	closed  bool
}

// Updates returns the change feed. The channel closes on Unsubscribe.
func (s *Subscription) Updates() <-chan Result {
	return s.updates
}

// Key returns the canonical cache key this subscription is attached to.
func (s *Subscription) Key() string {
	return s.key
}

// Unsubscribe stops counting this consumer against the entry. It does not
// cancel an in-flight request; the entry simply becomes eligible for GC once
// unobserved past its retention window.
func (s *Subscription) Unsubscribe() {
	e, ok := s.c.entries.Load(s.key)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(e.subscribers, s.id)
	close(s.updates)
}

// push delivers res without blocking: drop the stale buffered value first.
// Callers hold the entry mutex, which also serializes push against close.
func (s *Subscription) push(res Result) {
	if s.closed {
		return
	}
	select {
	case s.updates <- res:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- res:
		default:
		}
	}
}
