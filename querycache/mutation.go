package querycache

import (
	"context"
	"errors"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/transport"
)

// Mutation describes one write operation and its cache effects.
//
// The optimistic lifecycle is idle → applied → committed | reverted. The
// Optimistic hook applies patches synchronously before the transport call is
// dispatched, so any reader sees the speculative state immediately. Each
// patch carries its own inverse; two overlapping mutations revert
// independently, in their own capture order, regardless of which resolves
// first.
type Mutation struct {
	// Name identifies the mutation in logs. Required.
	Name string

	// Request builds the transport request. Required.
	Request func(args any) transport.Request

	// Transform decodes the success response body into the mutation result.
	// Optional; a nil Transform discards the body.
	Transform func(body []byte) (any, error)

	// InvalidatesTags declares the tags to invalidate after the mutation
	// commits, as a pure function of its arguments and decoded result.
	// Optional.
	InvalidatesTags func(args, result any) []cache.Tag

	// Optimistic applies speculative patches through the Patcher before the
	// network call. Optional.
	Optimistic func(p *Patcher, args any)

	// OnCommit runs after transport success, before tag invalidation. Used
	// to replace speculative placeholders with authoritative server records
	// (e.g. swap a client-generated temp id for the server-assigned one).
	// Writes here are not tracked for revert. Optional.
	OnCommit func(p *Patcher, args, result any)

	// Benign classifies a transport failure as success-of-intent (e.g. 409
	// on add-to-wishlist: the item genuinely is in the wishlist). A benign
	// failure skips the revert, runs OnBenign, invalidates tags, and
	// surfaces no error. Optional; without it every failure reverts.
	Benign func(terr *transport.Error, args any) bool

	// OnBenign discards speculative placeholders that the benign outcome
	// does not confirm, while durable flag flips stay. Optional.
	OnBenign func(p *Patcher, args any)
}

func (m *Mutation) validate() error {
	if m == nil {
		return &EndpointError{Message: "mutation is nil"}
	}
	if m.Name == "" {
		return &EndpointError{Message: "mutation name is required"}
	}
	if m.Request == nil {
		return &EndpointError{Name: m.Name, Message: "Request is required"}
	}
	return nil
}

// patchRecord captures one applied patch and the inverse that undoes it.
// It never outlives the mutation's resolution: discarded on commit, applied
// on revert.
type patchRecord struct {
	key     string
	ep      *Endpoint
	inverse func(data any) any
}

// Patcher applies cache patches on behalf of a single mutation. It tracks
// inverses per-mutation, never globally.
type Patcher struct {
	c       *Cache
	records []patchRecord
}

// Update patches the entry for (endpoint, args): forward computes the
// speculative data, inverse restores exactly the pre-patch state of what
// forward touched. Both run under the entry lock and must be synchronous.
// A missing entry is skipped; there is nothing displaying it.
//
// Inverses must be scoped to the records the forward patch touched. A
// whole-snapshot restore would also wipe patches a second mutation applied
// on top; record-level inverses keep concurrent mutations independent.
func (p *Patcher) Update(ep *Endpoint, args any, forward, inverse func(data any) any) {
	key := p.c.Key(ep, args)
	if p.apply(key, ep, forward) {
		p.records = append(p.records, patchRecord{key: key, ep: ep, inverse: inverse})
	}
}

// Write patches the entry for (endpoint, args) without tracking an inverse.
// Used by OnCommit and OnBenign, whose writes are authoritative.
func (p *Patcher) Write(ep *Endpoint, args any, fn func(data any) any) {
	p.apply(p.c.Key(ep, args), ep, fn)
}

// apply runs fn on a snapshot of the entry data and swaps the result in.
// Results published before the patch keep pointing at the old value, so
// consumers read them without holding the entry lock.
func (p *Patcher) apply(key string, ep *Endpoint, fn func(data any) any) bool {
	e, ok := p.c.entries.Load(key)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = fn(snapshotOf(e.data))
	p.writeThroughLocked(key, ep, e)
	e.notifyLocked()
	return true
}

// writeThroughLocked keeps the fresh payload in sync with patched entry
// data, without resurrecting a payload that already aged out.
func (p *Patcher) writeThroughLocked(key string, ep *Endpoint, e *entry) {
	if _, fresh := p.c.store.Get(key); fresh {
		p.c.store.Set(key, e.data, ep.Retention)
	}
}

// revert applies the captured inverses in reverse capture order and
// discards them.
func (p *Patcher) revert() {
	for i := len(p.records) - 1; i >= 0; i-- {
		r := p.records[i]
		e, ok := p.c.entries.Load(r.key)
		if !ok {
			continue
		}
		e.mu.Lock()
		e.data = r.inverse(snapshotOf(e.data))
		p.writeThroughLocked(r.key, r.ep, e)
		e.notifyLocked()
		e.mu.Unlock()
	}
	p.records = nil
}

// discard drops the captured inverses; the patches stand.
func (p *Patcher) discard() {
	p.records = nil
}

// Mutate executes the write operation m: optimistic patches apply
// synchronously before dispatch, then the transport outcome decides between
// commit (tags invalidated, authoritative data applied) and revert (inverse
// patches restore the pre-mutation state exactly). Reverted mutations
// surface the transport error and are never retried here; bounded retry is
// transport's concern and is exhausted by the time the error arrives.
//
// Mutations are fire-and-forget with respect to their caller: cancelling ctx
// aborts the transport call (and reverts), but an abandoned caller does not
// stop the cache from converging.
func (c *Cache) Mutate(ctx context.Context, m *Mutation, args any) (any, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	p := &Patcher{c: c}
	if m.Optimistic != nil {
		m.Optimistic(p, args)
	}

	body, err := c.transport.Do(ctx, m.Request(args))
	if err != nil {
		var terr *transport.Error
		if errors.As(err, &terr) && m.Benign != nil && m.Benign(terr, args) {
			p.discard()
			if m.OnBenign != nil {
				m.OnBenign(p, args)
			}
			c.invalidateFor(m, args, nil)
			c.logger.Debug("mutation benign failure",
				zap.String("mutation", m.Name), zap.Int("status", terr.Status))
			return nil, nil
		}
		p.revert()
		c.logger.Debug("mutation reverted",
			zap.String("mutation", m.Name), zap.Error(err))
		return nil, err
	}

	var result any
	if m.Transform != nil {
		result, err = m.Transform(body)
		if err != nil {
			p.revert()
			return nil, err
		}
	}

	p.discard()
	if m.OnCommit != nil {
		m.OnCommit(p, args, result)
	}
	c.invalidateFor(m, args, result)
	c.logger.Debug("mutation committed", zap.String("mutation", m.Name))
	return result, nil
}

func (c *Cache) invalidateFor(m *Mutation, args, result any) {
	if m.InvalidatesTags == nil {
		return
	}
	c.Invalidate(m.InvalidatesTags(args, result)...)
}

// CopyOf deep-copies a value. Optimistic handlers use it to capture the
// pre-patch state of the records they touch, so the inverse restores them
// bit-for-bit.
func CopyOf[T any](v T) T {
	var cp T
	if err := deepcopy.Copy(&cp, v); err != nil {
		return v
	}
	return cp
}
