package querycache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/transport"
)

// Options configures a Cache.
type Options struct {
	// Store holds fresh payloads and owns their expiry. Required.
	Store cache.ResultStore

	// Transport executes requests on cache misses. Required.
	Transport transport.Doer

	// Keys overrides the canonical key serializer. Nil uses the default.
	Keys cache.KeySerializer

	// Logger receives cache lifecycle events. Nil disables logging.
	Logger *zap.Logger

	// GCInterval enables a background sweep of unobserved entries.
	// Zero disables the sweeper; Sweep can still be called directly.
	GCInterval time.Duration
}

// Cache is the process-wide query cache: one entry per (endpoint,
// serialized-args) pair, a tag graph linking entries to the mutations that
// invalidate them, and the optimistic mutation executor. Construct one per
// client; there is no hidden package-level instance.
type Cache struct {
	entries   *xsync.MapOf[string, *entry]
	graph     *tagGraph
	store     cache.ResultStore
	keys      cache.KeySerializer
	transport transport.Doer
	logger    *zap.Logger

	subSeq   atomic.Uint64
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Cache. It starts the GC sweeper when GCInterval is set;
// callers owning such a cache must Stop it.
func New(opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, &EndpointError{Message: "Options.Store is required"}
	}
	if opts.Transport == nil {
		return nil, &EndpointError{Message: "Options.Transport is required"}
	}
	keys := opts.Keys
	if keys == nil {
		keys = cache.NewDefaultKeySerializer()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Cache{
		entries:   xsync.NewMapOf[string, *entry](),
		graph:     newTagGraph(),
		store:     opts.Store,
		keys:      keys,
		transport: opts.Transport,
		logger:    logger,
		stop:      make(chan struct{}),
	}

	if opts.GCInterval > 0 {
		go c.gcLoop(opts.GCInterval)
	}
	return c, nil
}

// Stop halts the background sweeper. Idempotent.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Key returns the canonical cache key for (endpoint, args).
func (c *Cache) Key(ep *Endpoint, args any) string {
	keyArgs := args
	if ep.KeyArgs != nil {
		keyArgs = ep.KeyArgs(args)
	}
	if keyArgs == nil {
		return c.keys.SerializeKey(ep.Name)
	}
	return c.keys.SerializeKey(ep.Name, keyArgs)
}

// Fetch resolves (endpoint, args): a fresh payload within its retention
// window is served without touching transport, concurrent identical reads
// coalesce into one in-flight request, and a paginated page change forces a
// transport hit despite the shared key. On transport or transform failure
// the entry keeps any previously cached data, stale-but-displayable.
func (c *Cache) Fetch(ctx context.Context, ep *Endpoint, args any) (Result, error) {
	if err := ep.validate(); err != nil {
		return Result{}, err
	}
	key := c.Key(ep, args)

	var e *entry
	for {
		e, _ = c.entries.LoadOrCompute(key, func() *entry { return newEntry(key, ep) })
		e.mu.Lock()
		if cur, ok := c.entries.Load(key); !ok || cur != e {
			// entry was swept between load and lock
			e.mu.Unlock()
			continue
		}

		force := e.hasFetched && ep.ForceRefetch != nil && ep.ForceRefetch(e.lastArgs, args)

		if !force && !e.stale {
			if payload, ok := c.store.Get(key); ok {
				if e.status != StatusSuccess {
					// payload outlived the entry state; rebuild from it
					e.status = StatusSuccess
					e.data = payload
					e.err = nil
				}
				res := e.resultLocked()
				e.mu.Unlock()
				return res, nil
			}
		}

		if e.inflight == nil {
			break // this goroutine owns the fetch; e.mu still held
		}

		done := e.inflight
		e.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
		if force {
			// the resolved flight carried different arguments; go again
			continue
		}
		e.mu.Lock()
		res := e.resultLocked()
		e.mu.Unlock()
		return res, res.Err
	}

	done := make(chan struct{})
	e.inflight = done
	e.status = StatusLoading
	e.lastArgs = args
	e.hasFetched = true
	e.notifyLocked()
	e.mu.Unlock()

	c.logger.Debug("fetch", zap.String("key", key))
	body, err := c.transport.Do(ctx, ep.Request(args))
	var data any
	if err == nil {
		data, err = ep.Transform(body)
	}

	e.mu.Lock()
	if err != nil {
		e.status = StatusError
		e.err = err
		c.logger.Debug("fetch failed", zap.String("key", key), zap.Error(err))
	} else {
		merged := data
		if ep.Merge != nil && e.data != nil {
			// Merge receives a private copy; the pre-merge value stays
			// frozen for any Result already handed out.
			merged = ep.Merge(snapshotOf(e.data), data)
		}
		e.data = merged
		e.status = StatusSuccess
		e.err = nil
		e.stale = false
		e.lastFetchedAt = time.Now()

		var tags []cache.Tag
		if ep.ProvidesTags != nil {
			tags = ep.ProvidesTags(merged)
		}
		c.graph.reregister(key, e.tags, tags)
		e.tags = tags

		c.store.Set(key, merged, ep.Retention)
	}
	close(done)
	e.inflight = nil
	e.notifyLocked()
	res := e.resultLocked()
	e.mu.Unlock()
	return res, err
}

// Read returns the current state of (endpoint, args) without fetching.
func (c *Cache) Read(ep *Endpoint, args any) Result {
	e, ok := c.entries.Load(c.Key(ep, args))
	if !ok {
		return Result{Status: StatusIdle}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resultLocked()
}

// Subscribe registers a consumer on (endpoint, args) and resolves the entry.
// Multiple subscribers share one entry and one in-flight request. A fetch
// failure is not a subscribe failure: it is delivered through the entry
// state and the Updates feed.
func (c *Cache) Subscribe(ctx context.Context, ep *Endpoint, args any) (*Subscription, error) {
	if err := ep.validate(); err != nil {
		return nil, err
	}
	key := c.Key(ep, args)
	sub := &Subscription{
		id:      c.subSeq.Add(1),
		key:     key,
		c:       c,
		updates: make(chan Result, 1),
	}

	for {
		e, _ := c.entries.LoadOrCompute(key, func() *entry { return newEntry(key, ep) })
		e.mu.Lock()
		if cur, ok := c.entries.Load(key); !ok || cur != e {
			e.mu.Unlock()
			continue
		}
		e.subscribers[sub.id] = sub
		e.mu.Unlock()
		break
	}

	c.Fetch(ctx, ep, args)
	return sub, nil
}

// Invalidate marks every entry registered against any of the tags stale and
// drops its fresh payload. Stale entries with active subscribers refetch in
// the background so visible consumers converge without user action; stale
// unobserved entries are simply dropped at the next GC pass.
func (c *Cache) Invalidate(tags ...cache.Tag) {
	if len(tags) == 0 {
		return
	}
	keys := c.graph.keysFor(tags)
	for _, key := range keys {
		e, ok := c.entries.Load(key)
		if !ok {
			continue
		}
		e.mu.Lock()
		e.stale = true
		c.store.Delete(key)
		active := len(e.subscribers) > 0
		e.mu.Unlock()
		if active {
			go c.refetch(key)
		}
	}
	c.logger.Debug("invalidate",
		zap.Int("tags", len(tags)),
		zap.Int("entries", len(keys)),
	)
}

// OnReconnect refetches every currently-subscribed entry. The offline
// detector calls this once connectivity returns.
func (c *Cache) OnReconnect(ctx context.Context) {
	type target struct {
		ep   *Endpoint
		args any
	}
	var targets []target
	c.entries.Range(func(key string, e *entry) bool {
		e.mu.Lock()
		if len(e.subscribers) > 0 && e.hasFetched {
			e.stale = true
			c.store.Delete(key)
			targets = append(targets, target{ep: e.endpoint, args: e.lastArgs})
		}
		e.mu.Unlock()
		return true
	})
	for _, t := range targets {
		if _, err := c.Fetch(ctx, t.ep, t.args); err != nil {
			c.logger.Warn("reconnect refetch failed",
				zap.String("endpoint", t.ep.Name), zap.Error(err))
		}
	}
}

// Sweep drops entries that have no subscribers and whose payload has aged
// out of its retention window (or was invalidated). Returns the number of
// entries removed.
func (c *Cache) Sweep() int {
	removed := 0
	c.entries.Range(func(key string, e *entry) bool {
		e.mu.Lock()
		drop := len(e.subscribers) == 0 && e.inflight == nil
		if drop && !e.stale {
			if _, fresh := c.store.Get(key); fresh {
				// still within retention; keep for reuse
				drop = false
			}
		}
		if drop {
			c.entries.Delete(key)
			c.graph.unregister(key, e.tags)
			c.store.Delete(key)
			removed++
		}
		e.mu.Unlock()
		return true
	})
	if removed > 0 {
		c.logger.Debug("gc sweep", zap.Int("removed", removed))
	}
	return removed
}

// Subscribers returns the current subscriber count for (endpoint, args).
func (c *Cache) Subscribers(ep *Endpoint, args any) int {
	e, ok := c.entries.Load(c.Key(ep, args))
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subscribers)
}

// EntryCount returns the number of live cache entries.
func (c *Cache) EntryCount() int {
	return c.entries.Size()
}

func (c *Cache) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}

// refetch re-resolves a stale entry in the background.
func (c *Cache) refetch(key string) {
	e, ok := c.entries.Load(key)
	if !ok {
		return
	}
	e.mu.Lock()
	ep, args, fetched := e.endpoint, e.lastArgs, e.hasFetched
	e.mu.Unlock()
	if !fetched {
		return
	}
	if _, err := c.Fetch(context.Background(), ep, args); err != nil {
		c.logger.Warn("background refetch failed",
			zap.String("key", key), zap.Error(err))
	}
}
