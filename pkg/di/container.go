// Package di wires the cache components into one injectable context object.
// There is deliberately no package-level singleton: each Container owns its
// own query cache, payload store, and transport, so tests construct isolated
// instances.
package di

import (
	"go.uber.org/zap"

	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/querycache"
	"github.com/soukhub/go-storecache/transport"
)

// Option customizes a Container.
type Option func(*settings)

type settings struct {
	doer      transport.Doer
	httpOpts  *transport.Options
	logger    *zap.Logger
	keys      cache.KeySerializer
	withoutGC bool
}

// WithTransport injects a pre-built transport, typically a test double.
func WithTransport(d transport.Doer) Option {
	return func(s *settings) { s.doer = d }
}

// WithHTTP builds the default HTTP transport from opts.
func WithHTTP(opts transport.Options) Option {
	return func(s *settings) { s.httpOpts = &opts }
}

// WithLogger attaches a logger to every component.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithKeySerializer overrides the default key serializer.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(s *settings) { s.keys = keys }
}

// WithoutGC disables the background sweeper; callers drive Sweep themselves.
func WithoutGC() Option {
	return func(s *settings) { s.withoutGC = true }
}

// Container provides dependency injection for the cache components. It holds
// the singleton instances one client needs: key serializer, payload store,
// transport, and the query cache built on them.
type Container struct {
	config cache.Config
	keys   cache.KeySerializer
	store  cache.ResultStore
	doer   transport.Doer
	cache  *querycache.Cache
}

// New creates a container from the provided configuration. Exactly one of
// WithTransport or WithHTTP must supply the transport.
func New(cfg cache.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.keys == nil {
		s.keys = cache.NewDefaultKeySerializer()
	}
	if s.doer == nil && s.httpOpts != nil {
		httpOpts := *s.httpOpts
		if httpOpts.Logger == nil {
			httpOpts.Logger = s.logger
		}
		s.doer = transport.New(httpOpts)
	}
	if s.doer == nil {
		return nil, &querycache.EndpointError{Message: "container needs WithTransport or WithHTTP"}
	}

	store, err := cache.NewResultStore(cfg)
	if err != nil {
		return nil, err
	}

	gcInterval := cfg.GCInterval
	if s.withoutGC {
		gcInterval = 0
	}
	qc, err := querycache.New(querycache.Options{
		Store:      store,
		Transport:  s.doer,
		Keys:       s.keys,
		Logger:     s.logger,
		GCInterval: gcInterval,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		config: cfg,
		keys:   s.keys,
		store:  store,
		doer:   s.doer,
		cache:  qc,
	}, nil
}

// NewWithDefaults creates a container using the default configuration.
func NewWithDefaults(opts ...Option) (*Container, error) {
	return New(cache.DefaultConfig(), opts...)
}

// Cache returns the query cache instance.
func (c *Container) Cache() *querycache.Cache {
	return c.cache
}

// Transport returns the transport instance.
func (c *Container) Transport() transport.Doer {
	return c.doer
}

// KeySerializer returns the key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keys
}

// Store returns the payload store instance.
func (c *Container) Store() cache.ResultStore {
	return c.store
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

// Close stops the background sweeper. Idempotent.
func (c *Container) Close() {
	c.cache.Stop()
}
