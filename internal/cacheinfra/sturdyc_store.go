// Package cacheinfra adapts the sturdyc cache library into the payload store
// consumed by the query cache. One sturdyc client is kept per retention
// class, since sturdyc's TTL is a per-client setting.
package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// RetentionClass selects which underlying client, and therefore which TTL,
// holds a payload.
type RetentionClass uint8

const (
	// RetentionDefault is the standard freshness window.
	RetentionDefault RetentionClass = iota
	// RetentionLong is for rarely-changing data.
	RetentionLong
	// RetentionShort is for payloads that should expire quickly.
	RetentionShort
)

// classes enumerates every retention class a store must back.
var classes = []RetentionClass{RetentionDefault, RetentionLong, RetentionShort}

// Config holds the configuration for the sturdyc payload store.
type Config struct {
	// Capacity defines the maximum number of payloads each class client can
	// store. Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	// Must be greater than 0.
	NumShards int

	// EvictionPercentage specifies what percentage of entries to evict when a
	// client reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// Retention maps each class to its freshness window. Every class must
	// have a positive duration.
	Retention map[RetentionClass]time.Duration
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	for _, class := range classes {
		if c.Retention[class] <= 0 {
			return &ConfigError{Field: "Retention", Message: "every retention class needs a positive duration"}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// sturdycStore fans payloads out to one sturdyc client per retention class.
// sturdyc owns expiry and capacity eviction; a Get miss means the payload is
// no longer fresh and the caller should refetch.
type sturdycStore struct {
	clients map[RetentionClass]*sturdyc.Client[any]
}

// NewSturdycStore creates the payload store. It validates the configuration
// and initializes one sturdyc client per retention class.
//
// Version compatibility note: this assumes the sturdyc v1.x API. Monitor
// sturdyc version upgrades for constructor signature changes.
func NewSturdycStore(cfg Config) (*sturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clients := make(map[RetentionClass]*sturdyc.Client[any], len(classes))
	for _, class := range classes {
		clients[class] = sturdyc.New[any](
			cfg.Capacity,
			cfg.NumShards,
			cfg.Retention[class],
			cfg.EvictionPercentage,
		)
	}

	return &sturdycStore{clients: clients}, nil
}

// Get returns the fresh payload for key, checking every class client.
// A key lives in exactly one client at a time (Set deletes from the others),
// so the scan cannot return a duplicate.
func (s *sturdycStore) Get(key string) (any, bool) {
	for _, class := range classes {
		if value, ok := s.clients[class].Get(key); ok {
			return value, true
		}
	}
	return nil, false
}

// Set stores the payload under the client matching class and removes any
// older payload the key held in another class.
func (s *sturdycStore) Set(key string, value any, class RetentionClass) {
	for _, other := range classes {
		if other != class {
			s.clients[other].Delete(key)
		}
	}
	s.clients[class].Set(key, value)
}

// Delete drops the payload for key from every class client.
func (s *sturdycStore) Delete(key string) {
	for _, class := range classes {
		s.clients[class].Delete(key)
	}
}
