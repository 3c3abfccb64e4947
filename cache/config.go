package cache

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/soukhub/go-storecache/internal/cacheinfra"
)

// RetentionClass selects how long a payload stays servable without a refetch.
// Endpoints pick the class matching how quickly their data goes stale.
type RetentionClass = cacheinfra.RetentionClass

const (
	// RetentionDefault suits most endpoints.
	RetentionDefault = cacheinfra.RetentionDefault
	// RetentionLong suits rarely-changing data such as the catalog tree.
	RetentionLong = cacheinfra.RetentionLong
	// RetentionShort suits large payloads that should not linger,
	// such as shipping labels.
	RetentionShort = cacheinfra.RetentionShort
)

// Config exposes cache configuration options for consumers of the package.
type Config struct {
	// Capacity defines the maximum number of payloads per retention class.
	Capacity int `env:"STORECACHE_CAPACITY"`

	// NumShards determines the number of payload store shards.
	NumShards int `env:"STORECACHE_SHARDS"`

	// EvictionPercentage is the share of entries evicted when a class store
	// reaches capacity, between 1 and 100.
	EvictionPercentage int `env:"STORECACHE_EVICTION_PCT"`

	// Retention is the freshness window for RetentionDefault endpoints.
	Retention time.Duration `env:"STORECACHE_RETENTION"`

	// LongRetention is the freshness window for RetentionLong endpoints.
	LongRetention time.Duration `env:"STORECACHE_RETENTION_LONG"`

	// ShortRetention is the freshness window for RetentionShort endpoints.
	ShortRetention time.Duration `env:"STORECACHE_RETENTION_SHORT"`

	// GCInterval sets how often unsubscribed entries are swept.
	GCInterval time.Duration `env:"STORECACHE_GC_INTERVAL"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          64,
		EvictionPercentage: 10,
		Retention:          5 * time.Minute,
		LongRetention:      time.Hour,
		ShortRetention:     5 * time.Second,
		GCInterval:         time.Minute,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by STORECACHE_* environment
// variables, validated.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.Retention, validation.By(positiveDuration)),
		validation.Field(&c.LongRetention, validation.By(positiveDuration)),
		validation.Field(&c.ShortRetention, validation.By(positiveDuration)),
		validation.Field(&c.GCInterval, validation.By(positiveDuration)),
	)
}

func positiveDuration(value any) error {
	d, ok := value.(time.Duration)
	if !ok || d <= 0 {
		return validation.NewError("validation_positive_duration", "must be a positive duration")
	}
	return nil
}

// NewResultStore constructs the default payload store backed by sturdyc.
func NewResultStore(cfg Config) (ResultStore, error) {
	return cacheinfra.NewSturdycStore(cfg.toInternal())
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		EvictionPercentage: c.EvictionPercentage,
		Retention: map[cacheinfra.RetentionClass]time.Duration{
			cacheinfra.RetentionDefault: c.Retention,
			cacheinfra.RetentionLong:    c.LongRetention,
			cacheinfra.RetentionShort:   c.ShortRetention,
		},
	}
}
