package cache

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, true},
		{"negative capacity", func(c *Config) { c.Capacity = -1 }, true},
		{"zero shards", func(c *Config) { c.NumShards = 0 }, true},
		{"eviction above 100", func(c *Config) { c.EvictionPercentage = 101 }, true},
		{"zero retention", func(c *Config) { c.Retention = 0 }, true},
		{"negative long retention", func(c *Config) { c.LongRetention = -time.Minute }, true},
		{"zero short retention", func(c *Config) { c.ShortRetention = 0 }, true},
		{"zero gc interval", func(c *Config) { c.GCInterval = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORECACHE_CAPACITY", "500")
	t.Setenv("STORECACHE_RETENTION", "30s")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capacity != 500 {
		t.Errorf("expected the env override, got %d", cfg.Capacity)
	}
	if cfg.Retention != 30*time.Second {
		t.Errorf("expected the env override, got %s", cfg.Retention)
	}
	if cfg.NumShards != DefaultConfig().NumShards {
		t.Errorf("unset variables must keep defaults, got %d", cfg.NumShards)
	}
}

func TestConfigFromEnv_InvalidValue(t *testing.T) {
	t.Setenv("STORECACHE_CAPACITY", "-3")

	if _, err := ConfigFromEnv(); err == nil {
		t.Error("expected the invalid override to fail validation")
	}
}

func TestNewResultStore(t *testing.T) {
	store, err := NewResultStore(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.Set("k", "v", RetentionDefault)
	got, ok := store.Get("k")
	if !ok || got != "v" {
		t.Fatalf("expected the stored value, got %v (ok=%v)", got, ok)
	}

	store.Delete("k")
	if _, ok := store.Get("k"); ok {
		t.Error("expected the value gone after delete")
	}
}

func TestNewResultStore_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 0
	if _, err := NewResultStore(cfg); err == nil {
		t.Error("expected an error for an invalid configuration")
	}
}
