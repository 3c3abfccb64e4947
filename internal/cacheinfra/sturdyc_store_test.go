package cacheinfra

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Capacity:           100,
		NumShards:          4,
		EvictionPercentage: 10,
		Retention: map[RetentionClass]time.Duration{
			RetentionDefault: time.Minute,
			RetentionLong:    time.Hour,
			RetentionShort:   50 * time.Millisecond,
		},
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"valid", func(*Config) {}, "", false},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, "Capacity", true},
		{"zero shards", func(c *Config) { c.NumShards = 0 }, "NumShards", true},
		{"eviction too low", func(c *Config) { c.EvictionPercentage = 0 }, "EvictionPercentage", true},
		{"eviction too high", func(c *Config) { c.EvictionPercentage = 101 }, "EvictionPercentage", true},
		{"missing class retention", func(c *Config) { delete(c.Retention, RetentionShort) }, "Retention", true},
		{"negative retention", func(c *Config) { c.Retention[RetentionLong] = -time.Minute }, "Retention", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			// copy the map so mutations stay test-local
			retention := make(map[RetentionClass]time.Duration, len(cfg.Retention))
			for k, v := range cfg.Retention {
				retention[k] = v
			}
			cfg.Retention = retention
			tc.mutate(&cfg)

			err := cfg.Validate()
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			cerr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cerr.Field != tc.field {
				t.Errorf("expected error on field %s, got %s", tc.field, cerr.Field)
			}
		})
	}
}

func TestNewSturdycStore_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity = -1
	if _, err := NewSturdycStore(cfg); err == nil {
		t.Fatal("expected a config error")
	}
}

func TestSturdycStore_SetGetDelete(t *testing.T) {
	store, err := NewSturdycStore(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.Set("products::1", map[string]string{"name": "chair"}, RetentionDefault)
	got, ok := store.Get("products::1")
	if !ok {
		t.Fatal("expected the payload back")
	}
	if got.(map[string]string)["name"] != "chair" {
		t.Errorf("unexpected payload: %v", got)
	}

	store.Delete("products::1")
	if _, ok := store.Get("products::1"); ok {
		t.Error("expected the payload gone after delete")
	}
}

func TestSturdycStore_SetMovesKeyBetweenClasses(t *testing.T) {
	store, err := NewSturdycStore(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.Set("categories", "v1", RetentionDefault)
	store.Set("categories", "v2", RetentionLong)

	got, ok := store.Get("categories")
	if !ok || got != "v2" {
		t.Fatalf("expected the re-classed payload, got %v (ok=%v)", got, ok)
	}
	if _, stale := store.clients[RetentionDefault].Get("categories"); stale {
		t.Error("the old class client must drop the key on re-class")
	}
}

func TestSturdycStore_ShortRetentionExpires(t *testing.T) {
	store, err := NewSturdycStore(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.Set("label", "pdf-bytes", RetentionShort)
	if _, ok := store.Get("label"); !ok {
		t.Fatal("expected the payload fresh immediately after set")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := store.Get("label"); ok {
		t.Error("expected the payload to age out of the short window")
	}
}
