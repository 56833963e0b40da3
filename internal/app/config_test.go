package app

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"KV_BACKEND", "LOCK_TTL", "REQUIRED_SLOTS", "SNAPSHOT_DRIVER", "RECENTLY_USED_CAP"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.KVBackend != KVBackendRedis || cfg.DB.Driver != "none" {
		t.Fatalf("backends: got kv=%s db=%s", cfg.KVBackend, cfg.DB.Driver)
	}
	if cfg.TTLs.Lock != 30*time.Second || cfg.TTLs.Candidates != 5*time.Minute {
		t.Fatalf("ttls: got=%+v", cfg.TTLs)
	}
	if cfg.RecentlyUsedCap != 20 || cfg.RequiredSlots != nil {
		t.Fatalf("pipeline options: cap=%d slots=%v", cfg.RecentlyUsedCap, cfg.RequiredSlots)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("KV_BACKEND", "Memory")
	t.Setenv("LOCK_TTL", "5s")
	t.Setenv("SESSION_TTL", "90")
	t.Setenv("REQUIRED_SLOTS", "hero, cta")
	t.Setenv("SNAPSHOT_DRIVER", "sqlite")
	t.Setenv("BACKGROUND_CONCURRENCY", "4")

	cfg := LoadConfig()
	if cfg.KVBackend != KVBackendMemory || cfg.DB.Driver != "sqlite" {
		t.Fatalf("backends: got kv=%s db=%s", cfg.KVBackend, cfg.DB.Driver)
	}
	if cfg.TTLs.Lock != 5*time.Second || cfg.TTLs.Session != 90*time.Second {
		t.Fatalf("ttls: got=%+v", cfg.TTLs)
	}
	if diff := cmp.Diff([]string{"hero", "cta"}, cfg.RequiredSlots); diff != "" {
		t.Fatalf("slots (-want +got):\n%s", diff)
	}
	if cfg.Background.Concurrency != 4 {
		t.Fatalf("concurrency: want=4 got=%d", cfg.Background.Concurrency)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.KVBackend = "etcd"
	if err := cfg.Validate(); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("kv backend: want invalid argument got=%v", err)
	}
	cfg.KVBackend = KVBackendMemory
	cfg.DB.Driver = "mysql"
	if err := cfg.Validate(); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("db driver: want invalid argument got=%v", err)
	}
}
