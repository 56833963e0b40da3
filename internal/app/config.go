package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/storefront-layout/internal/data/db"
	"github.com/yungbote/storefront-layout/internal/data/kv"
	"github.com/yungbote/storefront-layout/internal/jobs/background"
	"github.com/yungbote/storefront-layout/internal/observability"
	"github.com/yungbote/storefront-layout/internal/pipeline"
	pkgerrors "github.com/yungbote/storefront-layout/internal/pkg/errors"
	"github.com/yungbote/storefront-layout/internal/platform/envutil"
	"github.com/yungbote/storefront-layout/internal/realtime/bus"
)

const (
	KVBackendRedis  = "redis"
	KVBackendMemory = "memory"
)

type Config struct {
	LogMode  string
	HTTPAddr string

	KVBackend     string
	Redis         kv.RedisConfig
	ChannelPrefix string

	DB db.Config

	TTLs            pipeline.TTLs
	RecentlyUsedCap int
	RequiredSlots   []string
	CatalogPath     string
	VectorTopK      int

	Background background.Config

	CORSOrigins      []string
	MetricsNamespace string
	Otel             observability.OtelConfig
	ShutdownTimeout  time.Duration
}

func LoadConfig() Config {
	ttl := pipeline.DefaultTTLs()
	serviceName := envutil.String("OTEL_SERVICE_NAME", "storefront-layout")
	return Config{
		LogMode:  envutil.String("LOG_MODE", "development"),
		HTTPAddr: envutil.String("HTTP_ADDR", ":8080"),

		KVBackend: strings.ToLower(envutil.String("KV_BACKEND", KVBackendRedis)),
		Redis: kv.RedisConfig{
			Addr:     envutil.String("REDIS_ADDR", "localhost:6379"),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
		},
		ChannelPrefix: envutil.String("LAYOUT_CHANNEL_PREFIX", bus.DefaultChannelPrefix),

		DB: db.Config{
			Driver:           strings.ToLower(envutil.String("SNAPSHOT_DRIVER", db.DriverNone)),
			SQLitePath:       envutil.String("SNAPSHOT_SQLITE_PATH", ""),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "storefront"),
		},

		TTLs: pipeline.TTLs{
			Lock:         envutil.Duration("LOCK_TTL", ttl.Lock),
			Session:      envutil.Duration("SESSION_TTL", ttl.Session),
			Candidates:   envutil.Duration("CANDIDATES_TTL", ttl.Candidates),
			Layout:       envutil.Duration("LAYOUT_TTL", ttl.Layout),
			RecentlyUsed: envutil.Duration("RECENTLY_USED_TTL", ttl.RecentlyUsed),
		},
		RecentlyUsedCap: envutil.Int("RECENTLY_USED_CAP", pipeline.DefaultRecentlyUsedCap),
		RequiredSlots:   envutil.List("REQUIRED_SLOTS", nil),
		CatalogPath:     envutil.String("COMPONENT_CATALOG_PATH", ""),
		VectorTopK:      envutil.Int("VECTOR_TOP_K", 3),

		Background: background.Config{
			Concurrency: int64(envutil.Int("BACKGROUND_CONCURRENCY", 16)),
			Timeout:     envutil.Duration("BACKGROUND_TIMEOUT", 10*time.Second),
		},

		CORSOrigins:      envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsNamespace: envutil.String("METRICS_NAMESPACE", "storefront"),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: serviceName,
			Environment: envutil.String("OTEL_ENVIRONMENT", envutil.String("ENVIRONMENT", "development")),
			Version:     envutil.String("OTEL_SERVICE_VERSION", envutil.String("APP_VERSION", "dev")),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1),
		},
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Validate rejects settings that would only fail later at wiring time.
func (c Config) Validate() error {
	switch c.KVBackend {
	case KVBackendRedis, KVBackendMemory:
	default:
		return fmt.Errorf("KV_BACKEND %q (want redis or memory): %w", c.KVBackend, pkgerrors.ErrInvalidArgument)
	}
	switch c.DB.Driver {
	case db.DriverNone, db.DriverPostgres, db.DriverSQLite, "":
	default:
		return fmt.Errorf("SNAPSHOT_DRIVER %q (want postgres, sqlite or none): %w", c.DB.Driver, pkgerrors.ErrInvalidArgument)
	}
	if c.TTLs.Lock < 0 || c.TTLs.Session < 0 {
		return fmt.Errorf("negative ttl: %w", pkgerrors.ErrInvalidArgument)
	}
	return nil
}
