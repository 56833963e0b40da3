package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-layout/internal/data/db"
	"github.com/yungbote/storefront-layout/internal/data/kv"
	"github.com/yungbote/storefront-layout/internal/data/snapshot"
	httpserver "github.com/yungbote/storefront-layout/internal/http"
	"github.com/yungbote/storefront-layout/internal/jobs/background"
	"github.com/yungbote/storefront-layout/internal/observability"
	"github.com/yungbote/storefront-layout/internal/pipeline"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
	"github.com/yungbote/storefront-layout/internal/realtime/bus"
	"github.com/yungbote/storefront-layout/internal/vector"
)

type App struct {
	Log          *logger.Logger
	Cfg          Config
	KV           kv.Store
	DB           *gorm.DB
	Bus          bus.Publisher
	Runner       *background.Runner
	Metrics      *observability.Metrics
	Vectors      *vector.Store
	Orchestrator *pipeline.Orchestrator
	Router       *gin.Engine

	server       *httpserver.Server
	shutdownOtel func(context.Context) error
}

// New wires every component from cfg. On error anything already opened is
// closed again.
func New(ctx context.Context, log *logger.Logger, cfg Config) (a *App, err error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a = &App{Log: log, Cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.closeResources(context.Background())
			a = nil
		}
	}()

	a.shutdownOtel = observability.InitOTel(ctx, log, cfg.Otel)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = observability.NewMetrics(reg, cfg.MetricsNamespace)

	log.Info("Wiring session store...", "backend", cfg.KVBackend)
	store, publisher, err := wireKV(log, cfg)
	if err != nil {
		return nil, err
	}
	a.KV = instrumentKV(cfg.KVBackend, store, a.Metrics)
	a.Bus = publisher

	log.Info("Wiring snapshot store...", "driver", cfg.DB.Driver)
	a.DB, err = db.Open(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	snapshots := snapshot.Discard
	if a.DB != nil {
		snapshots = snapshot.NewGormStore(a.DB)
	}

	catalog, err := pipeline.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load component catalog: %w", err)
	}

	a.Runner = background.NewRunner(log, cfg.Background, deadLetterLogger(log), background.Hooks{OnDone: a.Metrics.JobDone})
	a.Vectors = vector.NewCatalogStore()

	a.Orchestrator, err = pipeline.NewOrchestrator(pipeline.Deps{
		Log:       log,
		KV:        a.KV,
		Snapshots: snapshots,
		Publisher: a.Bus,
		Runner:    a.Runner,
		Searcher:  pipeline.NewVectorSearcher(a.Vectors, cfg.VectorTopK),
		Selector:  pipeline.NewSelector(log, catalog),
		Metrics:   a.Metrics,
	}, pipeline.Options{
		TTLs:            cfg.TTLs,
		RecentlyUsedCap: cfg.RecentlyUsedCap,
		RequiredSlots:   cfg.RequiredSlots,
	})
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	a.Router = wireRouter(log, cfg, a.Metrics, wireHandlers(log, a))
	a.server = httpserver.NewServer(cfg.HTTPAddr, a.Router)
	log.Info("App wired", "catalog_size", len(catalog), "modules", a.Vectors.Len())
	return a, nil
}

func wireKV(log *logger.Logger, cfg Config) (kv.Store, bus.Publisher, error) {
	switch cfg.KVBackend {
	case KVBackendMemory:
		return kv.NewMemoryStore(), bus.NewRecorder(), nil
	default:
		rdb, err := kv.Dial(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis: %w", err)
		}
		publisher, err := bus.NewRedisPublisher(log, rdb, cfg.ChannelPrefix)
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return kv.NewRedisStoreFromClient(log, rdb), publisher, nil
	}
}

func deadLetterLogger(log *logger.Logger) background.DeadLetterSink {
	log = log.With("component", "DeadLetters")
	return func(d background.DeadLetter) {
		log.Warn("background job failed", "job", d.Job, "session_id", d.SessionID, "error", d.Err, "at", d.At)
	}
}

// Run serves HTTP until Shutdown is called.
func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.server.Run()
}

// Shutdown stops accepting requests, waits for in-flight background jobs,
// then flushes traces and closes stores.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := a.closeResources(ctx); err != nil {
		errs = append(errs, err)
	}
	a.Log.Sync()
	return errors.Join(errs...)
}

func (a *App) closeResources(ctx context.Context) error {
	var errs []error
	if a.Runner != nil {
		if err := a.Runner.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("background jobs: %w", err))
		}
	}
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("bus close: %w", err))
		}
	}
	if a.KV != nil {
		if err := a.KV.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kv close: %w", err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("db close: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
