package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/storefront-layout/internal/data/kv"
	httpserver "github.com/yungbote/storefront-layout/internal/http"
	httpH "github.com/yungbote/storefront-layout/internal/http/handlers"
	"github.com/yungbote/storefront-layout/internal/observability"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
	"github.com/yungbote/storefront-layout/internal/realtime/bus"
)

type Handlers struct {
	Health         *httpH.HealthHandler
	Layout         *httpH.LayoutHandler
	Recommendation *httpH.RecommendationHandler
	Realtime       *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, a *App) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health:         httpH.NewHealthHandler(map[string]httpH.ReadyCheck{"kv": kvReady(a.KV)}),
		Layout:         httpH.NewLayoutHandler(log, a.Orchestrator),
		Recommendation: httpH.NewRecommendationHandler(a.Vectors),
	}
	if sub, ok := a.Bus.(bus.Subscriber); ok {
		h.Realtime = httpH.NewRealtimeHandler(log, sub)
	}
	return h
}

// kvReady treats a missing probe key as healthy; only transport errors fail.
func kvReady(store kv.Store) httpH.ReadyCheck {
	return func(ctx context.Context) error {
		_, err := store.Get(ctx, "readyz:probe")
		if err != nil && !kv.IsNotFound(err) {
			return err
		}
		return nil
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:                   log,
		Metrics:               metrics,
		ServiceName:           serviceName,
		CORSOrigins:           cfg.CORSOrigins,
		HealthHandler:         handlers.Health,
		LayoutHandler:         handlers.Layout,
		RecommendationHandler: handlers.Recommendation,
		RealtimeHandler:       handlers.Realtime,
	})
}
