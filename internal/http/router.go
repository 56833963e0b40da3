package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/storefront-layout/internal/http/handlers"
	httpMW "github.com/yungbote/storefront-layout/internal/http/middleware"
	"github.com/yungbote/storefront-layout/internal/observability"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	HealthHandler         *httpH.HealthHandler
	LayoutHandler         *httpH.LayoutHandler
	RecommendationHandler *httpH.RecommendationHandler
	RealtimeHandler       *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.LayoutHandler != nil {
			api.POST("/sessions/:session_id/preferences", cfg.LayoutHandler.SubmitPreferences)
			api.GET("/sessions/:session_id/layout", cfg.LayoutHandler.GetLayout)
		}
		if cfg.RealtimeHandler != nil {
			api.GET("/sessions/:session_id/stream", cfg.RealtimeHandler.Stream)
		}
		if cfg.RecommendationHandler != nil {
			api.POST("/recommendations", cfg.RecommendationHandler.Recommend)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "route not found", "code": "not_found"}})
	})
	return r
}
