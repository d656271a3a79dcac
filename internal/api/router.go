package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pulsedash/pulse-backend-go/internal/api/handlers"
	"github.com/pulsedash/pulse-backend-go/internal/api/middleware"
	"github.com/pulsedash/pulse-backend-go/internal/config"
	"github.com/pulsedash/pulse-backend-go/internal/core/analytics"
	"github.com/pulsedash/pulse-backend-go/internal/database"
	"github.com/pulsedash/pulse-backend-go/internal/websocket"
)

// Router bundles the HTTP surface with its shared metrics.
type Router struct {
	Engine  *gin.Engine
	Metrics *middleware.HTTPMetrics
}

// NewRouter builds the gin engine with the full middleware stack and all
// routes registered.
func NewRouter(cfg *config.Config, db *sqlx.DB, repos *database.Repositories,
	engine *analytics.Engine, hub *websocket.Hub, logger *logrus.Logger) *Router {

	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	httpMetrics := middleware.NewHTTPMetrics(prometheus.DefaultRegisterer)

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(httpMetrics.Middleware())

	if cfg.Security.EnableCORS {
		corsConfig := cors.DefaultConfig()
		if len(cfg.Security.AllowedOrigins) == 1 && cfg.Security.AllowedOrigins[0] == "*" {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
		}
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
		r.Use(cors.New(corsConfig))
	}

	if cfg.Security.RateLimiting.Enabled {
		limiter := middleware.NewRateLimiter(
			cfg.Security.RateLimiting.RequestsPerSecond,
			cfg.Security.RateLimiting.BurstSize,
		)
		r.Use(limiter.Middleware())
	}

	h := handlers.New(cfg, db, repos, engine, hub, httpMetrics, logger)

	// Root-level endpoints.
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", websocket.HandleWebSocketGin(hub))

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", h.Login)

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
	}

	metrics := protected.Group("/metrics")
	{
		metrics.POST("/samples", h.IngestSamples)
		metrics.GET("", h.ListMetrics)
		metrics.GET("/:name/history", h.MetricHistory)
	}

	analyticsGroup := protected.Group("/analytics")
	{
		analyticsGroup.POST("/insights", h.RunInsights)
		analyticsGroup.GET("/insights", h.StoredInsights)
		analyticsGroup.GET("/insights/snapshot", h.LatestSnapshot)
		analyticsGroup.GET("/trends/:metric", h.Trend)
		analyticsGroup.GET("/anomalies/:metric", h.Anomalies)
		analyticsGroup.GET("/forecasts/:metric", h.Forecast)
		analyticsGroup.POST("/export/:format", h.Export)
	}

	return &Router{Engine: r, Metrics: httpMetrics}
}
