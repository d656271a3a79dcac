package handlers

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/pulsedash/pulse-backend-go/internal/api/middleware"
	"github.com/pulsedash/pulse-backend-go/internal/config"
	"github.com/pulsedash/pulse-backend-go/internal/core/analytics"
	"github.com/pulsedash/pulse-backend-go/internal/database"
	"github.com/pulsedash/pulse-backend-go/internal/database/models"
	"github.com/pulsedash/pulse-backend-go/internal/websocket"
)

// Handlers bundles the dependencies every endpoint needs.
type Handlers struct {
	cfg     *config.Config
	db      *sqlx.DB
	repos   *database.Repositories
	engine  *analytics.Engine
	hub     *websocket.Hub
	metrics *middleware.HTTPMetrics
	logger  *logrus.Logger
	started time.Time
}

// New creates the handler set.
func New(cfg *config.Config, db *sqlx.DB, repos *database.Repositories, engine *analytics.Engine,
	hub *websocket.Hub, metrics *middleware.HTTPMetrics, logger *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:     cfg,
		db:      db,
		repos:   repos,
		engine:  engine,
		hub:     hub,
		metrics: metrics,
		logger:  logger,
		started: time.Now(),
	}
}

// PipelineConfig translates the service configuration into the analytics
// package's own config type. The engine re-validates it.
func PipelineConfig(cfg config.AnalyticsConfig) analytics.Config {
	models := make([]analytics.ForecastModel, 0, len(cfg.Forecasting.Models))
	for _, m := range cfg.Forecasting.Models {
		models = append(models, analytics.ForecastModel(m))
	}
	return analytics.Config{
		AnomalyDetection: analytics.AnomalyConfig{
			Enabled:        cfg.AnomalyDetection.Enabled,
			Sensitivity:    analytics.Sensitivity(cfg.AnomalyDetection.Sensitivity),
			LookbackPeriod: cfg.AnomalyDetection.LookbackPeriod,
			MinDataPoints:  cfg.AnomalyDetection.MinDataPoints,
			Warmup:         analytics.WarmupMode(cfg.AnomalyDetection.Warmup),
		},
		Forecasting: analytics.ForecastConfig{
			Enabled:              cfg.Forecasting.Enabled,
			Horizon:              cfg.Forecasting.Horizon,
			UpdateFrequencyHours: cfg.Forecasting.UpdateFrequencyHours,
			Models:               models,
		},
		Recommendations: analytics.RecommendationConfig{
			Enabled:            cfg.Recommendations.Enabled,
			MaxRecommendations: cfg.Recommendations.MaxRecommendations,
			MinConfidence:      cfg.Recommendations.MinConfidence,
		},
	}
}

// HistoriesFromSamples groups stored samples into pipeline input. Samples
// arrive from the repository in chronological order per metric.
func HistoriesFromSamples(metric string, samples []models.MetricSample, granularity analytics.Granularity) *analytics.MetricHistory {
	history := &analytics.MetricHistory{
		Name:        metric,
		Granularity: granularity,
		Samples:     make([]analytics.BusinessMetric, 0, len(samples)),
	}
	for _, s := range samples {
		if history.Category == "" {
			history.Category = analytics.MetricCategory(s.Category)
		}
		history.Samples = append(history.Samples, analytics.BusinessMetric{
			Name:      s.Name,
			Value:     s.Value,
			Timestamp: s.Timestamp,
			Category:  analytics.MetricCategory(s.Category),
			Unit:      s.Unit,
		})
	}
	return history
}

// loadStoredHistories builds pipeline input from the samples table, for
// all metrics or a single one.
func (h *Handlers) loadStoredHistories(ctx context.Context, metric string, granularity analytics.Granularity) ([]*analytics.MetricHistory, error) {
	var names []string
	if metric != "" {
		names = []string{metric}
	} else {
		infos, err := h.repos.Metrics.ListMetrics(ctx)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			names = append(names, info.Name)
		}
	}

	histories := make([]*analytics.MetricHistory, 0, len(names))
	for _, name := range names {
		samples, err := h.repos.Metrics.GetHistory(ctx, name, time.Time{}, 0)
		if err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			continue
		}
		histories = append(histories, HistoriesFromSamples(name, samples, granularity))
	}
	return histories, nil
}
