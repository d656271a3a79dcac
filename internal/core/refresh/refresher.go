package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pulsedash/pulse-backend-go/internal/api/middleware"
	"github.com/pulsedash/pulse-backend-go/internal/core/analytics"
	"github.com/pulsedash/pulse-backend-go/internal/database"
	"github.com/pulsedash/pulse-backend-go/internal/database/models"
	"github.com/pulsedash/pulse-backend-go/internal/websocket"
)

// snapshotRetention is how many pipeline snapshots are kept.
const snapshotRetention = 20

// Refresher recomputes insights from stored samples on a schedule,
// persists the result and notifies websocket clients. This is the
// caching/update policy the computation core deliberately does not own.
type Refresher struct {
	repos   *database.Repositories
	engine  *analytics.Engine
	hub     *websocket.Hub
	metrics *middleware.HTTPMetrics
	logger  *logrus.Logger

	cron      *cron.Cron
	frequency time.Duration
}

// New creates a refresher running every updateFrequencyHours.
func New(repos *database.Repositories, engine *analytics.Engine, hub *websocket.Hub,
	metrics *middleware.HTTPMetrics, updateFrequencyHours int, logger *logrus.Logger) *Refresher {
	return &Refresher{
		repos:     repos,
		engine:    engine,
		hub:       hub,
		metrics:   metrics,
		logger:    logger,
		cron:      cron.New(),
		frequency: time.Duration(updateFrequencyHours) * time.Hour,
	}
}

// Start schedules the periodic refresh and runs one refresh immediately
// in the background so the dashboard has data right after boot.
func (r *Refresher) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", r.frequency)
	if _, err := r.cron.AddFunc(spec, func() {
		if err := r.RunOnce(ctx); err != nil {
			r.logger.WithError(err).Error("Scheduled insight refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	r.cron.Start()
	r.logger.WithField("frequency", r.frequency.String()).Info("Insight refresher started")

	go func() {
		if err := r.RunOnce(ctx); err != nil {
			r.logger.WithError(err).Warn("Initial insight refresh failed")
		}
	}()
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (r *Refresher) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.logger.Info("Insight refresher stopped")
}

// RunOnce loads all stored histories, runs the pipeline, persists a
// snapshot and broadcasts the refresh.
func (r *Refresher) RunOnce(ctx context.Context) error {
	histories, err := r.loadHistories(ctx)
	if err != nil {
		r.recordRun("error")
		return fmt.Errorf("failed to load histories: %w", err)
	}
	if len(histories) == 0 {
		r.logger.Debug("No stored samples, skipping refresh")
		return nil
	}

	result, err := r.engine.Analyze(ctx, histories)
	if err != nil {
		r.recordRun("error")
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		r.recordRun("error")
		return fmt.Errorf("failed to encode insights: %w", err)
	}

	snapshot := &models.InsightSnapshot{
		ID:           uuid.New().String(),
		Insights:     payload,
		InsightCount: len(result.Insights),
		FailureCount: len(result.Failures),
		GeneratedAt:  time.Now().UTC(),
	}
	if err := r.repos.Insights.SaveSnapshot(ctx, snapshot); err != nil {
		r.recordRun("error")
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	if err := r.repos.Insights.PruneSnapshots(ctx, snapshotRetention); err != nil {
		r.logger.WithError(err).Warn("Failed to prune old snapshots")
	}

	r.recordRun("success")
	if r.metrics != nil {
		r.metrics.PipelineInsights.Set(float64(len(result.Insights)))
	}

	r.hub.BroadcastToAll(websocket.NewInsightsRefreshedMessage(
		snapshot.ID, snapshot.InsightCount, snapshot.FailureCount, snapshot.GeneratedAt))

	r.logger.WithFields(logrus.Fields{
		"snapshot_id": snapshot.ID,
		"metrics":     len(histories),
		"insights":    snapshot.InsightCount,
		"failures":    snapshot.FailureCount,
	}).Info("Insights refreshed")
	return nil
}

func (r *Refresher) loadHistories(ctx context.Context) ([]*analytics.MetricHistory, error) {
	infos, err := r.repos.Metrics.ListMetrics(ctx)
	if err != nil {
		return nil, err
	}

	histories := make([]*analytics.MetricHistory, 0, len(infos))
	for _, info := range infos {
		samples, err := r.repos.Metrics.GetHistory(ctx, info.Name, time.Time{}, 0)
		if err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			continue
		}

		history := &analytics.MetricHistory{
			Name:        info.Name,
			Category:    analytics.MetricCategory(info.Category),
			Granularity: analytics.GranularityDaily,
			Samples:     make([]analytics.BusinessMetric, 0, len(samples)),
		}
		for _, s := range samples {
			history.Samples = append(history.Samples, analytics.BusinessMetric{
				Name:      s.Name,
				Value:     s.Value,
				Timestamp: s.Timestamp,
				Category:  analytics.MetricCategory(s.Category),
				Unit:      s.Unit,
			})
		}
		histories = append(histories, history)
	}
	return histories, nil
}

func (r *Refresher) recordRun(outcome string) {
	if r.metrics != nil {
		r.metrics.PipelineRuns.WithLabelValues("cron", outcome).Inc()
	}
}
