package repositories

import (
	"context"
	"time"

	"github.com/pulsedash/pulse-backend-go/internal/database/models"
)

// MetricRepository stores and queries raw metric samples.
type MetricRepository interface {
	// InsertSample stores one sample and fills in its ID and CreatedAt.
	InsertSample(ctx context.Context, sample *models.MetricSample) error
	// InsertSamples stores a batch atomically.
	InsertSamples(ctx context.Context, samples []*models.MetricSample) error
	// ListMetrics returns a summary row per distinct metric name.
	ListMetrics(ctx context.Context) ([]models.MetricInfo, error)
	// GetHistory returns samples for one metric since the given time in
	// chronological order. limit <= 0 means no limit.
	GetHistory(ctx context.Context, name string, since time.Time, limit int) ([]models.MetricSample, error)
	// CountSamples returns the total number of stored samples.
	CountSamples(ctx context.Context) (int64, error)
}

// InsightRepository persists pipeline run snapshots.
type InsightRepository interface {
	// SaveSnapshot stores one pipeline run.
	SaveSnapshot(ctx context.Context, snapshot *models.InsightSnapshot) error
	// LatestSnapshot returns the most recent snapshot, or sql.ErrNoRows
	// wrapped when none exists.
	LatestSnapshot(ctx context.Context) (*models.InsightSnapshot, error)
	// PruneSnapshots deletes all but the newest keep snapshots.
	PruneSnapshots(ctx context.Context, keep int) error
}
