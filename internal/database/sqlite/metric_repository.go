package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pulsedash/pulse-backend-go/internal/database/models"
	"github.com/pulsedash/pulse-backend-go/internal/database/repositories"
)

// MetricRepository implements repositories.MetricRepository on sqlite.
type MetricRepository struct {
	db *sqlx.DB
}

// NewMetricRepository creates a new MetricRepository.
func NewMetricRepository(db *sqlx.DB) repositories.MetricRepository {
	return &MetricRepository{db: db}
}

// InsertSample stores one sample.
func (r *MetricRepository) InsertSample(ctx context.Context, sample *models.MetricSample) error {
	query := `
		INSERT INTO metric_samples (name, category, unit, value, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		sample.Name, sample.Category, sample.Unit, sample.Value, sample.Timestamp.UTC(), now)
	if err != nil {
		return fmt.Errorf("failed to insert metric sample: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted sample ID: %w", err)
	}
	sample.ID = id
	sample.CreatedAt = now
	return nil
}

// InsertSamples stores a batch in one transaction.
func (r *MetricRepository) InsertSamples(ctx context.Context, samples []*models.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO metric_samples (name, category, unit, value, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, sample := range samples {
		result, err := stmt.ExecContext(ctx,
			sample.Name, sample.Category, sample.Unit, sample.Value, sample.Timestamp.UTC(), now)
		if err != nil {
			return fmt.Errorf("failed to insert sample for %s: %w", sample.Name, err)
		}
		if id, err := result.LastInsertId(); err == nil {
			sample.ID = id
		}
		sample.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sample batch: %w", err)
	}
	return nil
}

// ListMetrics returns one summary row per distinct metric name.
func (r *MetricRepository) ListMetrics(ctx context.Context) ([]models.MetricInfo, error) {
	query := `
		SELECT name, category, unit,
		       COUNT(*)       AS sample_count,
		       MIN(timestamp) AS first_sample,
		       MAX(timestamp) AS last_sample
		FROM metric_samples
		GROUP BY name, category, unit
		ORDER BY name
	`

	var metrics []models.MetricInfo
	if err := r.db.SelectContext(ctx, &metrics, query); err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return metrics, nil
}

// GetHistory returns samples for one metric in chronological order.
func (r *MetricRepository) GetHistory(ctx context.Context, name string, since time.Time, limit int) ([]models.MetricSample, error) {
	query := `
		SELECT id, name, category, unit, value, timestamp, created_at
		FROM metric_samples
		WHERE name = ? AND timestamp >= ?
		ORDER BY timestamp ASC
	`
	args := []interface{}{name, since.UTC()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var samples []models.MetricSample
	if err := r.db.SelectContext(ctx, &samples, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", name, err)
	}
	return samples, nil
}

// CountSamples returns the total number of stored samples.
func (r *MetricRepository) CountSamples(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM metric_samples"); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return count, nil
}
