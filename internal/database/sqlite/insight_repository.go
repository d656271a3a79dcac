package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pulsedash/pulse-backend-go/internal/database/models"
	"github.com/pulsedash/pulse-backend-go/internal/database/repositories"
)

// InsightRepository implements repositories.InsightRepository on sqlite.
type InsightRepository struct {
	db *sqlx.DB
}

// NewInsightRepository creates a new InsightRepository.
func NewInsightRepository(db *sqlx.DB) repositories.InsightRepository {
	return &InsightRepository{db: db}
}

// SaveSnapshot stores one pipeline run.
func (r *InsightRepository) SaveSnapshot(ctx context.Context, snapshot *models.InsightSnapshot) error {
	query := `
		INSERT INTO insight_snapshots (id, insights, insight_count, failure_count, generated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.Insights, snapshot.InsightCount, snapshot.FailureCount,
		snapshot.GeneratedAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("failed to save insight snapshot: %w", err)
	}
	snapshot.CreatedAt = now
	return nil
}

// LatestSnapshot returns the most recent snapshot.
func (r *InsightRepository) LatestSnapshot(ctx context.Context) (*models.InsightSnapshot, error) {
	query := `
		SELECT id, insights, insight_count, failure_count, generated_at, created_at
		FROM insight_snapshots
		ORDER BY generated_at DESC
		LIMIT 1
	`

	snapshot := &models.InsightSnapshot{}
	if err := r.db.GetContext(ctx, snapshot, query); err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return snapshot, nil
}

// PruneSnapshots deletes all but the newest keep snapshots.
func (r *InsightRepository) PruneSnapshots(ctx context.Context, keep int) error {
	query := `
		DELETE FROM insight_snapshots
		WHERE id NOT IN (
			SELECT id FROM insight_snapshots
			ORDER BY generated_at DESC
			LIMIT ?
		)
	`

	if _, err := r.db.ExecContext(ctx, query, keep); err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}
