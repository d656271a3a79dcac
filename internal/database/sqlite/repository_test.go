package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedash/pulse-backend-go/internal/database/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../../migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return db
}

func sampleAt(name string, value float64, at time.Time) *models.MetricSample {
	return &models.MetricSample{
		Name:      name,
		Category:  "revenue",
		Unit:      "usd",
		Value:     value,
		Timestamp: at,
	}
}

func TestMetricRepositoryInsertAndHistory(t *testing.T) {
	repo := NewMetricRepository(newTestDB(t))
	ctx := context.Background()
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s := sampleAt("revenue", 100+float64(i), start.Add(time.Duration(i)*24*time.Hour))
		require.NoError(t, repo.InsertSample(ctx, s))
		assert.NotZero(t, s.ID)
		assert.False(t, s.CreatedAt.IsZero())
	}

	history, err := repo.GetHistory(ctx, "revenue", start, 0)
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
	}

	// Since filter and limit both apply.
	history, err = repo.GetHistory(ctx, "revenue", start.Add(48*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 102.0, history[0].Value)
}

func TestMetricRepositoryBatchInsert(t *testing.T) {
	repo := NewMetricRepository(newTestDB(t))
	ctx := context.Background()
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	batch := []*models.MetricSample{
		sampleAt("signups", 10, start),
		sampleAt("signups", 12, start.Add(24*time.Hour)),
		sampleAt("revenue", 900, start),
	}
	require.NoError(t, repo.InsertSamples(ctx, batch))

	count, err := repo.CountSamples(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, repo.InsertSamples(ctx, nil))
}

func TestMetricRepositoryListMetrics(t *testing.T) {
	repo := NewMetricRepository(newTestDB(t))
	ctx := context.Background()
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertSamples(ctx, []*models.MetricSample{
		sampleAt("revenue", 900, start),
		sampleAt("revenue", 950, start.Add(24*time.Hour)),
		sampleAt("signups", 10, start),
	}))

	metrics, err := repo.ListMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, metrics, 2)

	// Ordered by name.
	assert.Equal(t, "revenue", metrics[0].Name)
	assert.Equal(t, 2, metrics[0].SampleCount)
	assert.Equal(t, "signups", metrics[1].Name)
}

func TestInsightRepositorySnapshotRoundTrip(t *testing.T) {
	repo := NewInsightRepository(newTestDB(t))
	ctx := context.Background()

	snapshot := &models.InsightSnapshot{
		ID:           uuid.New().String(),
		Insights:     []byte(`{"insights":[]}`),
		InsightCount: 4,
		FailureCount: 1,
		GeneratedAt:  time.Date(2025, 4, 2, 6, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveSnapshot(ctx, snapshot))

	latest, err := repo.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, latest.ID)
	assert.Equal(t, 4, latest.InsightCount)
	assert.Equal(t, 1, latest.FailureCount)
	assert.JSONEq(t, `{"insights":[]}`, string(latest.Insights))
}

func TestInsightRepositoryLatestPicksNewest(t *testing.T) {
	repo := NewInsightRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.SaveSnapshot(ctx, &models.InsightSnapshot{
			ID:          uuid.New().String(),
			Insights:    []byte(`[]`),
			GeneratedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	latest, err := repo.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Hour), latest.GeneratedAt.UTC())
}

func TestInsightRepositoryLatestEmpty(t *testing.T) {
	repo := NewInsightRepository(newTestDB(t))

	_, err := repo.LatestSnapshot(context.Background())
	assert.Error(t, err)
}

func TestInsightRepositoryPrune(t *testing.T) {
	db := newTestDB(t)
	repo := NewInsightRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	var newest string
	for i := 0; i < 5; i++ {
		id := uuid.New().String()
		newest = id
		require.NoError(t, repo.SaveSnapshot(ctx, &models.InsightSnapshot{
			ID:          id,
			Insights:    []byte(`[]`),
			GeneratedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	require.NoError(t, repo.PruneSnapshots(ctx, 2))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM insight_snapshots"))
	assert.Equal(t, 2, count)

	latest, err := repo.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, newest, latest.ID)
}
