package refresh

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedash/pulse-backend-go/internal/core/analytics"
	"github.com/pulsedash/pulse-backend-go/internal/database"
	"github.com/pulsedash/pulse-backend-go/internal/database/models"
	"github.com/pulsedash/pulse-backend-go/internal/websocket"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRepos(t *testing.T) *database.Repositories {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../../migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return database.NewRepositories(db)
}

func newTestEngine(t *testing.T) *analytics.Engine {
	t.Helper()
	engine, err := analytics.NewEngine(analytics.DefaultConfig(), testLogger())
	require.NoError(t, err)
	return engine
}

func storeDailySeries(t *testing.T, repos *database.Repositories, name string, values []float64) {
	t.Helper()
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]*models.MetricSample, len(values))
	for i, v := range values {
		samples[i] = &models.MetricSample{
			Name:      name,
			Category:  "revenue",
			Value:     v,
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
		}
	}
	require.NoError(t, repos.Metrics.InsertSamples(context.Background(), samples))
}

func TestRefresherRunOncePersistsSnapshot(t *testing.T) {
	repos := newTestRepos(t)
	hub := websocket.NewHub(testLogger())

	values := make([]float64, 40)
	for i := range values {
		values[i] = 1000 + 25*float64(i)
	}
	storeDailySeries(t, repos, "revenue", values)

	r := New(repos, newTestEngine(t), hub, nil, 6, testLogger())
	require.NoError(t, r.RunOnce(context.Background()))

	snapshot, err := repos.Insights.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snapshot.ID)
	assert.Greater(t, snapshot.InsightCount, 0)
	assert.NotEmpty(t, snapshot.Insights)
}

func TestRefresherRunOnceEmptyStoreIsNoOp(t *testing.T) {
	repos := newTestRepos(t)
	hub := websocket.NewHub(testLogger())

	r := New(repos, newTestEngine(t), hub, nil, 6, testLogger())
	require.NoError(t, r.RunOnce(context.Background()))

	_, err := repos.Insights.LatestSnapshot(context.Background())
	assert.Error(t, err)
}

func TestLoadSeedPopulatesEmptyStore(t *testing.T) {
	repos := newTestRepos(t)

	seed := `metrics:
  - name: revenue
    category: revenue
    unit: usd
    start: 2025-05-01T00:00:00Z
    step_hours: 24
    values: [100, 110, 120, 130]
  - name: signups
    category: conversion
    start: 2025-05-01T00:00:00Z
    values: [10, 12, 9]
`
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	require.NoError(t, LoadSeed(context.Background(), path, repos.Metrics, testLogger()))

	count, err := repos.Metrics.CountSamples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	// Second load is a no-op.
	require.NoError(t, LoadSeed(context.Background(), path, repos.Metrics, testLogger()))
	count, err = repos.Metrics.CountSamples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestLoadSeedRejectsInvalidMetric(t *testing.T) {
	repos := newTestRepos(t)

	seed := "metrics:\n  - name: \"\"\n    values: [1]\n"
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0644))

	assert.Error(t, LoadSeed(context.Background(), path, repos.Metrics, testLogger()))
}
