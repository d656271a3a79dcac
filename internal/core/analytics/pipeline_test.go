package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, testLogger(), WithClock(fixedClock()))
	require.NoError(t, err)
	return engine
}

func TestEngineRejectsInvalidConfiguration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Forecasting.Horizon = 0
	cfg.Recommendations.MinConfidence = 1.5

	_, err := NewEngine(cfg, testLogger())

	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "horizon")
	assert.Contains(t, err.Error(), "min_confidence")
}

func TestEngineProducesInsightsPerStage(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	values := make([]float64, 60)
	for i := range values {
		values[i] = 1000 + 20*float64(i) + 30*math.Sin(2*math.Pi*float64(i)/7)
	}
	histories := []*MetricHistory{makeHistory("revenue", CategoryRevenue, values)}

	result, err := engine.Analyze(context.Background(), histories)

	require.NoError(t, err)
	require.Empty(t, result.Failures)

	kinds := map[InsightKind]int{}
	for _, insight := range result.Insights {
		kinds[insight.Kind]++
		assert.GreaterOrEqual(t, insight.RelevanceScore, 0.0)
		assert.LessOrEqual(t, insight.RelevanceScore, 1.0)
		assert.NotEmpty(t, insight.ID)
	}
	assert.Equal(t, 1, kinds[InsightTrend])
	assert.Equal(t, 1, kinds[InsightForecast])
}

func TestEngineIdempotence(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	values := make([]float64, 80)
	for i := range values {
		values[i] = 500 + 5*float64(i) + 25*math.Sin(float64(i)*0.9)
	}
	histories := []*MetricHistory{
		makeHistory("revenue", CategoryRevenue, values),
		makeHistory("sessions", CategoryEngagement, flatWithSpike(60, 300, 700, 35)),
	}

	first, err := engine.Analyze(context.Background(), histories)
	require.NoError(t, err)
	second, err := engine.Analyze(context.Background(), histories)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngineOneMetricFailureDoesNotAbortBatch(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	values := make([]float64, 40)
	for i := range values {
		values[i] = 200 + 3*float64(i)
	}
	histories := []*MetricHistory{
		makeHistory("too_short", CategoryPerformance, []float64{1}),
		makeHistory("revenue", CategoryRevenue, values),
	}

	result, err := engine.Analyze(context.Background(), histories)

	require.NoError(t, err)

	// The short metric reports trend and forecast failures.
	var failedStages []string
	for _, f := range result.Failures {
		assert.Equal(t, "too_short", f.Metric)
		failedStages = append(failedStages, f.Stage)
	}
	assert.ElementsMatch(t, []string{stageTrend, stageForecast}, failedStages)

	// The healthy metric still yields insights.
	var healthy int
	for _, insight := range result.Insights {
		if insight.Metric == "revenue" {
			healthy++
		}
	}
	assert.Greater(t, healthy, 0)
}

func TestEngineRejectsNonChronologicalHistory(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	history := makeHistory("revenue", CategoryRevenue, []float64{1, 2, 3, 4, 5})
	history.Samples[1].Timestamp = history.Samples[4].Timestamp.Add(time.Hour)

	_, err := engine.Analyze(context.Background(), []*MetricHistory{history})

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestEngineHonorsStageToggles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AnomalyDetection.Enabled = false
	cfg.Forecasting.Enabled = false
	cfg.Recommendations.Enabled = false
	engine := newTestEngine(t, cfg)

	histories := []*MetricHistory{makeHistory("sessions", CategoryEngagement, flatWithSpike(60, 300, 700, 35))}

	result, err := engine.Analyze(context.Background(), histories)

	require.NoError(t, err)
	for _, insight := range result.Insights {
		assert.Equal(t, InsightTrend, insight.Kind)
	}
	assert.NotEmpty(t, result.Insights)
}

func TestEngineCancelledContext(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	histories := []*MetricHistory{makeHistory("revenue", CategoryRevenue, []float64{1, 2, 3, 4, 5})}

	_, err := engine.Analyze(ctx, histories)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineAnomalyInsightCarriesExpiryOnlyForForecasts(t *testing.T) {
	engine := newTestEngine(t, DefaultConfig())

	values := make([]float64, 60)
	for i := range values {
		values[i] = 400 + 2*float64(i)
	}
	histories := []*MetricHistory{makeHistory("revenue", CategoryRevenue, values)}

	result, err := engine.Analyze(context.Background(), histories)

	require.NoError(t, err)
	for _, insight := range result.Insights {
		if insight.Kind == InsightForecast {
			require.NotNil(t, insight.ExpiresAt)
			assert.True(t, insight.ExpiresAt.After(insight.GeneratedAt))
		} else {
			assert.Nil(t, insight.ExpiresAt)
		}
	}
}
