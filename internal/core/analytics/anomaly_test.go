package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		Enabled:        true,
		Sensitivity:    SensitivityMedium,
		LookbackPeriod: 14,
		MinDataPoints:  3,
		Warmup:         WarmupPartial,
	}
}

func TestAnomalyDetectorFlagsSpikeOnFlatBaseline(t *testing.T) {
	ad := NewAnomalyDetector(defaultAnomalyConfig(), testLogger())

	// 60 flat samples with a single extreme spike.
	history := makeHistory("error_rate", CategoryPerformance, flatWithSpike(60, 100, 250, 40))

	anomalies := ad.Detect(history)

	require.Len(t, anomalies, 1)
	spike := anomalies[0]
	assert.Equal(t, history.Samples[40].Timestamp, spike.Timestamp)
	assert.Equal(t, SeverityCritical, spike.Severity)
	assert.Equal(t, 250.0, spike.Value)
	assert.InDelta(t, 100.0, spike.ExpectedValue, 1e-9)
	assert.Equal(t, AnomalySpike, spike.Type)
}

func TestAnomalyDetectorEmptyAndShortHistories(t *testing.T) {
	ad := NewAnomalyDetector(defaultAnomalyConfig(), testLogger())

	assert.Empty(t, ad.Detect(makeHistory("revenue", CategoryRevenue, nil)))
	assert.Empty(t, ad.Detect(makeHistory("revenue", CategoryRevenue, []float64{1, 2, 3})))
}

func TestAnomalyDetectorSeverityNonDecreasingInDeviation(t *testing.T) {
	ad := NewAnomalyDetector(defaultAnomalyConfig(), testLogger())

	// Noisy baseline so the rolling window has nonzero variance, then two
	// spikes of different magnitude.
	base := make([]float64, 60)
	for i := range base {
		base[i] = 100
		if i%2 == 0 {
			base[i] = 104
		}
	}
	base[30] = 110
	base[50] = 140

	anomalies := ad.Detect(makeHistory("latency_ms", CategoryPerformance, base))

	require.GreaterOrEqual(t, len(anomalies), 2)
	var mild, wild *AnomalyDetection
	for i := range anomalies {
		switch anomalies[i].Value {
		case 110.0:
			mild = &anomalies[i]
		case 140.0:
			wild = &anomalies[i]
		}
	}
	require.NotNil(t, mild)
	require.NotNil(t, wild)
	assert.GreaterOrEqual(t, wild.Severity.rank(), mild.Severity.rank())
	assert.Greater(t, wild.ZScore, mild.ZScore)

	for _, a := range anomalies {
		assert.GreaterOrEqual(t, a.Confidence, 0.0)
		assert.LessOrEqual(t, a.Confidence, 1.0)
	}
}

func TestAnomalyDetectorClassifiesDrop(t *testing.T) {
	ad := NewAnomalyDetector(defaultAnomalyConfig(), testLogger())

	history := makeHistory("orders", CategoryRevenue, flatWithSpike(40, 500, 100, 25))

	anomalies := ad.Detect(history)

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyDrop, anomalies[0].Type)
	assert.Equal(t, 100.0, anomalies[0].Value)
}

func TestAnomalyDetectorWarmupSkipLeavesEarlySamplesUnscored(t *testing.T) {
	cfg := defaultAnomalyConfig()
	cfg.Warmup = WarmupSkip

	ad := NewAnomalyDetector(cfg, testLogger())

	// Spike inside the warm-up window is invisible in skip mode.
	early := flatWithSpike(60, 100, 300, 5)
	anomalies := ad.Detect(makeHistory("revenue", CategoryRevenue, early))
	assert.Empty(t, anomalies)

	// Partial mode scores it once enough prior samples exist.
	cfg.Warmup = WarmupPartial
	ad = NewAnomalyDetector(cfg, testLogger())
	anomalies = ad.Detect(makeHistory("revenue", CategoryRevenue, early))
	require.Len(t, anomalies, 1)
	assert.Equal(t, 300.0, anomalies[0].Value)
}

func TestAnomalyDetectorSensitivityThresholds(t *testing.T) {
	assert.Equal(t, 3.0, SensitivityLow.threshold())
	assert.Equal(t, 2.5, SensitivityMedium.threshold())
	assert.Equal(t, 2.0, SensitivityHigh.threshold())
}

func TestAnomalyDetectorResultsChronological(t *testing.T) {
	ad := NewAnomalyDetector(defaultAnomalyConfig(), testLogger())

	values := flatWithSpike(60, 100, 240, 20)
	values[45] = 260

	anomalies := ad.Detect(makeHistory("revenue", CategoryRevenue, values))

	require.Len(t, anomalies, 2)
	assert.True(t, anomalies[0].Timestamp.Before(anomalies[1].Timestamp))
}
