package analytics

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Trend classification thresholds. A fit that explains less than
// volatilityR2Cutoff of the variance on a series whose coefficient of
// variation exceeds volatilityCVCutoff is volatile; otherwise the
// scale-normalized slope decides against slopeEpsilon.
const (
	volatilityR2Cutoff = 0.3
	volatilityCVCutoff = 0.25
	slopeEpsilon       = 0.01
)

// TrendEstimator fits a line to a metric history and classifies its
// direction. Pure: no state between calls.
type TrendEstimator struct {
	minDataPoints int
	logger        *logrus.Logger
}

// NewTrendEstimator creates a trend estimator requiring at least
// minDataPoints samples per history.
func NewTrendEstimator(minDataPoints int, logger *logrus.Logger) *TrendEstimator {
	return &TrendEstimator{minDataPoints: minDataPoints, logger: logger}
}

// Estimate computes the OLS trend of the history. Fails with
// ErrInsufficientData below the configured minimum; callers skip the
// metric rather than fabricate a trend.
func (te *TrendEstimator) Estimate(history *MetricHistory) (*TrendAnalysis, error) {
	n := len(history.Samples)
	if n < te.minDataPoints {
		return nil, fmt.Errorf("%w: metric %s has %d samples, need %d",
			ErrInsufficientData, history.Name, n, te.minDataPoints)
	}

	values := history.Values()
	_, slope, r2 := olsFit(values)

	analysis := &TrendAnalysis{
		Metric:     history.Name,
		Trend:      classifyTrend(values, slope, r2),
		Strength:   clamp01(r2),
		Slope:      slope,
		R2:         clamp01(r2),
		Period:     history.Granularity,
		DataPoints: n,
		Start:      history.Samples[0].Timestamp,
		End:        history.Samples[n-1].Timestamp,
	}

	te.logger.WithFields(logrus.Fields{
		"metric": history.Name,
		"trend":  analysis.Trend,
		"slope":  slope,
		"r2":     analysis.R2,
	}).Debug("Trend estimated")

	return analysis, nil
}

// classifyTrend applies the tie-break rules in order: volatile first,
// then directional, then stable.
func classifyTrend(values []float64, slope, r2 float64) TrendDirection {
	if r2 < volatilityR2Cutoff && coefficientOfVariation(values) > volatilityCVCutoff {
		return TrendVolatile
	}

	normalized := normalizeSlope(values, slope)
	switch {
	case normalized > slopeEpsilon:
		return TrendIncreasing
	case normalized < -slopeEpsilon:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// normalizeSlope divides the slope by the series' own scale so the
// epsilon comparison is unit-independent. Mean is preferred; a zero-mean
// series falls back to its range.
func normalizeSlope(values []float64, slope float64) float64 {
	m := mean(values)
	if m != 0 {
		return slope / math.Abs(m)
	}
	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max != min {
		return slope / (max - min)
	}
	return slope
}
