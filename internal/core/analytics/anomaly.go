package analytics

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Severity cutoffs in rolling standard deviation units.
const (
	severityMediumZ   = 2.5
	severityHighZ     = 3.0
	severityCriticalZ = 4.0

	// flatWindowZ stands in for an unmeasurable z-score when the rolling
	// window has zero variance but the sample still deviates.
	flatWindowZ = 10.0
)

// AnomalyDetector flags samples that deviate from a rolling expectation.
// Best-effort: a series too short for a meaningful window yields an empty
// result, never an error.
type AnomalyDetector struct {
	cfg    AnomalyConfig
	logger *logrus.Logger
}

// NewAnomalyDetector creates a detector with the given configuration.
func NewAnomalyDetector(cfg AnomalyConfig, logger *logrus.Logger) *AnomalyDetector {
	return &AnomalyDetector{cfg: cfg, logger: logger}
}

// Detect scans the history and returns flagged samples in chronological
// order. Each sample is scored against the mean and standard deviation of
// the window of samples preceding it.
func (ad *AnomalyDetector) Detect(history *MetricHistory) []AnomalyDetection {
	anomalies := []AnomalyDetection{}
	if len(history.Samples) <= ad.cfg.MinDataPoints {
		return anomalies
	}

	threshold := ad.cfg.Sensitivity.threshold()
	values := history.Values()

	for i := range history.Samples {
		start := i - ad.cfg.LookbackPeriod
		if start < 0 {
			if ad.cfg.Warmup == WarmupSkip {
				continue
			}
			start = 0
		}
		window := values[start:i]
		if len(window) < ad.cfg.MinDataPoints {
			continue
		}

		expected := mean(window)
		sigma := stdDev(window, expected)
		deviation := history.Samples[i].Value - expected

		var z float64
		if sigma < 1e-9 {
			if math.Abs(deviation) < 1e-9 {
				continue
			}
			z = flatWindowZ
		} else {
			z = math.Abs(deviation) / sigma
		}

		if z < threshold {
			continue
		}

		anomaly := AnomalyDetection{
			Metric:        history.Name,
			Timestamp:     history.Samples[i].Timestamp,
			Value:         history.Samples[i].Value,
			ExpectedValue: expected,
			Deviation:     math.Abs(deviation),
			ZScore:        z,
			Severity:      severityForZ(z),
			Confidence:    math.Min(1.0, z/5.0),
			Type:          classifyAnomaly(window, deviation),
		}
		anomaly.Description = describeAnomaly(history.Name, &anomaly, deviation)
		anomalies = append(anomalies, anomaly)
	}

	if len(anomalies) > 0 {
		ad.logger.WithFields(logrus.Fields{
			"metric":    history.Name,
			"anomalies": len(anomalies),
		}).Debug("Anomalies detected")
	}

	return anomalies
}

// severityForZ buckets a deviation magnitude into severity tiers.
// Severity is non-decreasing in z.
func severityForZ(z float64) Severity {
	switch {
	case z >= severityCriticalZ:
		return SeverityCritical
	case z >= severityHighZ:
		return SeverityHigh
	case z >= severityMediumZ:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// classifyAnomaly types the deviation. Above expectation the sign of the
// window's own trend separates a spike from a pattern break; below is a
// drop; a window too small for a directional signal defaults to outlier.
func classifyAnomaly(window []float64, deviation float64) AnomalyType {
	if len(window) < 3 {
		return AnomalyOutlier
	}
	_, slope, _ := olsFit(window)
	if deviation > 0 {
		if slope < 0 {
			return AnomalyPatternBreak
		}
		return AnomalySpike
	}
	return AnomalyDrop
}

func describeAnomaly(metric string, a *AnomalyDetection, deviation float64) string {
	direction := "above"
	if deviation < 0 {
		direction = "below"
	}
	return fmt.Sprintf("%s observed %.2f against an expected %.2f (%.1f standard deviations %s the rolling mean)",
		metric, a.Value, a.ExpectedValue, a.ZScore, direction)
}
