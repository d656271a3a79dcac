package analytics

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// testLogger returns a silenced logger so test output stays readable.
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var testStart = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

// makeHistory builds a daily history from raw values, one sample per day
// starting at testStart.
func makeHistory(name string, category MetricCategory, values []float64) *MetricHistory {
	samples := make([]BusinessMetric, len(values))
	for i, v := range values {
		samples[i] = BusinessMetric{
			Name:      name,
			Value:     v,
			Timestamp: testStart.Add(time.Duration(i) * 24 * time.Hour),
			Category:  category,
		}
	}
	return &MetricHistory{
		Name:        name,
		Category:    category,
		Granularity: GranularityDaily,
		Samples:     samples,
	}
}

// flatWithSpike builds n baseline values with one spike at the given index.
func flatWithSpike(n int, baseline, spike float64, at int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = baseline
	}
	values[at] = spike
	return values
}
