package analytics

import "math"

// Shared numeric helpers for the pipeline stages. All operate on plain
// float64 slices so each stage stays a pure function of its input.

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		diff := v - m
		sum += diff * diff
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, m float64) float64 {
	return math.Sqrt(variance(values, m))
}

// olsFit fits value against the sample index by ordinary least squares.
// Returns intercept, slope and r2 (coefficient of determination). A flat
// or degenerate series yields slope 0 and r2 0.
func olsFit(values []float64) (intercept, slope, r2 float64) {
	n := float64(len(values))
	if n < 2 {
		return mean(values), 0, 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return mean(values), 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for i, y := range values {
		predicted := intercept + slope*float64(i)
		ssRes += (y - predicted) * (y - predicted)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		// All values identical: the fit is exact but r2 is undefined,
		// treated as 0 so a flat series never reads as a strong trend.
		return intercept, 0, 0
	}
	r2 = 1 - ssRes/ssTot
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		r2 = 0
	}
	return intercept, slope, clamp01(r2)
}

// autocorrelation computes the lag-k autocorrelation of the series.
func autocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if lag <= 0 || lag >= n {
		return 0
	}
	m := mean(values)
	v := variance(values, m)
	if v == 0 {
		return 0
	}
	sum := 0.0
	for i := lag; i < n; i++ {
		sum += (values[i] - m) * (values[i-lag] - m)
	}
	return sum / (float64(n) * v)
}

// coefficientOfVariation returns stddev/|mean|, or 0 for a zero-mean series.
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return stdDev(values, m) / math.Abs(m)
}

// meanAbsolutePercentageError returns MAPE in percent, skipping zero
// actuals to avoid division blowups.
func meanAbsolutePercentageError(actual, predicted []float64) float64 {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	sum, counted := 0.0, 0
	for i := 0; i < n; i++ {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted) * 100
}

// rootMeanSquareError returns RMSE over the overlapping prefix.
func rootMeanSquareError(actual, predicted []float64) float64 {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(n))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
