package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOLSFitPerfectLine(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10}

	intercept, slope, r2 := olsFit(values)

	assert.InDelta(t, 2.0, intercept, 1e-9)
	assert.InDelta(t, 2.0, slope, 1e-9)
	assert.InDelta(t, 1.0, r2, 1e-9)
}

func TestOLSFitFlatSeries(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5, 5}

	intercept, slope, r2 := olsFit(values)

	assert.Equal(t, 5.0, intercept)
	assert.Zero(t, slope)
	assert.Zero(t, r2)
}

func TestOLSFitDegenerateInputs(t *testing.T) {
	_, slope, r2 := olsFit(nil)
	assert.Zero(t, slope)
	assert.Zero(t, r2)

	_, slope, r2 = olsFit([]float64{42})
	assert.Zero(t, slope)
	assert.Zero(t, r2)
}

func TestAutocorrelationPeriodicSeries(t *testing.T) {
	values := make([]float64, 140)
	for i := range values {
		values[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/7)
	}

	atPeriod := autocorrelation(values, 7)
	offPeriod := autocorrelation(values, 3)

	assert.Greater(t, atPeriod, 0.8)
	assert.Greater(t, atPeriod, offPeriod)
}

func TestAutocorrelationFlatSeries(t *testing.T) {
	assert.Zero(t, autocorrelation([]float64{3, 3, 3, 3}, 1))
}

func TestMeanAbsolutePercentageErrorSkipsZeroActuals(t *testing.T) {
	actual := []float64{100, 0, 200}
	predicted := []float64{110, 50, 180}

	mape := meanAbsolutePercentageError(actual, predicted)

	// (10% + 10%) / 2, the zero actual is not counted.
	assert.InDelta(t, 10.0, mape, 1e-9)
}

func TestRootMeanSquareError(t *testing.T) {
	actual := []float64{1, 2, 3}
	predicted := []float64{2, 2, 5}

	assert.InDelta(t, math.Sqrt(5.0/3.0), rootMeanSquareError(actual, predicted), 1e-9)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-0.5))
	assert.Equal(t, 1.0, clamp01(1.5))
	assert.Equal(t, 0.7, clamp01(0.7))
	assert.Equal(t, 0.0, clamp01(math.NaN()))
}
