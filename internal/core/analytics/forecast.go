package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// z-value for a 95% confidence band.
	z95 = 1.96

	// Per-step confidence decay for forecast points.
	confidenceDecay = 0.98

	// Autocorrelation strength above which a candidate period counts as
	// seasonality.
	seasonalityACFCutoff = 0.3
)

// Minimum history length per model.
const (
	minPointsLinear      = 3
	minPointsExponential = 4
	minPointsARIMA       = 3
)

// Smoothing factors for the trend-adjusted exponential model.
const (
	holtAlpha = 0.5
	holtBeta  = 0.3
)

// Forecaster projects a metric history forward using a selectable model
// or an inverse-MAPE weighted ensemble. Pure; all state is per call.
type Forecaster struct {
	cfg    ForecastConfig
	logger *logrus.Logger
}

// NewForecaster creates a forecaster with the given configuration.
func NewForecaster(cfg ForecastConfig, logger *logrus.Logger) *Forecaster {
	return &Forecaster{cfg: cfg, logger: logger}
}

// modelPrediction is a raw model output before envelope assembly:
// point predictions and symmetric half-widths for each horizon step.
type modelPrediction struct {
	predicted  []float64
	halfWidths []float64
	seasonal   bool
	period     int
}

// Forecast runs a single model over the history. Recoverable failures are
// ErrInsufficientData and, for the seasonal model, ErrInsufficientSeasonalData;
// the caller may retry with a simpler model.
func (f *Forecaster) Forecast(history *MetricHistory, model ForecastModel, horizon int, now time.Time) (*Forecast, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be > 0", ErrInvalidConfiguration)
	}
	if model == ModelEnsemble {
		return f.ForecastEnsemble(history, horizon, now)
	}

	values := history.Values()
	pred, err := f.runModel(model, values, horizon)
	if err != nil {
		return nil, err
	}

	accuracy, mape, rmse := f.holdOutAccuracy(model, values)
	forecast := f.assemble(history, model, pred, accuracy, mape, rmse, now)
	return forecast, nil
}

// ForecastEnsemble runs every configured model and combines the successful
// ones with inverse-MAPE weighting. Models that fail (for example the
// seasonal model on a short history) are skipped; the ensemble fails only
// when no model can run.
func (f *Forecaster) ForecastEnsemble(history *MetricHistory, horizon int, now time.Time) (*Forecast, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be > 0", ErrInvalidConfiguration)
	}

	models := f.cfg.Models
	if len(models) == 0 {
		models = []ForecastModel{ModelLinear, ModelExponential, ModelSeasonal, ModelARIMA}
	}

	values := history.Values()

	type member struct {
		pred     modelPrediction
		model    ForecastModel
		accuracy float64
		mape     float64
		rmse     float64
		weight   float64
	}

	var members []member
	var lastErr error
	for _, model := range models {
		pred, err := f.runModel(model, values, horizon)
		if err != nil {
			lastErr = err
			f.logger.WithFields(logrus.Fields{
				"metric": history.Name,
				"model":  model,
			}).WithError(err).Debug("Ensemble member skipped")
			continue
		}
		accuracy, mape, rmse := f.holdOutAccuracy(model, values)
		members = append(members, member{
			pred:     pred,
			model:    model,
			accuracy: accuracy,
			mape:     mape,
			rmse:     rmse,
			// Inverse-MAPE weighting: better in-sample accuracy earns a
			// larger share. The +1 keeps a perfect fit finite.
			weight: 1.0 / (mape + 1.0),
		})
	}

	if len(members) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%w: no forecast model could run for %s", ErrInsufficientData, history.Name)
	}

	totalWeight := 0.0
	for _, m := range members {
		totalWeight += m.weight
	}

	combined := modelPrediction{
		predicted:  make([]float64, horizon),
		halfWidths: make([]float64, horizon),
	}
	var accuracy, mape, rmse float64
	for _, m := range members {
		share := m.weight / totalWeight
		for h := 0; h < horizon; h++ {
			combined.predicted[h] += share * m.pred.predicted[h]
			combined.halfWidths[h] += share * m.pred.halfWidths[h]
		}
		accuracy += share * m.accuracy
		mape += share * m.mape
		rmse += share * m.rmse
		if m.pred.seasonal {
			combined.seasonal = true
			combined.period = m.pred.period
		}
	}

	return f.assemble(history, ModelEnsemble, combined, accuracy, mape, rmse, now), nil
}

// runModel dispatches to the closed model set. The switch is exhaustive
// over every accepted tag; Validate rejects anything else up front.
func (f *Forecaster) runModel(model ForecastModel, values []float64, horizon int) (modelPrediction, error) {
	switch model {
	case ModelLinear:
		return linearPredict(values, horizon)
	case ModelExponential:
		return exponentialPredict(values, horizon)
	case ModelSeasonal:
		return seasonalPredict(values, horizon, f.cfg.SeasonalPeriod)
	case ModelARIMA:
		return autoregressivePredict(values, horizon)
	default:
		return modelPrediction{}, fmt.Errorf("%w: unknown forecast model %q", ErrInvalidConfiguration, model)
	}
}

// holdOutAccuracy retrains the model on all but the trailing fifth of the
// history and measures its error against that held-out tail. Histories too
// short to split are scored against their own fit, which is optimistic but
// still comparable across models.
func (f *Forecaster) holdOutAccuracy(model ForecastModel, values []float64) (accuracy, mape, rmse float64) {
	n := len(values)
	holdout := n / 5
	if holdout < 2 {
		holdout = 2
	}
	if n-holdout < minPointsExponential {
		// Not enough to split: score in-sample.
		pred, err := f.runModel(model, values, 1)
		if err != nil || len(pred.predicted) == 0 {
			return 0, 100, 0
		}
		last := []float64{values[n-1]}
		mape = meanAbsolutePercentageError(last, pred.predicted[:1])
		rmse = rootMeanSquareError(last, pred.predicted[:1])
		return clamp01(1 - mape/100), mape, rmse
	}

	train := values[:n-holdout]
	actual := values[n-holdout:]
	pred, err := f.runModel(model, train, holdout)
	if err != nil {
		return 0, 100, 0
	}
	mape = meanAbsolutePercentageError(actual, pred.predicted)
	rmse = rootMeanSquareError(actual, pred.predicted)
	return clamp01(1 - mape/100), mape, rmse
}

// assemble turns a raw model output into the Forecast envelope, enforcing
// the band invariants: lower <= predicted <= upper everywhere and band
// width non-decreasing with distance.
func (f *Forecaster) assemble(history *MetricHistory, model ForecastModel, pred modelPrediction, accuracy, mape, rmse float64, now time.Time) *Forecast {
	step := history.Granularity.Step()
	last := history.Samples[len(history.Samples)-1].Timestamp

	points := make([]ForecastPoint, len(pred.predicted))
	prevWidth := 0.0
	confidence := clamp01(accuracy)
	if confidence == 0 {
		confidence = 0.1
	}
	for h := range pred.predicted {
		halfWidth := math.Abs(pred.halfWidths[h])
		if 2*halfWidth < prevWidth {
			halfWidth = prevWidth / 2
		}
		prevWidth = 2 * halfWidth

		points[h] = ForecastPoint{
			Timestamp:      last.Add(time.Duration(h+1) * step),
			PredictedValue: pred.predicted[h],
			ConfidenceInterval: ConfidenceInterval{
				Lower: pred.predicted[h] - halfWidth,
				Upper: pred.predicted[h] + halfWidth,
			},
			Confidence: clamp01(confidence * math.Pow(confidenceDecay, float64(h))),
		}
	}

	return &Forecast{
		Metric:         history.Name,
		Model:          model,
		Predictions:    points,
		Accuracy:       clamp01(accuracy),
		MAPE:           mape,
		RMSE:           rmse,
		HasSeasonality: pred.seasonal,
		SeasonalPeriod: pred.period,
		GeneratedAt:    now,
		ValidUntil:     now.Add(time.Duration(f.cfg.UpdateFrequencyHours) * time.Hour),
	}
}

// linearPredict extrapolates the OLS fit line. The band widens linearly
// with forecast distance.
func linearPredict(values []float64, horizon int) (modelPrediction, error) {
	n := len(values)
	if n < minPointsLinear {
		return modelPrediction{}, fmt.Errorf("%w: linear model needs %d points, have %d",
			ErrInsufficientData, minPointsLinear, n)
	}

	intercept, slope, _ := olsFit(values)

	residuals := make([]float64, n)
	for i, v := range values {
		residuals[i] = v - (intercept + slope*float64(i))
	}
	s := stdDev(residuals, mean(residuals))

	pred := modelPrediction{
		predicted:  make([]float64, horizon),
		halfWidths: make([]float64, horizon),
	}
	for h := 1; h <= horizon; h++ {
		pred.predicted[h-1] = intercept + slope*float64(n-1+h)
		pred.halfWidths[h-1] = z95 * s * (1 + 0.1*float64(h))
	}
	return pred, nil
}

// exponentialPredict is Holt's trend-adjusted double exponential
// smoothing. Confidence decays with distance via a sqrt-widening band.
func exponentialPredict(values []float64, horizon int) (modelPrediction, error) {
	n := len(values)
	if n < minPointsExponential {
		return modelPrediction{}, fmt.Errorf("%w: exponential model needs %d points, have %d",
			ErrInsufficientData, minPointsExponential, n)
	}

	level := values[0]
	trend := values[1] - values[0]

	var residuals []float64
	for t := 1; t < n; t++ {
		oneStep := level + trend
		residuals = append(residuals, values[t]-oneStep)

		newLevel := holtAlpha*values[t] + (1-holtAlpha)*(level+trend)
		trend = holtBeta*(newLevel-level) + (1-holtBeta)*trend
		level = newLevel
	}
	s := stdDev(residuals, mean(residuals))

	pred := modelPrediction{
		predicted:  make([]float64, horizon),
		halfWidths: make([]float64, horizon),
	}
	for h := 1; h <= horizon; h++ {
		pred.predicted[h-1] = level + float64(h)*trend
		pred.halfWidths[h-1] = z95 * s * math.Sqrt(float64(h))
	}
	return pred, nil
}

// seasonalPredict decomposes the series into an OLS trend plus periodic
// component and recombines both for future points. The period comes from
// configuration or autocorrelation detection and the history must cover at
// least two full periods.
func seasonalPredict(values []float64, horizon, configuredPeriod int) (modelPrediction, error) {
	n := len(values)

	period := configuredPeriod
	if period == 0 {
		detected, ok := detectSeasonalPeriod(values)
		if !ok {
			return modelPrediction{}, fmt.Errorf("%w: no seasonal period detected in %d samples",
				ErrInsufficientSeasonalData, n)
		}
		period = detected
	}
	if n < 2*period {
		return modelPrediction{}, fmt.Errorf("%w: period %d needs %d samples, have %d",
			ErrInsufficientSeasonalData, period, 2*period, n)
	}

	intercept, slope, _ := olsFit(values)

	// Seasonal indices: mean detrended residual per phase.
	indices := make([]float64, period)
	counts := make([]int, period)
	for i, v := range values {
		detrended := v - (intercept + slope*float64(i))
		indices[i%period] += detrended
		counts[i%period]++
	}
	for k := range indices {
		if counts[k] > 0 {
			indices[k] /= float64(counts[k])
		}
	}

	residuals := make([]float64, n)
	for i, v := range values {
		residuals[i] = v - (intercept + slope*float64(i) + indices[i%period])
	}
	s := stdDev(residuals, mean(residuals))

	pred := modelPrediction{
		predicted:  make([]float64, horizon),
		halfWidths: make([]float64, horizon),
		seasonal:   true,
		period:     period,
	}
	for h := 1; h <= horizon; h++ {
		idx := n - 1 + h
		pred.predicted[h-1] = intercept + slope*float64(idx) + indices[idx%period]
		pred.halfWidths[h-1] = z95 * s * (1 + 0.08*float64(h))
	}
	return pred, nil
}

// autoregressivePredict is the simplified AR(1) fallback: mean-reverting
// with the lag-1 autocorrelation as the AR coefficient. It is a last
// resort, not a full ARIMA implementation.
func autoregressivePredict(values []float64, horizon int) (modelPrediction, error) {
	n := len(values)
	if n < minPointsARIMA {
		return modelPrediction{}, fmt.Errorf("%w: autoregressive model needs %d points, have %d",
			ErrInsufficientData, minPointsARIMA, n)
	}

	m := mean(values)
	phi := autocorrelation(values, 1)
	// Keep the process stationary.
	phi = math.Max(-0.95, math.Min(0.95, phi))

	residuals := make([]float64, 0, n-1)
	for t := 1; t < n; t++ {
		oneStep := m + phi*(values[t-1]-m)
		residuals = append(residuals, values[t]-oneStep)
	}
	s := stdDev(residuals, mean(residuals))

	pred := modelPrediction{
		predicted:  make([]float64, horizon),
		halfWidths: make([]float64, horizon),
	}
	cumVar := 0.0
	for h := 1; h <= horizon; h++ {
		pred.predicted[h-1] = m + math.Pow(phi, float64(h))*(values[n-1]-m)
		// h-step forecast variance of an AR(1): s^2 * sum(phi^2j).
		cumVar += math.Pow(phi, 2*float64(h-1))
		pred.halfWidths[h-1] = z95 * s * math.Sqrt(cumVar)
	}
	return pred, nil
}

// detectSeasonalPeriod scans candidate lags for the strongest
// autocorrelation peak. Only lags the history covers at least twice are
// candidates.
func detectSeasonalPeriod(values []float64) (int, bool) {
	n := len(values)
	bestLag, bestACF := 0, 0.0
	for lag := 2; lag <= n/2; lag++ {
		acf := autocorrelation(values, lag)
		if acf > bestACF {
			bestACF = acf
			bestLag = lag
		}
	}
	if bestLag == 0 || bestACF < seasonalityACFCutoff {
		return 0, false
	}
	return bestLag, true
}
