package analytics

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Pipeline stage names used in failure reports.
const (
	stageTrend    = "trend"
	stageAnomaly  = "anomaly"
	stageForecast = "forecast"
)

// Engine runs the full analytics pipeline: trend, anomaly and forecast per
// metric in parallel, then recommendation synthesis as the join point.
// The engine holds configuration only; every invocation is stateless and
// idempotent, so a single Engine is safe for concurrent use.
type Engine struct {
	cfg         Config
	trend       *TrendEstimator
	anomaly     *AnomalyDetector
	forecaster  *Forecaster
	synthesizer *RecommendationSynthesizer
	logger      *logrus.Logger

	// now is injectable so repeated runs over the same input produce
	// identical output in tests.
	now func() time.Time
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine validates the configuration and builds the pipeline.
func NewEngine(cfg Config, logger *logrus.Logger, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:         cfg,
		trend:       NewTrendEstimator(cfg.AnomalyDetection.MinDataPoints, logger),
		anomaly:     NewAnomalyDetector(cfg.AnomalyDetection, logger),
		forecaster:  NewForecaster(cfg.Forecasting, logger),
		synthesizer: NewRecommendationSynthesizer(cfg.Recommendations, logger),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// metricOutput collects the per-metric stage results. Slots stay nil when
// a stage fails or is disabled.
type metricOutput struct {
	trend     *TrendAnalysis
	anomalies []AnomalyDetection
	forecast  *Forecast
	failures  []StageFailure
}

// Analyze runs the pipeline over the given histories. One metric's
// failure never aborts the rest of the batch; recoverable stage failures
// are reported in the result alongside whatever insights could still be
// produced. The only hard errors are context cancellation and a
// non-chronological input, which indicates a caller bug.
func (e *Engine) Analyze(ctx context.Context, histories []*MetricHistory) (*AnalysisResult, error) {
	for _, h := range histories {
		if !h.IsChronological() {
			return nil, fmt.Errorf("%w: history for %s is not in chronological order",
				ErrInvalidConfiguration, h.Name)
		}
	}

	now := e.now()
	outputs := make([]metricOutput, len(histories))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, history := range histories {
		i, history := i, history
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outputs[i] = e.analyzeMetric(history, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &AnalysisResult{Insights: []AnalyticsInsight{}}
	synthesis := SynthesisInput{Categories: map[string]MetricCategory{}}

	for i, out := range outputs {
		history := histories[i]
		synthesis.Categories[history.Name] = history.Category
		result.Failures = append(result.Failures, out.failures...)

		if out.trend != nil {
			synthesis.Trends = append(synthesis.Trends, *out.trend)
			result.Insights = append(result.Insights, AnalyticsInsight{
				ID:             fmt.Sprintf("trend-%s", history.Name),
				Kind:           InsightTrend,
				Metric:         history.Name,
				Trend:          out.trend,
				RelevanceScore: out.trend.Strength,
				GeneratedAt:    now,
			})
		}
		for j := range out.anomalies {
			a := &out.anomalies[j]
			synthesis.Anomalies = append(synthesis.Anomalies, *a)
			result.Insights = append(result.Insights, AnalyticsInsight{
				ID:             fmt.Sprintf("anomaly-%s-%d", history.Name, a.Timestamp.Unix()),
				Kind:           InsightAnomaly,
				Metric:         history.Name,
				Anomaly:        a,
				RelevanceScore: anomalyRelevance(a),
				GeneratedAt:    now,
			})
		}
		if out.forecast != nil {
			synthesis.Forecasts = append(synthesis.Forecasts, *out.forecast)
			expires := out.forecast.ValidUntil
			result.Insights = append(result.Insights, AnalyticsInsight{
				ID:             fmt.Sprintf("forecast-%s", history.Name),
				Kind:           InsightForecast,
				Metric:         history.Name,
				Forecast:       out.forecast,
				RelevanceScore: out.forecast.Accuracy,
				GeneratedAt:    now,
				ExpiresAt:      &expires,
			})
		}
	}

	if e.cfg.Recommendations.Enabled {
		recs := e.synthesizer.Synthesize(synthesis)
		for i := range recs {
			rec := &recs[i]
			result.Insights = append(result.Insights, AnalyticsInsight{
				ID:             fmt.Sprintf("rec-%s", rec.ID),
				Kind:           InsightRecommendation,
				Metric:         firstMetric(*rec),
				Recommendation: rec,
				RelevanceScore: recommendationRelevance(rec),
				GeneratedAt:    now,
			})
		}
	}

	e.logger.WithFields(logrus.Fields{
		"metrics":  len(histories),
		"insights": len(result.Insights),
		"failures": len(result.Failures),
	}).Info("Analytics pipeline completed")

	return result, nil
}

// analyzeMetric runs the three independent stages for one history.
func (e *Engine) analyzeMetric(history *MetricHistory, now time.Time) metricOutput {
	var out metricOutput

	trend, err := e.trend.Estimate(history)
	if err != nil {
		out.failures = append(out.failures, StageFailure{
			Metric: history.Name, Stage: stageTrend, Reason: err.Error(),
		})
	} else {
		out.trend = trend
	}

	if e.cfg.AnomalyDetection.Enabled {
		out.anomalies = e.anomaly.Detect(history)
	}

	if e.cfg.Forecasting.Enabled {
		forecast, err := e.forecaster.ForecastEnsemble(history, e.cfg.Forecasting.Horizon, now)
		if err != nil {
			out.failures = append(out.failures, StageFailure{
				Metric: history.Name, Stage: stageForecast, Reason: err.Error(),
			})
		} else {
			out.forecast = forecast
		}
	}

	return out
}

// anomalyRelevance weights detection confidence by severity so a critical
// anomaly outranks an equally confident low one.
func anomalyRelevance(a *AnomalyDetection) float64 {
	return clamp01(a.Confidence * (0.4 + 0.2*float64(a.Severity.rank())))
}

func recommendationRelevance(r *Recommendation) float64 {
	return clamp01(r.Confidence * (0.4 + 0.2*float64(r.Priority.rank())))
}
