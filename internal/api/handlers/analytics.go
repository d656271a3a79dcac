package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	"github.com/pulsedash/pulse-backend-go/internal/config"
	"github.com/pulsedash/pulse-backend-go/internal/core/analytics"
	apperrors "github.com/pulsedash/pulse-backend-go/pkg/errors"
	"github.com/pulsedash/pulse-backend-go/pkg/utils"
)

// InsightsRequest is the payload for running the pipeline on
// request-supplied histories.
type InsightsRequest struct {
	Histories []*analytics.MetricHistory `json:"histories" binding:"required"`
	Config    *config.AnalyticsConfig    `json:"config,omitempty"`
}

// RunInsights executes the pipeline over histories supplied in the
// request body, optionally with a per-request configuration override.
func (h *Handlers) RunInsights(c *gin.Context) {
	var req InsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.BadRequest("Invalid request: " + err.Error()))
		return
	}
	if len(req.Histories) == 0 {
		c.Error(apperrors.BadRequest("histories must not be empty"))
		return
	}

	engine := h.engine
	if req.Config != nil {
		override, err := analytics.NewEngine(PipelineConfig(*req.Config), h.logger)
		if err != nil {
			c.Error(apperrors.BadRequest("Invalid config override: " + err.Error()))
			return
		}
		engine = override
	}

	result, err := engine.Analyze(c.Request.Context(), req.Histories)
	if err != nil {
		h.metrics.PipelineRuns.WithLabelValues("api", "error").Inc()
		h.respondPipelineError(c, err)
		return
	}

	h.metrics.PipelineRuns.WithLabelValues("api", "success").Inc()
	h.metrics.PipelineInsights.Set(float64(len(result.Insights)))
	utils.SendSuccessWithMeta(c, result, gin.H{
		"insights": len(result.Insights),
		"failures": len(result.Failures),
	})
}

// StoredInsights runs the pipeline over stored samples, for all metrics
// or ?metric= only.
func (h *Handlers) StoredInsights(c *gin.Context) {
	histories, err := h.loadStoredHistories(c.Request.Context(), c.Query("metric"), granularityFromQuery(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load stored histories")
		c.Error(apperrors.Internal(err, "Failed to load stored samples"))
		return
	}
	if len(histories) == 0 {
		c.Error(apperrors.NotFound("No stored samples to analyze"))
		return
	}

	result, err := h.engine.Analyze(c.Request.Context(), histories)
	if err != nil {
		h.metrics.PipelineRuns.WithLabelValues("api", "error").Inc()
		h.respondPipelineError(c, err)
		return
	}

	h.metrics.PipelineRuns.WithLabelValues("api", "success").Inc()
	h.metrics.PipelineInsights.Set(float64(len(result.Insights)))
	utils.SendSuccessWithMeta(c, result, gin.H{
		"metrics":  len(histories),
		"insights": len(result.Insights),
		"failures": len(result.Failures),
	})
}

// Trend runs the trend stage alone for one stored metric.
func (h *Handlers) Trend(c *gin.Context) {
	history, ok := h.singleHistory(c)
	if !ok {
		return
	}

	estimator := analytics.NewTrendEstimator(h.cfg.Analytics.AnomalyDetection.MinDataPoints, h.logger)
	trend, err := estimator.Estimate(history)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	utils.SendSuccess(c, trend)
}

// Anomalies runs the anomaly stage alone for one stored metric.
func (h *Handlers) Anomalies(c *gin.Context) {
	history, ok := h.singleHistory(c)
	if !ok {
		return
	}

	cfg := PipelineConfig(h.cfg.Analytics)
	detector := analytics.NewAnomalyDetector(cfg.AnomalyDetection, h.logger)
	anomalies := detector.Detect(history)
	utils.SendSuccessWithMeta(c, anomalies, gin.H{"count": len(anomalies)})
}

// Forecast runs the forecast stage alone for one stored metric.
// ?model= selects a single model (default ensemble), ?horizon= overrides
// the configured horizon.
func (h *Handlers) Forecast(c *gin.Context) {
	history, ok := h.singleHistory(c)
	if !ok {
		return
	}

	cfg := PipelineConfig(h.cfg.Analytics)

	horizon := cfg.Forecasting.Horizon
	if raw := c.Query("horizon"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.Error(apperrors.BadRequest("horizon must be a positive integer"))
			return
		}
		horizon = parsed
	}

	model := analytics.ModelEnsemble
	if raw := c.Query("model"); raw != "" {
		model = analytics.ForecastModel(raw)
	}

	forecaster := analytics.NewForecaster(cfg.Forecasting, h.logger)
	forecast, err := forecaster.Forecast(history, model, horizon, time.Now())
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	utils.SendSuccess(c, forecast)
}

// Export runs the pipeline over stored samples and streams the insight
// set as csv or json, gzip-compressed when ?gzip=true.
func (h *Handlers) Export(c *gin.Context) {
	format := c.Param("format")
	if format != "csv" && format != "json" {
		c.Error(apperrors.BadRequest("format must be csv or json"))
		return
	}

	histories, err := h.loadStoredHistories(c.Request.Context(), c.Query("metric"), granularityFromQuery(c))
	if err != nil || len(histories) == 0 {
		c.Error(apperrors.NotFound("No stored samples to export"))
		return
	}

	result, err := h.engine.Analyze(c.Request.Context(), histories)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	var payload []byte
	contentType := "application/json"
	if format == "json" {
		payload, err = json.MarshalIndent(result, "", "  ")
	} else {
		payload, err = insightsToCSV(result.Insights)
		contentType = "text/csv"
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode export")
		c.Error(apperrors.Internal(err, "Failed to encode export"))
		return
	}

	filename := "insights." + format
	if c.Query("gzip") == "true" {
		compressed, err := gzipBytes(payload)
		if err != nil {
			c.Error(apperrors.Internal(err, "Failed to compress export"))
			return
		}
		payload = compressed
		filename += ".gz"
		c.Header("Content-Encoding", "gzip")
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// LatestSnapshot returns the most recent persisted pipeline run.
func (h *Handlers) LatestSnapshot(c *gin.Context) {
	snapshot, err := h.repos.Insights.LatestSnapshot(c.Request.Context())
	if err != nil {
		c.Error(apperrors.NotFound("No snapshot available yet"))
		return
	}

	var result analytics.AnalysisResult
	if err := json.Unmarshal(snapshot.Insights, &result); err != nil {
		h.logger.WithError(err).Error("Failed to decode stored snapshot")
		c.Error(apperrors.Internal(err, "Failed to decode snapshot"))
		return
	}

	utils.SendSuccessWithMeta(c, result, gin.H{
		"snapshot_id":  snapshot.ID,
		"generated_at": snapshot.GeneratedAt,
	})
}

// singleHistory loads the :metric path parameter's stored history or
// writes the error response.
func (h *Handlers) singleHistory(c *gin.Context) (*analytics.MetricHistory, bool) {
	metric := c.Param("metric")
	histories, err := h.loadStoredHistories(c.Request.Context(), metric, granularityFromQuery(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load stored history")
		c.Error(apperrors.Internal(err, "Failed to load stored samples"))
		return nil, false
	}
	if len(histories) == 0 {
		c.Error(apperrors.NotFound("No samples for metric " + metric))
		return nil, false
	}
	return histories[0], true
}

// respondPipelineError maps the analytics sentinels onto transport errors
// rendered by the error middleware.
func (h *Handlers) respondPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, analytics.ErrInsufficientData),
		errors.Is(err, analytics.ErrInsufficientSeasonalData):
		c.Error(apperrors.Unprocessable(err.Error()))
	case errors.Is(err, analytics.ErrInvalidConfiguration):
		c.Error(apperrors.BadRequest(err.Error()))
	default:
		h.logger.WithError(err).Error("Pipeline run failed")
		c.Error(apperrors.Internal(err, "Analysis failed"))
	}
}

func granularityFromQuery(c *gin.Context) analytics.Granularity {
	switch c.Query("granularity") {
	case "hourly":
		return analytics.GranularityHourly
	case "weekly":
		return analytics.GranularityWeekly
	case "monthly":
		return analytics.GranularityMonthly
	default:
		return analytics.GranularityDaily
	}
}

// insightsToCSV flattens the insight envelope to one row per insight.
func insightsToCSV(insights []analytics.AnalyticsInsight) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "kind", "metric", "relevance_score", "generated_at", "summary"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, insight := range insights {
		row := []string{
			insight.ID,
			string(insight.Kind),
			insight.Metric,
			strconv.FormatFloat(insight.RelevanceScore, 'f', 4, 64),
			insight.GeneratedAt.UTC().Format(time.RFC3339),
			insightSummary(insight),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func insightSummary(insight analytics.AnalyticsInsight) string {
	switch insight.Kind {
	case analytics.InsightTrend:
		return fmt.Sprintf("trend %s (r2 %.2f)", insight.Trend.Trend, insight.Trend.R2)
	case analytics.InsightAnomaly:
		return insight.Anomaly.Description
	case analytics.InsightForecast:
		return fmt.Sprintf("model %s, %d points, accuracy %.2f",
			insight.Forecast.Model, len(insight.Forecast.Predictions), insight.Forecast.Accuracy)
	case analytics.InsightRecommendation:
		return insight.Recommendation.Title
	default:
		return ""
	}
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
