package analytics

import (
	"time"
)

// MetricCategory classifies a business metric
type MetricCategory string

const (
	CategoryRevenue      MetricCategory = "revenue"
	CategoryPerformance  MetricCategory = "performance"
	CategoryEngagement   MetricCategory = "engagement"
	CategoryConversion   MetricCategory = "conversion"
	CategorySatisfaction MetricCategory = "satisfaction"
)

// Granularity is the aggregation step of a metric history
type Granularity string

const (
	GranularityHourly  Granularity = "hourly"
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Step returns the duration between consecutive samples at this granularity.
func (g Granularity) Step() time.Duration {
	switch g {
	case GranularityHourly:
		return time.Hour
	case GranularityWeekly:
		return 7 * 24 * time.Hour
	case GranularityMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// TrendDirection classifies the direction of a metric trend
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
	TrendVolatile   TrendDirection = "volatile"
)

// Severity levels
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// rank orders severities for comparisons and sorting.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// AnomalyType classifies a flagged sample
type AnomalyType string

const (
	AnomalySpike        AnomalyType = "spike"
	AnomalyDrop         AnomalyType = "drop"
	AnomalyOutlier      AnomalyType = "outlier"
	AnomalyPatternBreak AnomalyType = "pattern_break"
)

// ForecastModel identifies a forecasting model
type ForecastModel string

const (
	ModelLinear      ForecastModel = "linear"
	ModelExponential ForecastModel = "exponential"
	ModelSeasonal    ForecastModel = "seasonal"
	ModelARIMA       ForecastModel = "arima"
	ModelEnsemble    ForecastModel = "ensemble"
)

// Priority levels for recommendations
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// RecommendationCategory classifies a recommendation
type RecommendationCategory string

const (
	RecommendationOptimization   RecommendationCategory = "optimization"
	RecommendationRiskMitigation RecommendationCategory = "risk_mitigation"
	RecommendationOpportunity    RecommendationCategory = "opportunity"
	RecommendationMaintenance    RecommendationCategory = "maintenance"
)

// InsightKind tags the payload carried by an AnalyticsInsight
type InsightKind string

const (
	InsightTrend          InsightKind = "trend"
	InsightAnomaly        InsightKind = "anomaly"
	InsightForecast       InsightKind = "forecast"
	InsightRecommendation InsightKind = "recommendation"
)

// BusinessMetric is a single observation of a named metric. Immutable once
// produced; the pipeline never mutates samples.
type BusinessMetric struct {
	Name      string            `json:"name" db:"name"`
	Value     float64           `json:"value" db:"value"`
	Timestamp time.Time         `json:"timestamp" db:"timestamp"`
	Category  MetricCategory    `json:"category" db:"category"`
	Unit      string            `json:"unit,omitempty" db:"unit"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// MetricHistory is the ordered sample sequence for one logical metric.
// Samples must be sorted ascending by timestamp; the pipeline does not
// re-sort and assumes callers provide chronological order.
type MetricHistory struct {
	Name        string           `json:"name"`
	Category    MetricCategory   `json:"category"`
	Granularity Granularity      `json:"granularity"`
	Samples     []BusinessMetric `json:"samples"`
}

// Values returns the sample values in order.
func (h *MetricHistory) Values() []float64 {
	values := make([]float64, len(h.Samples))
	for i, s := range h.Samples {
		values[i] = s.Value
	}
	return values
}

// IsChronological reports whether samples are sorted ascending by timestamp.
func (h *MetricHistory) IsChronological() bool {
	for i := 1; i < len(h.Samples); i++ {
		if h.Samples[i].Timestamp.Before(h.Samples[i-1].Timestamp) {
			return false
		}
	}
	return true
}

// TrendAnalysis is the trend estimator output for one metric
type TrendAnalysis struct {
	Metric     string         `json:"metric"`
	Trend      TrendDirection `json:"trend"`
	Strength   float64        `json:"strength"` // [0,1]
	Slope      float64        `json:"slope"`
	R2         float64        `json:"r2"` // [0,1]
	Period     Granularity    `json:"period"`
	DataPoints int            `json:"data_points"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
}

// AnomalyDetection describes one flagged sample. It references the sample
// but does not mutate it.
type AnomalyDetection struct {
	Metric        string      `json:"metric"`
	Timestamp     time.Time   `json:"timestamp"`
	Value         float64     `json:"value"`
	ExpectedValue float64     `json:"expected_value"`
	Deviation     float64     `json:"deviation"` // absolute distance from expectation
	ZScore        float64     `json:"z_score"`   // deviation in rolling stddev units
	Severity      Severity    `json:"severity"`
	Confidence    float64     `json:"confidence"` // [0,1]
	Type          AnomalyType `json:"type"`
	Description   string      `json:"description"`
}

// ConfidenceInterval is a [lower, upper] forecast uncertainty band
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns the band width.
func (ci ConfidenceInterval) Width() float64 {
	return ci.Upper - ci.Lower
}

// ForecastPoint is one predicted future instant
type ForecastPoint struct {
	Timestamp          time.Time          `json:"timestamp"`
	PredictedValue     float64            `json:"predicted_value"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	Confidence         float64            `json:"confidence"` // [0,1]
}

// Forecast bundles the predicted points for one metric with the model used
// and its hold-out accuracy metrics.
type Forecast struct {
	Metric         string          `json:"metric"`
	Model          ForecastModel   `json:"model"`
	Predictions    []ForecastPoint `json:"predictions"`
	Accuracy       float64         `json:"accuracy"` // [0,1]
	MAPE           float64         `json:"mape"`
	RMSE           float64         `json:"rmse"`
	HasSeasonality bool            `json:"has_seasonality"`
	SeasonalPeriod int             `json:"seasonal_period,omitempty"`
	GeneratedAt    time.Time       `json:"generated_at"`
	ValidUntil     time.Time       `json:"valid_until"`
}

// Recommendation is a synthesized, prioritized action item
type Recommendation struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	Priority         Priority               `json:"priority"`
	Category         RecommendationCategory `json:"category"`
	Confidence       float64                `json:"confidence"` // [0,1]
	Impact           float64                `json:"impact"`     // [0,1]
	Effort           float64                `json:"effort"`     // [0,1]
	SuggestedActions []string               `json:"suggested_actions"`
	Metrics          []string               `json:"metrics"`
}

// AnalyticsInsight is the pipeline's output envelope. Exactly one of the
// payload pointers is non-nil, matching Kind.
type AnalyticsInsight struct {
	ID             string            `json:"id"`
	Kind           InsightKind       `json:"kind"`
	Metric         string            `json:"metric,omitempty"`
	Trend          *TrendAnalysis    `json:"trend,omitempty"`
	Anomaly        *AnomalyDetection `json:"anomaly,omitempty"`
	Forecast       *Forecast         `json:"forecast,omitempty"`
	Recommendation *Recommendation   `json:"recommendation,omitempty"`
	RelevanceScore float64           `json:"relevance_score"`
	GeneratedAt    time.Time         `json:"generated_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
}

// StageFailure records a per-metric, per-stage recoverable failure.
// One metric failing never aborts the rest of the batch.
type StageFailure struct {
	Metric string `json:"metric"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// AnalysisResult is the full pipeline output for one invocation
type AnalysisResult struct {
	Insights []AnalyticsInsight `json:"insights"`
	Failures []StageFailure     `json:"failures,omitempty"`
}
