package analytics

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Sustained-decline strength cutoff: below it a falling business metric is
// an opportunity to intervene, above it an active risk.
const decliningStrengthCutoff = 0.6

// RecommendationSynthesizer turns the other stages' outputs into a ranked
// action list. Pure aggregation; it never recomputes statistics.
type RecommendationSynthesizer struct {
	cfg    RecommendationConfig
	logger *logrus.Logger
}

// NewRecommendationSynthesizer creates a synthesizer with the given
// configuration.
func NewRecommendationSynthesizer(cfg RecommendationConfig, logger *logrus.Logger) *RecommendationSynthesizer {
	return &RecommendationSynthesizer{cfg: cfg, logger: logger}
}

// SynthesisInput carries the per-metric stage outputs into the join point.
// Categories maps metric name to its business category so trend rules can
// distinguish revenue metrics from the rest.
type SynthesisInput struct {
	Trends     []TrendAnalysis
	Anomalies  []AnomalyDetection
	Forecasts  []Forecast
	Categories map[string]MetricCategory
}

// Synthesize applies the rule set, filters by minimum confidence, and
// returns recommendations sorted by priority, then confidence, then metric
// name. The ordering is fully deterministic for identical inputs.
func (rs *RecommendationSynthesizer) Synthesize(input SynthesisInput) []Recommendation {
	recs := []Recommendation{}

	recs = append(recs, rs.fromAnomalies(input.Anomalies)...)
	recs = append(recs, rs.fromTrends(input.Trends, input.Categories)...)
	recs = append(recs, rs.fromForecasts(input.Forecasts)...)

	filtered := recs[:0]
	for _, r := range recs {
		if r.Confidence >= rs.cfg.MinConfidence {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() > b.Priority.rank()
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return firstMetric(a) < firstMetric(b)
	})

	if len(filtered) > rs.cfg.MaxRecommendations {
		filtered = filtered[:rs.cfg.MaxRecommendations]
	}
	return filtered
}

// fromAnomalies emits one risk mitigation item per metric that has at
// least one high or critical anomaly. The worst anomaly on the metric
// drives priority and confidence.
func (rs *RecommendationSynthesizer) fromAnomalies(anomalies []AnomalyDetection) []Recommendation {
	worst := map[string]*AnomalyDetection{}
	counts := map[string]int{}
	var order []string
	for i := range anomalies {
		a := &anomalies[i]
		if a.Severity != SeverityHigh && a.Severity != SeverityCritical {
			continue
		}
		counts[a.Metric]++
		if prev, ok := worst[a.Metric]; !ok {
			worst[a.Metric] = a
			order = append(order, a.Metric)
		} else if a.Severity.rank() > prev.Severity.rank() ||
			(a.Severity.rank() == prev.Severity.rank() && a.ZScore > prev.ZScore) {
			worst[a.Metric] = a
		}
	}

	var recs []Recommendation
	for _, metric := range order {
		a := worst[metric]
		priority := PriorityHigh
		if a.Severity == SeverityCritical {
			priority = PriorityCritical
		}
		recs = append(recs, Recommendation{
			ID:       fmt.Sprintf("anomaly-%s-%s", a.Severity, metric),
			Title:    fmt.Sprintf("Investigate %s anomaly on %s", a.Severity, metric),
			Description: fmt.Sprintf("%d %s-or-worse deviation(s) detected; latest: %s",
				counts[metric], SeverityHigh, a.Description),
			Priority:   priority,
			Category:   RecommendationRiskMitigation,
			Confidence: a.Confidence,
			Impact:     clamp01(a.ZScore / 5.0),
			Effort:     0.4,
			SuggestedActions: []string{
				fmt.Sprintf("Review events around %s", a.Timestamp.Format("2006-01-02 15:04")),
				"Check upstream data quality for the affected source",
				"Confirm whether the deviation reflects a real business event",
			},
			Metrics: []string{metric},
		})
	}
	return recs
}

// fromTrends watches revenue and conversion metrics for sustained
// declines. A weak decline is an opportunity to intervene early; a strong
// one is an active risk.
func (rs *RecommendationSynthesizer) fromTrends(trends []TrendAnalysis, categories map[string]MetricCategory) []Recommendation {
	var recs []Recommendation
	for _, t := range trends {
		if t.Trend != TrendDecreasing {
			continue
		}
		category := t.metricCategory(categories)
		if category != CategoryRevenue && category != CategoryConversion {
			continue
		}

		recCategory := RecommendationOpportunity
		priority := PriorityMedium
		if t.Strength >= decliningStrengthCutoff {
			recCategory = RecommendationRiskMitigation
			priority = PriorityHigh
		}
		recs = append(recs, Recommendation{
			ID:    fmt.Sprintf("trend-decline-%s", t.Metric),
			Title: fmt.Sprintf("Address declining %s", t.Metric),
			Description: fmt.Sprintf("%s has trended downward over %d samples (fit strength %.2f)",
				t.Metric, t.DataPoints, t.Strength),
			Priority:   priority,
			Category:   recCategory,
			Confidence: t.Strength,
			Impact:     clamp01(t.Strength + 0.2),
			Effort:     0.6,
			SuggestedActions: []string{
				fmt.Sprintf("Break down %s by segment to locate the decline", t.Metric),
				"Compare against the same period in prior cycles",
				"Review recent product or pricing changes",
			},
			Metrics: []string{t.Metric},
		})
	}
	return recs
}

// fromForecasts flags metrics whose predicted band crosses a configured
// target. A band falling below target is an optimization push; merely
// touching it from above is routine maintenance.
func (rs *RecommendationSynthesizer) fromForecasts(forecasts []Forecast) []Recommendation {
	var recs []Recommendation
	for _, f := range forecasts {
		target, ok := rs.cfg.Targets[f.Metric]
		if !ok || len(f.Predictions) == 0 {
			continue
		}

		crossed := false
		below := false
		var crossedAt ForecastPoint
		for _, p := range f.Predictions {
			if p.ConfidenceInterval.Lower <= target && target <= p.ConfidenceInterval.Upper {
				if !crossed {
					crossedAt = p
				}
				crossed = true
			}
			if p.PredictedValue < target {
				below = true
			}
		}
		if !crossed {
			continue
		}

		recCategory := RecommendationMaintenance
		priority := PriorityLow
		title := fmt.Sprintf("Monitor %s against its target", f.Metric)
		if below {
			recCategory = RecommendationOptimization
			priority = PriorityMedium
			title = fmt.Sprintf("Lift %s back above target", f.Metric)
		}
		recs = append(recs, Recommendation{
			ID:    fmt.Sprintf("forecast-target-%s", f.Metric),
			Title: title,
			Description: fmt.Sprintf("Forecast band for %s crosses the %.2f target around %s (model %s, accuracy %.2f)",
				f.Metric, target, crossedAt.Timestamp.Format("2006-01-02"), f.Model, f.Accuracy),
			Priority:   priority,
			Category:   recCategory,
			Confidence: clamp01(f.Accuracy * crossedAt.Confidence),
			Impact:     0.5,
			Effort:     0.5,
			SuggestedActions: []string{
				fmt.Sprintf("Set an alert on %s near %.2f", f.Metric, target),
				"Re-run the forecast after the next data refresh",
			},
			Metrics: []string{f.Metric},
		})
	}
	return recs
}

func (t TrendAnalysis) metricCategory(categories map[string]MetricCategory) MetricCategory {
	if categories == nil {
		return ""
	}
	return categories[t.Metric]
}

func firstMetric(r Recommendation) string {
	if len(r.Metrics) == 0 {
		return ""
	}
	return r.Metrics[0]
}
