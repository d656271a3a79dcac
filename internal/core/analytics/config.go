package analytics

import (
	"fmt"
	"strings"
)

// Sensitivity controls how small a deviation the anomaly detector flags
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// threshold maps sensitivity to the minimum deviation, in rolling
// standard deviations, that gets flagged. Higher sensitivity flags
// smaller deviations.
func (s Sensitivity) threshold() float64 {
	switch s {
	case SensitivityLow:
		return 3.0
	case SensitivityHigh:
		return 2.0
	default:
		return 2.5
	}
}

// WarmupMode selects how samples before a full lookback window are scored
type WarmupMode string

const (
	// WarmupPartial scores warm-up samples against the partial window
	// available, once at least MinDataPoints prior samples exist.
	WarmupPartial WarmupMode = "partial"
	// WarmupSkip leaves the first LookbackPeriod samples unscored.
	WarmupSkip WarmupMode = "skip"
)

// AnomalyConfig configures the anomaly detector
type AnomalyConfig struct {
	Enabled        bool        `json:"enabled"`
	Sensitivity    Sensitivity `json:"sensitivity"`
	LookbackPeriod int         `json:"lookback_period"`
	MinDataPoints  int         `json:"min_data_points"`
	Warmup         WarmupMode  `json:"warmup"`
}

// ForecastConfig configures the forecaster
type ForecastConfig struct {
	Enabled              bool            `json:"enabled"`
	Horizon              int             `json:"horizon"`
	UpdateFrequencyHours int             `json:"update_frequency_hours"`
	Models               []ForecastModel `json:"models"`
	// SeasonalPeriod pins the seasonal model's period; 0 means auto-detect
	// via autocorrelation.
	SeasonalPeriod int `json:"seasonal_period,omitempty"`
}

// RecommendationConfig configures the synthesizer
type RecommendationConfig struct {
	Enabled            bool    `json:"enabled"`
	MaxRecommendations int     `json:"max_recommendations"`
	MinConfidence      float64 `json:"min_confidence"`
	// Targets maps metric names to business targets; forecasts whose
	// confidence band crosses a target produce recommendations.
	Targets map[string]float64 `json:"targets,omitempty"`
}

// Config is the full pipeline configuration. Every recognized option is
// enumerated here and validated at engine construction; unknown or
// out-of-range values are rejected eagerly rather than silently ignored.
type Config struct {
	AnomalyDetection AnomalyConfig        `json:"anomaly_detection"`
	Forecasting      ForecastConfig       `json:"forecasting"`
	Recommendations  RecommendationConfig `json:"recommendations"`
}

// DefaultConfig returns the configuration used when callers supply none.
func DefaultConfig() Config {
	return Config{
		AnomalyDetection: AnomalyConfig{
			Enabled:        true,
			Sensitivity:    SensitivityMedium,
			LookbackPeriod: 14,
			MinDataPoints:  3,
			Warmup:         WarmupPartial,
		},
		Forecasting: ForecastConfig{
			Enabled:              true,
			Horizon:              14,
			UpdateFrequencyHours: 6,
			Models:               []ForecastModel{ModelLinear, ModelExponential, ModelSeasonal, ModelARIMA},
		},
		Recommendations: RecommendationConfig{
			Enabled:            true,
			MaxRecommendations: 10,
			MinConfidence:      0.3,
		},
	}
}

// Validate checks every option and returns ErrInvalidConfiguration with
// the full list of violations.
func (c *Config) Validate() error {
	var problems []string

	switch c.AnomalyDetection.Sensitivity {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
	default:
		problems = append(problems, fmt.Sprintf("unknown sensitivity %q", c.AnomalyDetection.Sensitivity))
	}
	if c.AnomalyDetection.LookbackPeriod <= 0 {
		problems = append(problems, "lookback_period must be > 0")
	}
	if c.AnomalyDetection.MinDataPoints <= 0 {
		problems = append(problems, "min_data_points must be > 0")
	}
	switch c.AnomalyDetection.Warmup {
	case WarmupPartial, WarmupSkip:
	default:
		problems = append(problems, fmt.Sprintf("unknown warmup mode %q", c.AnomalyDetection.Warmup))
	}

	if c.Forecasting.Horizon <= 0 {
		problems = append(problems, "horizon must be > 0")
	}
	if c.Forecasting.UpdateFrequencyHours <= 0 {
		problems = append(problems, "update_frequency_hours must be > 0")
	}
	if c.Forecasting.SeasonalPeriod < 0 {
		problems = append(problems, "seasonal_period must be >= 0")
	}
	for _, m := range c.Forecasting.Models {
		switch m {
		case ModelLinear, ModelExponential, ModelSeasonal, ModelARIMA:
		default:
			problems = append(problems, fmt.Sprintf("unknown forecast model %q", m))
		}
	}

	if c.Recommendations.MaxRecommendations <= 0 {
		problems = append(problems, "max_recommendations must be > 0")
	}
	if c.Recommendations.MinConfidence < 0 || c.Recommendations.MinConfidence > 1 {
		problems = append(problems, "min_confidence must be within [0,1]")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
