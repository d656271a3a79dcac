package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 3001, Host: "0.0.0.0", Mode: "development"},
		Database: DatabaseConfig{Path: "./data/pulse.db", MigrationsPath: "./migrations", MaxConnections: 25},
		Auth:     AuthConfig{Enabled: false},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Analytics: AnalyticsConfig{
			AnomalyDetection: AnomalyDetectionConfig{
				Enabled: true, Sensitivity: "medium", LookbackPeriod: 14, MinDataPoints: 3, Warmup: "partial",
			},
			Forecasting: ForecastingConfig{
				Enabled: true, Horizon: 14, UpdateFrequencyHours: 6,
				Models: []string{"linear", "exponential", "seasonal", "arima"},
			},
			Recommendations: RecommendationsConfig{
				Enabled: true, MaxRecommendations: 10, MinConfidence: 0.3,
			},
		},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadServer(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Server.Host = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "server.host")
}

func TestValidateRejectsUnknownAnalyticsValues(t *testing.T) {
	cfg := validConfig()
	cfg.Analytics.AnomalyDetection.Sensitivity = "extreme"
	cfg.Analytics.AnomalyDetection.Warmup = "maybe"
	cfg.Analytics.Forecasting.Models = []string{"linear", "prophet"}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensitivity")
	assert.Contains(t, err.Error(), "warmup")
	assert.Contains(t, err.Error(), "prophet")
}

func TestValidateRejectsOutOfRangeAnalytics(t *testing.T) {
	cfg := validConfig()
	cfg.Analytics.Forecasting.Horizon = 0
	cfg.Analytics.Recommendations.MinConfidence = 1.2

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "horizon")
	assert.Contains(t, err.Error(), "min_confidence")
}

func TestValidateRequiresAuthSettingsWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Enabled = true

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
	assert.Contains(t, err.Error(), "auth.pin")

	cfg.Auth.PIN = "1234"
	cfg.Auth.JWTSecret = "a-real-secret"
	cfg.Auth.TokenExpiry = 3600
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresSeedPathWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Seed.Enabled = true
	cfg.Seed.Path = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed.path")
}
