package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Security  SecurityConfig  `mapstructure:"security"`
	Seed      SeedConfig      `mapstructure:"seed"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
	MaxConnections int    `mapstructure:"max_connections"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	PIN         string `mapstructure:"pin"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenExpiry int    `mapstructure:"token_expiry"` // seconds
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type WebSocketConfig struct {
	PingInterval int `mapstructure:"ping_interval"` // seconds
	PongTimeout  int `mapstructure:"pong_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// AnalyticsConfig mirrors the pipeline configuration surface. Values are
// validated again by the analytics engine at construction time; validation
// here catches operator typos before the server starts serving.
type AnalyticsConfig struct {
	AnomalyDetection AnomalyDetectionConfig `mapstructure:"anomaly_detection"`
	Forecasting      ForecastingConfig      `mapstructure:"forecasting"`
	Recommendations  RecommendationsConfig  `mapstructure:"recommendations"`
}

type AnomalyDetectionConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Sensitivity    string `mapstructure:"sensitivity"` // low, medium, high
	LookbackPeriod int    `mapstructure:"lookback_period"`
	MinDataPoints  int    `mapstructure:"min_data_points"`
	Warmup         string `mapstructure:"warmup"` // partial, skip
}

type ForecastingConfig struct {
	Enabled              bool     `mapstructure:"enabled"`
	Horizon              int      `mapstructure:"horizon"`
	UpdateFrequencyHours int      `mapstructure:"update_frequency_hours"`
	Models               []string `mapstructure:"models"`
}

type RecommendationsConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	MaxRecommendations int     `mapstructure:"max_recommendations"`
	MinConfidence      float64 `mapstructure:"min_confidence"`
}

type SecurityConfig struct {
	EnableCORS     bool                    `mapstructure:"enable_cors"`
	AllowedOrigins []string                `mapstructure:"allowed_origins"`
	RateLimiting   SecurityRateLimitConfig `mapstructure:"rate_limiting"`
}

type SecurityRateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerSecond int  `mapstructure:"requests_per_second"`
	BurstSize         int  `mapstructure:"burst_size"`
}

// SeedConfig controls optional demo-data loading on first boot.
type SeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("auth.pin", "PULSE_AUTH_PIN")
	viper.BindEnv("analytics.forecasting.horizon", "PULSE_FORECAST_HORIZON")
	viper.BindEnv("seed.enabled", "PULSE_SEED_ENABLED")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration for completeness and correctness
func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errors = append(errors, "server.port must be between 1 and 65535")
	}
	if c.Server.Host == "" {
		errors = append(errors, "server.host is required")
	}

	if c.Database.Path == "" {
		errors = append(errors, "database.path is required")
	}

	if c.Auth.Enabled {
		if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "your-secret-key-here" {
			errors = append(errors, "auth.jwt_secret must be set to a secure value when enabled")
		}
		if c.Auth.PIN == "" {
			errors = append(errors, "auth.pin is required when auth is enabled")
		}
		if c.Auth.TokenExpiry <= 0 {
			errors = append(errors, "auth.token_expiry must be greater than 0 when enabled")
		}
	}

	switch c.Analytics.AnomalyDetection.Sensitivity {
	case "low", "medium", "high":
	default:
		errors = append(errors, "analytics.anomaly_detection.sensitivity must be one of low, medium, high")
	}
	if c.Analytics.AnomalyDetection.LookbackPeriod <= 0 {
		errors = append(errors, "analytics.anomaly_detection.lookback_period must be greater than 0")
	}
	if c.Analytics.AnomalyDetection.MinDataPoints <= 0 {
		errors = append(errors, "analytics.anomaly_detection.min_data_points must be greater than 0")
	}
	switch c.Analytics.AnomalyDetection.Warmup {
	case "partial", "skip":
	default:
		errors = append(errors, "analytics.anomaly_detection.warmup must be partial or skip")
	}

	if c.Analytics.Forecasting.Horizon <= 0 {
		errors = append(errors, "analytics.forecasting.horizon must be greater than 0")
	}
	if c.Analytics.Forecasting.UpdateFrequencyHours <= 0 {
		errors = append(errors, "analytics.forecasting.update_frequency_hours must be greater than 0")
	}
	for _, model := range c.Analytics.Forecasting.Models {
		switch model {
		case "linear", "exponential", "seasonal", "arima":
		default:
			errors = append(errors, fmt.Sprintf("analytics.forecasting.models contains unknown model %q", model))
		}
	}

	if c.Analytics.Recommendations.MaxRecommendations <= 0 {
		errors = append(errors, "analytics.recommendations.max_recommendations must be greater than 0")
	}
	if c.Analytics.Recommendations.MinConfidence < 0 || c.Analytics.Recommendations.MinConfidence > 1 {
		errors = append(errors, "analytics.recommendations.min_confidence must be within [0,1]")
	}

	if c.Seed.Enabled && c.Seed.Path == "" {
		errors = append(errors, "seed.path is required when seeding is enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.path", "./data/pulse.db")
	viper.SetDefault("database.migrations_path", "./migrations")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.auto_migrate", true)

	// Auth defaults
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.token_expiry", 3600)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	// WebSocket defaults
	viper.SetDefault("websocket.ping_interval", 30)
	viper.SetDefault("websocket.pong_timeout", 60)
	viper.SetDefault("websocket.write_timeout", 10)

	// Analytics defaults
	viper.SetDefault("analytics.anomaly_detection.enabled", true)
	viper.SetDefault("analytics.anomaly_detection.sensitivity", "medium")
	viper.SetDefault("analytics.anomaly_detection.lookback_period", 14)
	viper.SetDefault("analytics.anomaly_detection.min_data_points", 3)
	viper.SetDefault("analytics.anomaly_detection.warmup", "partial")

	viper.SetDefault("analytics.forecasting.enabled", true)
	viper.SetDefault("analytics.forecasting.horizon", 14)
	viper.SetDefault("analytics.forecasting.update_frequency_hours", 6)
	viper.SetDefault("analytics.forecasting.models", []string{"linear", "exponential", "seasonal", "arima"})

	viper.SetDefault("analytics.recommendations.enabled", true)
	viper.SetDefault("analytics.recommendations.max_recommendations", 10)
	viper.SetDefault("analytics.recommendations.min_confidence", 0.3)

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.allowed_origins", []string{"*"})
	viper.SetDefault("security.rate_limiting.enabled", true)
	viper.SetDefault("security.rate_limiting.requests_per_second", 100)
	viper.SetDefault("security.rate_limiting.burst_size", 200)

	// Seed defaults
	viper.SetDefault("seed.enabled", false)
	viper.SetDefault("seed.path", "./configs/seed.yaml")
}
