package refresh

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/pulsedash/pulse-backend-go/internal/database/models"
	"github.com/pulsedash/pulse-backend-go/internal/database/repositories"
)

// SeedFile is the YAML demo-data format: per metric a start time, a step
// and the raw values.
type SeedFile struct {
	Metrics []SeedMetric `yaml:"metrics"`
}

// SeedMetric is one metric's seed series.
type SeedMetric struct {
	Name      string    `yaml:"name"`
	Category  string    `yaml:"category"`
	Unit      string    `yaml:"unit"`
	Start     time.Time `yaml:"start"`
	StepHours int       `yaml:"step_hours"`
	Values    []float64 `yaml:"values"`
}

// LoadSeed inserts demo samples from a YAML file when the samples table
// is empty. A non-empty table makes it a no-op so restarts never
// duplicate data.
func LoadSeed(ctx context.Context, path string, repo repositories.MetricRepository, logger *logrus.Logger) error {
	count, err := repo.CountSamples(ctx)
	if err != nil {
		return fmt.Errorf("failed to check sample count: %w", err)
	}
	if count > 0 {
		logger.WithField("existing_samples", count).Debug("Samples present, skipping seed")
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	var samples []*models.MetricSample
	for _, metric := range seed.Metrics {
		if metric.Name == "" || len(metric.Values) == 0 {
			return fmt.Errorf("seed metric must have a name and values")
		}
		step := time.Duration(metric.StepHours) * time.Hour
		if step <= 0 {
			step = 24 * time.Hour
		}
		for i, value := range metric.Values {
			samples = append(samples, &models.MetricSample{
				Name:      metric.Name,
				Category:  metric.Category,
				Unit:      metric.Unit,
				Value:     value,
				Timestamp: metric.Start.Add(time.Duration(i) * step),
			})
		}
	}

	if err := repo.InsertSamples(ctx, samples); err != nil {
		return fmt.Errorf("failed to insert seed samples: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"metrics": len(seed.Metrics),
		"samples": len(samples),
	}).Info("Seed data loaded")
	return nil
}
