package database

import (
	"github.com/jmoiron/sqlx"

	"github.com/pulsedash/pulse-backend-go/internal/database/repositories"
	"github.com/pulsedash/pulse-backend-go/internal/database/sqlite"
)

// Repositories holds all repository instances.
type Repositories struct {
	Metrics  repositories.MetricRepository
	Insights repositories.InsightRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Metrics:  sqlite.NewMetricRepository(db),
		Insights: sqlite.NewInsightRepository(db),
	}
}
