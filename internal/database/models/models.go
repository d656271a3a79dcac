package models

import "time"

// MetricSample is one stored observation of a business metric.
type MetricSample struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	Unit      string    `db:"unit" json:"unit,omitempty"`
	Value     float64   `db:"value" json:"value"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MetricInfo summarizes one logical metric across its stored samples.
type MetricInfo struct {
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	Unit        string    `db:"unit" json:"unit,omitempty"`
	SampleCount int       `db:"sample_count" json:"sample_count"`
	FirstSample time.Time `db:"first_sample" json:"first_sample"`
	LastSample  time.Time `db:"last_sample" json:"last_sample"`
}

// InsightSnapshot is a persisted pipeline run: the full insight set as
// JSON plus summary counters for cheap listing.
type InsightSnapshot struct {
	ID           string    `db:"id" json:"id"`
	Insights     []byte    `db:"insights" json:"-"`
	InsightCount int       `db:"insight_count" json:"insight_count"`
	FailureCount int       `db:"failure_count" json:"failure_count"`
	GeneratedAt  time.Time `db:"generated_at" json:"generated_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
