package analytics

import "errors"

// Sentinel errors for recoverable analysis conditions. All are
// recoverable by the caller; none is process-fatal. Use errors.Is to
// classify wrapped instances.
var (
	// ErrInsufficientData means a stage received fewer samples than its
	// minimum. The caller should skip the metric, never fabricate output.
	ErrInsufficientData = errors.New("insufficient data points for analysis")

	// ErrInsufficientSeasonalData means the seasonal model was asked to fit
	// a history shorter than two full periods. Callers fall back to a
	// non-seasonal model.
	ErrInsufficientSeasonalData = errors.New("insufficient history for seasonal decomposition")

	// ErrInvalidConfiguration means a configuration value is out of range
	// or references an unknown option.
	ErrInvalidConfiguration = errors.New("invalid analytics configuration")
)
