package pipeline

import "errors"

var (
	// ErrInsufficientData means no fully valid reading is available yet.
	// The caller displays a waiting state; the next cycle retries from a
	// fresh snapshot.
	ErrInsufficientData = errors.New("insufficient data: no valid reading available")

	// ErrModelUnavailable means no trained classifier artifact could be
	// loaded. The forced-temperature and manual-override rules still
	// apply without a model.
	ErrModelUnavailable = errors.New("model unavailable: no trained artifact")

	// ErrPredictionUnavailable means the model is unavailable and neither
	// the forced-temperature nor the manual-override rule applied, so no
	// verdict can be formed this cycle.
	ErrPredictionUnavailable = errors.New("prediction unavailable: no rule applies without a model")
)
