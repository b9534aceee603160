package pipeline

import (
	"errors"
	"fmt"

	"procodus.dev/river-monitor/internal/store"
)

// Config holds the operator-tunable pipeline parameters.
type Config struct {
	// StandardWaterHeight normalizes the raw water level. Must be > 0.
	StandardWaterHeight float64

	// HazardLevelCM is the water level the horizon estimate extrapolates
	// towards.
	HazardLevelCM float64
}

// DefaultConfig returns the default pipeline parameters.
func DefaultConfig() Config {
	return Config{
		StandardWaterHeight: 50.0,
		HazardLevelCM:       100.0,
	}
}

func (c Config) validate() error {
	if c.StandardWaterHeight <= 0 {
		return fmt.Errorf("standard water height must be > 0, got %v", c.StandardWaterHeight)
	}
	return nil
}

// Result is the output of one evaluation cycle.
type Result struct {
	// Features is the effective feature vector after override resolution.
	Features FeatureVector

	// EffectiveTemp is the temperature the verdict engine saw.
	EffectiveTemp float64

	Verdict Verdict

	// HorizonMinutes is the advisory time-to-hazard estimate, nil when
	// no rising trend below the hazard level exists.
	HorizonMinutes *float64
}

// Evaluate runs one synchronous cycle over a snapshot of the reading log:
// derive features, resolve overrides, decide, estimate the horizon.
//
// Errors are terminal for this cycle only and map to the caller's display
// states: ErrInsufficientData before derivation, ErrPredictionUnavailable
// when no verdict rule applies without a model. Partial verdicts are never
// returned.
func Evaluate(history []store.Reading, predictor Predictor, overrides OverrideSet, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	valid := Clean(history)

	sensor, err := deriveFromClean(valid, cfg.StandardWaterHeight)
	if err != nil {
		return Result{}, err
	}

	latest := valid[len(valid)-1]
	var prevLevel *float64
	if len(valid) > 1 {
		prevLevel = &valid[len(valid)-2].WaterLevelCM
	}

	eff, effTemp, directLabel := Resolve(sensor, latest.TemperatureC, overrides, prevLevel, cfg.StandardWaterHeight)

	// A direct manual label supersedes classifier invocation entirely.
	var pred *Prediction
	if directLabel == nil && predictor != nil {
		p, perr := predictor.Predict(eff)
		switch {
		case perr == nil:
			pred = &p
		case errors.Is(perr, ErrModelUnavailable):
			// Rules 1-2 still apply without a model.
		default:
			return Result{}, fmt.Errorf("classifier failed: %w", perr)
		}
	}

	verdict, err := Decide(effTemp, pred, directLabel)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Features:      eff,
		EffectiveTemp: effTemp,
		Verdict:       verdict,
	}

	currentLevel := eff.WaterLevelNorm * cfg.StandardWaterHeight
	if minutes, ok := EstimateHorizon(currentLevel, eff.WaterRiseRate, cfg.HazardLevelCM); ok {
		result.HorizonMinutes = &minutes
	}

	return result, nil
}
