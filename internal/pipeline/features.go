// Package pipeline implements the alerting decision pipeline: feature
// derivation from the reading log, operator override resolution, the
// verdict engine, and the hazard horizon estimate.
//
// Every stage is a pure function over a snapshot of the reading log, so
// one evaluation cycle is a linear, deterministic call chain with no
// internal concurrency. Errors are terminal for the cycle only; the next
// cycle retries from fresh input.
package pipeline

import (
	"procodus.dev/river-monitor/internal/store"
)

// Declared sensor ranges. A reading with any field outside its range is
// sensor noise and is dropped from the eligible history, never corrected.
const (
	MinWaterLevelCM = 0.0
	MaxWaterLevelCM = 1000.0
	MinTemperatureC = -10.0
	MaxTemperatureC = 80.0
	MinHumidityPct  = 0.0
	MaxHumidityPct  = 100.0
)

// FeatureVector is the normalized input to the classifier, derived from
// the two most recent valid readings.
type FeatureVector struct {
	WaterLevelNorm float64
	WaterRiseRate  float64
	Rain           int
	HumidityPct    float64
}

// Values returns the vector in training column order:
// [water_level_norm, water_rise_rate, rain, humidity_pct].
func (f FeatureVector) Values() [4]float64 {
	return [4]float64{f.WaterLevelNorm, f.WaterRiseRate, float64(f.Rain), f.HumidityPct}
}

// inRange reports whether a present field sits inside [lo, hi].
// Absent fields pass; they are filled, not filtered.
func inRange(v, lo, hi float64) bool {
	if store.IsAbsent(v) {
		return true
	}
	return v >= lo && v <= hi
}

// Clean filters and fills a timestamp-sorted history:
//
//  1. rows with any out-of-range field (or a negative rain level) are
//     dropped entirely;
//  2. absent float fields are carried forward from the last valid value,
//     then backward from the next one;
//  3. rows still missing a field after filling are excluded.
//
// The result contains only fully valid readings, in log order. Clean
// never mutates its input.
func Clean(history []store.Reading) []store.Reading {
	kept := make([]store.Reading, 0, len(history))
	for _, r := range history {
		if !inRange(r.WaterLevelCM, MinWaterLevelCM, MaxWaterLevelCM) {
			continue
		}
		if !inRange(r.TemperatureC, MinTemperatureC, MaxTemperatureC) {
			continue
		}
		if !inRange(r.HumidityPct, MinHumidityPct, MaxHumidityPct) {
			continue
		}
		if r.RainLevel < 0 {
			continue
		}
		kept = append(kept, r)
	}

	fillForward(kept)
	fillBackward(kept)

	valid := kept[:0]
	for _, r := range kept {
		if store.IsAbsent(r.WaterLevelCM) || store.IsAbsent(r.TemperatureC) || store.IsAbsent(r.HumidityPct) {
			continue
		}
		valid = append(valid, r)
	}
	return valid
}

func fillForward(rows []store.Reading) {
	var water, temp, hum = store.Absent(), store.Absent(), store.Absent()
	for i := range rows {
		if store.IsAbsent(rows[i].WaterLevelCM) {
			rows[i].WaterLevelCM = water
		} else {
			water = rows[i].WaterLevelCM
		}
		if store.IsAbsent(rows[i].TemperatureC) {
			rows[i].TemperatureC = temp
		} else {
			temp = rows[i].TemperatureC
		}
		if store.IsAbsent(rows[i].HumidityPct) {
			rows[i].HumidityPct = hum
		} else {
			hum = rows[i].HumidityPct
		}
	}
}

func fillBackward(rows []store.Reading) {
	var water, temp, hum = store.Absent(), store.Absent(), store.Absent()
	for i := len(rows) - 1; i >= 0; i-- {
		if store.IsAbsent(rows[i].WaterLevelCM) {
			rows[i].WaterLevelCM = water
		} else {
			water = rows[i].WaterLevelCM
		}
		if store.IsAbsent(rows[i].TemperatureC) {
			rows[i].TemperatureC = temp
		} else {
			temp = rows[i].TemperatureC
		}
		if store.IsAbsent(rows[i].HumidityPct) {
			rows[i].HumidityPct = hum
		} else {
			hum = rows[i].HumidityPct
		}
	}
}

// Derive computes the feature vector from the two most recent valid
// readings of a timestamp-sorted history. The rise rate is the difference
// between consecutive valid rows, 0 when no prior valid reading exists;
// a gap in the stream never fabricates a rate beyond that differencing.
//
// Derive is pure: the same history and standard height always yield the
// same vector.
func Derive(history []store.Reading, standardWaterHeight float64) (FeatureVector, error) {
	return deriveFromClean(Clean(history), standardWaterHeight)
}

func deriveFromClean(valid []store.Reading, standardWaterHeight float64) (FeatureVector, error) {
	if len(valid) == 0 {
		return FeatureVector{}, ErrInsufficientData
	}

	latest := valid[len(valid)-1]

	rise := 0.0
	if len(valid) > 1 {
		rise = latest.WaterLevelCM - valid[len(valid)-2].WaterLevelCM
	}

	rain := 0
	if latest.RainLevel > 0 {
		rain = 1
	}

	return FeatureVector{
		WaterLevelNorm: latest.WaterLevelCM / standardWaterHeight,
		WaterRiseRate:  rise,
		Rain:           rain,
		HumidityPct:    latest.HumidityPct,
	}, nil
}
