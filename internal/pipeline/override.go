package pipeline

// OverrideSet carries operator-supplied values that take precedence over
// sensor data for one evaluation cycle. A nil field means "use the
// sensor-derived value"; presence is tagged, so an operator entering zero
// is distinct from leaving a field blank. Override sets are never
// persisted.
type OverrideSet struct {
	WaterLevelCM *float64
	TemperatureC *float64
	HumidityPct  *float64
	Rain         *int
	// DangerLabel bypasses the classifier entirely when set.
	DangerLabel *Label
}

// Empty reports whether no override is set.
func (o OverrideSet) Empty() bool {
	return o.WaterLevelCM == nil && o.TemperatureC == nil && o.HumidityPct == nil &&
		o.Rain == nil && o.DangerLabel == nil
}

// Resolve merges operator overrides over the sensor-derived features,
// field by field.
//
// When the water level is overridden, both the normalized level and the
// rise rate are recomputed from it: the rise rate baseline is the
// previous stored reading's raw level (prevLevel, nil when no prior
// reading exists), not the sensor vector's stale rate.
//
// The returned direct label is non-nil only when the operator overrode
// the danger label outright.
func Resolve(sensor FeatureVector, sensorTemp float64, ov OverrideSet, prevLevel *float64, standardWaterHeight float64) (FeatureVector, float64, *Label) {
	eff := sensor

	if ov.WaterLevelCM != nil {
		eff.WaterLevelNorm = *ov.WaterLevelCM / standardWaterHeight
		if prevLevel != nil {
			eff.WaterRiseRate = *ov.WaterLevelCM - *prevLevel
		} else {
			eff.WaterRiseRate = 0
		}
	}

	if ov.Rain != nil {
		eff.Rain = *ov.Rain
	}

	if ov.HumidityPct != nil {
		eff.HumidityPct = *ov.HumidityPct
	}

	effTemp := sensorTemp
	if ov.TemperatureC != nil {
		effTemp = *ov.TemperatureC
	}

	return eff, effTemp, ov.DangerLabel
}
