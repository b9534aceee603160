package dashboard

import (
	"fmt"
	"net/url"
	"strconv"

	"procodus.dev/river-monitor/internal/pipeline"
)

// ParseOverrides decodes the manual-override form into an OverrideSet.
// Blank fields mean "use sensor data"; presence is tagged, so an operator
// entering 0 is not the same as leaving a field empty.
func ParseOverrides(values url.Values) (pipeline.OverrideSet, error) {
	var ov pipeline.OverrideSet

	water, err := optionalFloat(values, "water_level_cm")
	if err != nil {
		return pipeline.OverrideSet{}, err
	}
	ov.WaterLevelCM = water

	temp, err := optionalFloat(values, "temperature_c")
	if err != nil {
		return pipeline.OverrideSet{}, err
	}
	ov.TemperatureC = temp

	hum, err := optionalFloat(values, "humidity_pct")
	if err != nil {
		return pipeline.OverrideSet{}, err
	}
	ov.HumidityPct = hum

	if raw := values.Get("rain"); raw != "" {
		rain, err := strconv.Atoi(raw)
		if err != nil || (rain != 0 && rain != 1) {
			return pipeline.OverrideSet{}, fmt.Errorf("rain must be 0 or 1, got %q", raw)
		}
		ov.Rain = &rain
	}

	if raw := values.Get("danger_label"); raw != "" {
		label, ok := pipeline.ParseLabel(raw)
		if !ok {
			return pipeline.OverrideSet{}, fmt.Errorf("unknown danger label %q", raw)
		}
		ov.DangerLabel = &label
	}

	return ov, nil
}

func optionalFloat(values url.Values, key string) (*float64, error) {
	raw := values.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be numeric, got %q", key, raw)
	}
	return &v, nil
}
