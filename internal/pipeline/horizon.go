package pipeline

// EstimateHorizon linearly extrapolates the minutes until the water level
// crosses thresholdLevel at the current rise rate. The rate is cm per
// sampling interval; the factor 60 converts interval counts to minutes at
// the ingestion cadence.
//
// A rising trend below the threshold is required: a flat or falling trend,
// or a level already past the threshold, yields no estimate (ok=false).
// The estimate is advisory only and never feeds back into the verdict.
func EstimateHorizon(currentLevel, riseRate, thresholdLevel float64) (minutes float64, ok bool) {
	if riseRate <= 0 || currentLevel >= thresholdLevel {
		return 0, false
	}
	return ((thresholdLevel - currentLevel) / riseRate) * 60, true
}
