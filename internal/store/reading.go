// Package store implements the append-only reading log and its optional
// database archive.
//
// The canonical store is a flat CSV file with one header row. Appends and
// snapshot reads share a mutex so the pipeline always sees a consistent
// tail; rows are immutable once written and never deleted.
package store

import (
	"math"
	"time"
)

// Reading is one timestamped environmental sample.
//
// Float fields use NaN to mean "absent": the sensor did not report the
// value at all. Absent is distinct from out-of-range, which is real data
// treated as noise and filtered downstream.
type Reading struct {
	// Timestamp is milliseconds since epoch. The log is sorted by it on
	// read; append order is not guaranteed monotonic.
	Timestamp    int64
	WaterLevelCM float64
	TemperatureC float64
	HumidityPct  float64
	// DangerLevel is the optional ground-truth label (0=Aman, 1=Waspada,
	// 2=Bahaya) used only for training.
	DangerLevel *int
	RainLevel   int
}

// Absent is the marker value for a float field the sensor did not report.
func Absent() float64 { return math.NaN() }

// IsAbsent reports whether a float field carries no value.
func IsAbsent(v float64) bool { return math.IsNaN(v) }

// Time returns the reading's timestamp as a time.Time in UTC.
func (r Reading) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}
