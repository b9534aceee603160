// Package ingest subscribes to the telemetry queue and appends readings
// to the log. Parsing errors are fully recovered here; they never reach
// the decision pipeline.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"procodus.dev/river-monitor/internal/store"
)

// ErrMalformedMessage means a payload failed both the structured and the
// fallback format. The message is dropped and logged; the store is
// unaffected.
var ErrMalformedMessage = errors.New("malformed ingestion message")

// wireReading is the structured JSON telemetry contract. Every field is
// optional; defaults mirror what the field stations send when a sensor is
// detached (-1 for the analog channels, 0 for the counters).
type wireReading struct {
	Timestamp    *int64   `json:"timestamp"`
	WaterLevelCM *float64 `json:"water_level_cm"`
	TemperatureC *float64 `json:"temperature_c"`
	HumidityPct  *float64 `json:"humidity_pct"`
	DangerLevel  *int     `json:"danger_level"`
	RainLevel    *int     `json:"rain_level"`
}

// ParseMessage decodes one telemetry payload into a reading.
//
// The structured JSON form is tried first. When it fails, the degraded
// plain-text fallback of four comma-separated numbers
// (water,rain,danger,humidity) is accepted; older firmware emits it when
// its JSON encoder runs out of memory. A missing timestamp defaults to
// the receipt time.
func ParseMessage(body []byte, receivedAt time.Time) (store.Reading, error) {
	if r, err := parseJSON(body, receivedAt); err == nil {
		return r, nil
	}

	r, err := parseFallback(body, receivedAt)
	if err != nil {
		return store.Reading{}, fmt.Errorf("%w: %s", ErrMalformedMessage, err)
	}
	return r, nil
}

func parseJSON(body []byte, receivedAt time.Time) (store.Reading, error) {
	var w wireReading
	if err := json.Unmarshal(body, &w); err != nil {
		return store.Reading{}, err
	}

	r := store.Reading{
		Timestamp:    receivedAt.UnixMilli(),
		WaterLevelCM: -1,
		TemperatureC: -1,
		HumidityPct:  -1,
	}
	if w.Timestamp != nil {
		r.Timestamp = *w.Timestamp
	}
	if w.WaterLevelCM != nil {
		r.WaterLevelCM = *w.WaterLevelCM
	}
	if w.TemperatureC != nil {
		r.TemperatureC = *w.TemperatureC
	}
	if w.HumidityPct != nil {
		r.HumidityPct = *w.HumidityPct
	}
	if w.DangerLevel != nil {
		level := *w.DangerLevel
		r.DangerLevel = &level
	}
	if w.RainLevel != nil {
		r.RainLevel = *w.RainLevel
	}
	return r, nil
}

func parseFallback(body []byte, receivedAt time.Time) (store.Reading, error) {
	parts := strings.Split(strings.TrimSpace(string(body)), ",")
	if len(parts) != 4 {
		return store.Reading{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}

	water, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return store.Reading{}, fmt.Errorf("bad water field: %w", err)
	}
	rain, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return store.Reading{}, fmt.Errorf("bad rain field: %w", err)
	}
	danger, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return store.Reading{}, fmt.Errorf("bad danger field: %w", err)
	}
	humidity, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return store.Reading{}, fmt.Errorf("bad humidity field: %w", err)
	}

	return store.Reading{
		Timestamp:    receivedAt.UnixMilli(),
		WaterLevelCM: water,
		TemperatureC: -1,
		HumidityPct:  humidity,
		DangerLevel:  &danger,
		RainLevel:    rain,
	}, nil
}
