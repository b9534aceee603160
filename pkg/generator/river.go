// Package generator produces synthetic river telemetry for local
// development and load testing.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// RiverReading is one synthetic sample in ingestion-contract form.
type RiverReading struct {
	Timestamp    int64   `json:"timestamp"`
	WaterLevelCM float64 `json:"water_level_cm"`
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
	DangerLevel  int     `json:"danger_level"`
	RainLevel    int     `json:"rain_level"`
}

// RiverGenerator simulates a gauging station: rain episodes drive
// water-level rises, dry spells decay the level back toward its base,
// temperature follows a daily cycle. Danger labels are derived from the
// level so the stream is usable as training data.
// Note: uses math/rand; weak randomness is fine for simulation data.
type RiverGenerator struct {
	station          string
	standardHeight   float64
	baseLevel        float64
	level            float64
	baselineTemp     float64
	baselineHumidity float64

	rainRemaining int
	rainLevel     int

	rng *rand.Rand
}

// NewRiverGenerator creates a generator whose quiet level sits safely
// below the given standard water height.
func NewRiverGenerator(standardHeight float64) *RiverGenerator {
	base := standardHeight * gofakeit.Float64Range(0.4, 0.7)
	return &RiverGenerator{
		station:          gofakeit.City(),
		standardHeight:   standardHeight,
		baseLevel:        base,
		level:            base,
		baselineTemp:     gofakeit.Float64Range(20, 30),
		baselineHumidity: gofakeit.Float64Range(50, 70),
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404
	}
}

// Station returns the fake station name, for logging.
func (g *RiverGenerator) Station() string { return g.station }

// Next advances the simulation one sampling interval and returns the
// sample at time t.
func (g *RiverGenerator) Next(t time.Time) RiverReading {
	g.stepRain()
	g.stepLevel()

	reading := RiverReading{
		Timestamp:    t.UnixMilli(),
		WaterLevelCM: round1(g.level),
		TemperatureC: round1(g.temperature(t)),
		HumidityPct:  round1(g.humidity()),
		DangerLevel:  g.dangerLevel(),
		RainLevel:    g.rainLevel,
	}
	return reading
}

func (g *RiverGenerator) stepRain() {
	if g.rainRemaining > 0 {
		g.rainRemaining--
		if g.rainRemaining == 0 {
			g.rainLevel = 0
		}
		return
	}
	// Start a new episode occasionally.
	if g.rng.Float64() < 0.08 {
		g.rainRemaining = 5 + g.rng.Intn(16)
		g.rainLevel = 1 + g.rng.Intn(3)
	}
}

func (g *RiverGenerator) stepLevel() {
	noise := (g.rng.Float64() - 0.5) * 0.6
	if g.rainLevel > 0 {
		g.level += float64(g.rainLevel)*1.5 + noise
	} else {
		// Decay back toward the base level between episodes.
		g.level += (g.baseLevel-g.level)*0.1 + noise
	}

	if g.level < 0 {
		g.level = 0
	}
	if g.level > 1000 {
		g.level = 1000
	}
}

// temperature follows a daily cycle peaking mid-afternoon.
func (g *RiverGenerator) temperature(t time.Time) float64 {
	hour := float64(t.Hour())
	dailyCycle := 5 * math.Sin((hour-6)*math.Pi/12)
	return g.baselineTemp + dailyCycle + (g.rng.Float64()-0.5)
}

func (g *RiverGenerator) humidity() float64 {
	h := g.baselineHumidity + (g.rng.Float64()-0.5)*4
	if g.rainLevel > 0 {
		h += 15
	}
	if h > 100 {
		h = 100
	}
	if h < 0 {
		h = 0
	}
	return h
}

// dangerLevel labels the sample from the level alone, mirroring how
// operators classify the gauge.
func (g *RiverGenerator) dangerLevel() int {
	switch {
	case g.level < g.standardHeight*1.2:
		return 0
	case g.level < g.standardHeight*1.6:
		return 1
	default:
		return 2
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
