// Package simulate publishes synthetic river telemetry to the readings
// queue, standing in for the field stations during development.
package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"procodus.dev/river-monitor/pkg/generator"
	"procodus.dev/river-monitor/pkg/mq"
)

// Simulator publishes one synthetic reading per interval.
type Simulator struct {
	logger   *slog.Logger
	mqClient mq.ClientInterface
	gen      *generator.RiverGenerator
	interval time.Duration
}

// Config holds the configuration for the Simulator.
type Config struct {
	Logger              *slog.Logger
	Interval            time.Duration
	StandardWaterHeight float64
}

// New creates a simulator publishing through the given MQ client.
func New(cfg *Config, mqClient mq.ClientInterface) (*Simulator, error) {
	if cfg == nil {
		return nil, errors.New("simulator config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if mqClient == nil {
		return nil, errors.New("mq client cannot be nil")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if cfg.StandardWaterHeight <= 0 {
		return nil, errors.New("standard water height must be positive")
	}

	gen := generator.NewRiverGenerator(cfg.StandardWaterHeight)
	cfg.Logger.Info("simulating station", "station", gen.Station())

	return &Simulator{
		logger:   cfg.Logger,
		mqClient: mqClient,
		gen:      gen,
		interval: cfg.Interval,
	}, nil
}

// Run publishes readings until the context is canceled.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("simulator stopping")
			return ctx.Err()
		case t := <-ticker.C:
			if err := s.publish(ctx, t); err != nil {
				// Telemetry is lossy by nature; log and keep going.
				s.logger.Error("failed to publish reading", "error", err)
			}
		}
	}
}

// Publish generates and publishes a single reading at time t.
func (s *Simulator) publish(ctx context.Context, t time.Time) error {
	reading := s.gen.Next(t)

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	pushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.mqClient.Push(pushCtx, payload); err != nil {
		return fmt.Errorf("failed to push reading: %w", err)
	}

	s.logger.Debug("published reading",
		"water_level_cm", reading.WaterLevelCM,
		"rain_level", reading.RainLevel,
		"danger_level", reading.DangerLevel,
	)
	return nil
}
