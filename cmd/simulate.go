package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/river-monitor/internal/simulate"
	"procodus.dev/river-monitor/pkg/metrics"
	"procodus.dev/river-monitor/pkg/mq"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the telemetry simulator",
	Long: `Run the telemetry simulator that:
- Generates synthetic river gauge readings
- Publishes them to RabbitMQ in the ingestion wire format`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	// Simulate-specific flags
	simulateCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	simulateCmd.Flags().String("queue-name", "river-readings", "RabbitMQ queue name for river telemetry")
	simulateCmd.Flags().Duration("interval", 5*time.Second, "Interval between readings")
	simulateCmd.Flags().Float64("standard-water-height", 50.0, "Reference height the simulated river sits below (cm)")

	// Bind flags to viper
	_ = viper.BindPFlag("simulate.rabbitmq.url", simulateCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("simulate.rabbitmq.queue_name", simulateCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("simulate.interval", simulateCmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("simulate.standard_water_height", simulateCmd.Flags().Lookup("standard-water-height"))
}

func runSimulate(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting simulator")

	mqClient := mq.New(
		viper.GetString("simulate.rabbitmq.queue_name"),
		viper.GetString("simulate.rabbitmq.url"),
		logger,
	)
	mqClient.SetMetrics(metrics.NewMQMetrics("river_monitor"))
	defer func() {
		if err := mqClient.Close(); err != nil {
			logger.Error("failed to close mq client", "error", err)
		}
	}()

	sim, err := simulate.New(&simulate.Config{
		Logger:              logger,
		Interval:            viper.GetDuration("simulate.interval"),
		StandardWaterHeight: viper.GetFloat64("simulate.standard_water_height"),
	}, mqClient)
	if err != nil {
		logger.Error("failed to create simulator", "error", err)
		return err
	}

	logger.Info("simulator configuration",
		"rabbitmq_url", viper.GetString("simulate.rabbitmq.url"),
		"queue_name", viper.GetString("simulate.rabbitmq.queue_name"),
		"interval", viper.GetDuration("simulate.interval"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("simulator error", "error", err)
		return err
	}

	logger.Info("simulator stopped")
	return nil
}
