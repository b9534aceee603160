package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/river-monitor/internal/ingest"
	"procodus.dev/river-monitor/internal/store"
	"procodus.dev/river-monitor/pkg/metrics"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingestion service",
	Long: `Run the ingestion service that:
- Consumes river telemetry from RabbitMQ
- Appends readings to the canonical CSV log
- Optionally mirrors readings to PostgreSQL
- Serves Prometheus metrics`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	// Ingest-specific flags
	ingestCmd.Flags().String("log-path", "data/sensor_log.csv", "Path of the CSV reading log")
	ingestCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	ingestCmd.Flags().String("queue-name", "river-readings", "RabbitMQ queue name for river telemetry")
	ingestCmd.Flags().Int("metrics-port", 9091, "Prometheus metrics port")
	ingestCmd.Flags().Bool("archive-enabled", false, "Mirror readings to PostgreSQL")
	ingestCmd.Flags().String("db-host", "localhost", "PostgreSQL host")
	ingestCmd.Flags().Int("db-port", 5432, "PostgreSQL port")
	ingestCmd.Flags().String("db-user", "postgres", "PostgreSQL user")
	ingestCmd.Flags().String("db-password", "", "PostgreSQL password")
	ingestCmd.Flags().String("db-name", "river", "PostgreSQL database name")
	ingestCmd.Flags().String("db-sslmode", "disable", "PostgreSQL SSL mode")

	// Bind flags to viper
	_ = viper.BindPFlag("ingest.log_path", ingestCmd.Flags().Lookup("log-path"))
	_ = viper.BindPFlag("ingest.rabbitmq.url", ingestCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("ingest.rabbitmq.queue_name", ingestCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("ingest.metrics.port", ingestCmd.Flags().Lookup("metrics-port"))
	_ = viper.BindPFlag("ingest.archive.enabled", ingestCmd.Flags().Lookup("archive-enabled"))
	_ = viper.BindPFlag("ingest.db.host", ingestCmd.Flags().Lookup("db-host"))
	_ = viper.BindPFlag("ingest.db.port", ingestCmd.Flags().Lookup("db-port"))
	_ = viper.BindPFlag("ingest.db.user", ingestCmd.Flags().Lookup("db-user"))
	_ = viper.BindPFlag("ingest.db.password", ingestCmd.Flags().Lookup("db-password"))
	_ = viper.BindPFlag("ingest.db.name", ingestCmd.Flags().Lookup("db-name"))
	_ = viper.BindPFlag("ingest.db.sslmode", ingestCmd.Flags().Lookup("db-sslmode"))
}

func runIngest(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting ingest service")

	readingLog, err := store.Open(viper.GetString("ingest.log_path"), logger)
	if err != nil {
		logger.Error("failed to open reading log", "error", err)
		return err
	}

	var archive *store.Archive
	if viper.GetBool("ingest.archive.enabled") {
		archive, err = store.OpenArchive(&store.ArchiveConfig{
			Logger:   logger,
			Host:     viper.GetString("ingest.db.host"),
			Port:     viper.GetInt("ingest.db.port"),
			User:     viper.GetString("ingest.db.user"),
			Password: viper.GetString("ingest.db.password"),
			DBName:   viper.GetString("ingest.db.name"),
			SSLMode:  viper.GetString("ingest.db.sslmode"),
		})
		if err != nil {
			logger.Error("failed to open archive", "error", err)
			return err
		}
		defer func() {
			if err := archive.Close(); err != nil {
				logger.Error("failed to close archive", "error", err)
			}
		}()
	}

	consumer, err := ingest.NewConsumer(&ingest.ConsumerConfig{
		Logger:      logger,
		Log:         readingLog,
		Archive:     archive,
		RabbitMQURL: viper.GetString("ingest.rabbitmq.url"),
		QueueName:   viper.GetString("ingest.rabbitmq.queue_name"),
		MQMetrics:   metrics.NewMQMetrics("river_monitor"),
	})
	if err != nil {
		logger.Error("failed to create consumer", "error", err)
		return err
	}
	consumer.SetMetrics(metrics.NewIngestMetrics("river_monitor"))

	logger.Info("ingest service configuration",
		"log_path", viper.GetString("ingest.log_path"),
		"rabbitmq_url", viper.GetString("ingest.rabbitmq.url"),
		"queue_name", viper.GetString("ingest.rabbitmq.queue_name"),
		"archive_enabled", archive != nil,
		"metrics_port", viper.GetInt("ingest.metrics.port"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("ingest.metrics.port")),
		Handler:           metricsMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	if err := consumer.Start(ctx); err != nil {
		logger.Error("failed to start consumer", "error", err)
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("received shutdown signal", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown metrics server", "error", err)
	}

	if err := consumer.Stop(); err != nil {
		logger.Error("failed to stop consumer", "error", err)
		return err
	}

	logger.Info("ingest service stopped")
	return nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}
