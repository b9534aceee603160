package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/river-monitor/internal/dashboard"
	"procodus.dev/river-monitor/internal/model"
	"procodus.dev/river-monitor/internal/pipeline"
	"procodus.dev/river-monitor/internal/store"
	"procodus.dev/river-monitor/pkg/logger"
	"procodus.dev/river-monitor/pkg/metrics"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the dashboard server",
	Long: `Run the dashboard server that:
- Reads the reading log and evaluates the decision pipeline per request
- Blends classifier predictions with operator overrides
- Renders the verdict, the override form, and history charts
- Writes an audit entry for every emitted verdict`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	// Dashboard-specific flags
	dashboardCmd.Flags().Int("http-port", 8080, "HTTP server port")
	dashboardCmd.Flags().String("log-path", "data/sensor_log.csv", "Path of the CSV reading log")
	dashboardCmd.Flags().String("model-path", "data/model.json", "Path of the classifier artifact")
	dashboardCmd.Flags().String("audit-path", "", "Path of the verdict audit log (stderr when empty)")
	dashboardCmd.Flags().Float64("standard-water-height", 50.0, "Reference height used to normalize water levels (cm)")
	dashboardCmd.Flags().Float64("hazard-level", 100.0, "Water level treated as the flood threshold (cm)")

	// Bind flags to viper
	_ = viper.BindPFlag("dashboard.http.port", dashboardCmd.Flags().Lookup("http-port"))
	_ = viper.BindPFlag("dashboard.log_path", dashboardCmd.Flags().Lookup("log-path"))
	_ = viper.BindPFlag("dashboard.model_path", dashboardCmd.Flags().Lookup("model-path"))
	_ = viper.BindPFlag("dashboard.audit_path", dashboardCmd.Flags().Lookup("audit-path"))
	_ = viper.BindPFlag("dashboard.standard_water_height", dashboardCmd.Flags().Lookup("standard-water-height"))
	_ = viper.BindPFlag("dashboard.hazard_level", dashboardCmd.Flags().Lookup("hazard-level"))
}

func runDashboard(_ *cobra.Command, _ []string) error {
	log := GetLogger()
	log.Info("starting dashboard service")

	readingLog, err := store.Open(viper.GetString("dashboard.log_path"), log)
	if err != nil {
		log.Error("failed to open reading log", "error", err)
		return err
	}

	audit, closeAudit, err := auditLogger(viper.GetString("dashboard.audit_path"))
	if err != nil {
		log.Error("failed to open audit log", "error", err)
		return err
	}
	defer closeAudit()

	holder := model.NewHolder(viper.GetString("dashboard.model_path"), log)

	pipelineMetrics := metrics.NewPipelineMetrics("river_monitor")
	holder.OnReload(pipelineMetrics.ModelReloads.Inc)

	config := &dashboard.ServerConfig{
		Logger:   log,
		Audit:    audit,
		HTTPPort: viper.GetInt("dashboard.http.port"),
		Log:      readingLog,
		Models:   holder,
		Pipeline: pipeline.Config{
			StandardWaterHeight: viper.GetFloat64("dashboard.standard_water_height"),
			HazardLevelCM:       viper.GetFloat64("dashboard.hazard_level"),
		},
	}

	server, err := dashboard.NewServer(config)
	if err != nil {
		log.Error("failed to create dashboard server", "error", err)
		return err
	}
	server.SetMetrics(pipelineMetrics)

	log.Info("dashboard server configuration",
		"http_port", config.HTTPPort,
		"log_path", viper.GetString("dashboard.log_path"),
		"model_path", viper.GetString("dashboard.model_path"),
		"standard_water_height", config.Pipeline.StandardWaterHeight,
		"hazard_level", config.Pipeline.HazardLevelCM,
	)

	if err := server.Run(context.Background()); err != nil {
		log.Error("dashboard server error", "error", err)
		return err
	}

	log.Info("dashboard server stopped")
	return nil
}

// auditLogger builds the verdict audit logger. With an empty path the
// audit trail goes to stderr so it stays separate from the service log
// on stdout.
func auditLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		cfg := logger.DefaultConfig()
		cfg.Output = os.Stderr
		return logger.New(cfg), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	cfg := logger.DefaultConfig()
	cfg.Output = f
	return logger.New(cfg), func() { _ = f.Close() }, nil
}
