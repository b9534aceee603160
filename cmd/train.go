package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/river-monitor/internal/model"
	"procodus.dev/river-monitor/internal/store"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Retrain the danger classifier",
	Long: `Retrain the danger classifier on the accumulated reading log:
- Reads the CSV log and derives per-row training features
- Fits a decision tree and measures hold-out accuracy
- Writes the artifact atomically so a running dashboard picks it up`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	// Train-specific flags
	trainCmd.Flags().String("log-path", "data/sensor_log.csv", "Path of the CSV reading log")
	trainCmd.Flags().String("model-path", "data/model.json", "Output path of the classifier artifact")
	trainCmd.Flags().Float64("standard-water-height", 50.0, "Reference height used to normalize water levels (cm)")
	trainCmd.Flags().Float64("test-fraction", 0.2, "Fraction of usable rows held out for evaluation")
	trainCmd.Flags().Int64("seed", 42, "Seed of the train/test shuffle")
	trainCmd.Flags().Int("max-depth", 8, "Maximum tree depth")
	trainCmd.Flags().Int("min-samples-split", 2, "Minimum samples required to split a node")

	// Bind flags to viper
	_ = viper.BindPFlag("train.log_path", trainCmd.Flags().Lookup("log-path"))
	_ = viper.BindPFlag("train.model_path", trainCmd.Flags().Lookup("model-path"))
	_ = viper.BindPFlag("train.standard_water_height", trainCmd.Flags().Lookup("standard-water-height"))
	_ = viper.BindPFlag("train.test_fraction", trainCmd.Flags().Lookup("test-fraction"))
	_ = viper.BindPFlag("train.seed", trainCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("train.max_depth", trainCmd.Flags().Lookup("max-depth"))
	_ = viper.BindPFlag("train.min_samples_split", trainCmd.Flags().Lookup("min-samples-split"))
}

func runTrain(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting training run")

	readingLog, err := store.Open(viper.GetString("train.log_path"), logger)
	if err != nil {
		logger.Error("failed to open reading log", "error", err)
		return err
	}

	history, err := readingLog.Snapshot()
	if err != nil {
		logger.Error("failed to read reading log", "error", err)
		return err
	}

	cfg := model.TrainConfig{
		Logger:              logger,
		StandardWaterHeight: viper.GetFloat64("train.standard_water_height"),
		TestFraction:        viper.GetFloat64("train.test_fraction"),
		Seed:                viper.GetInt64("train.seed"),
		Params: model.TreeParams{
			MaxDepth:        viper.GetInt("train.max_depth"),
			MinSamplesSplit: viper.GetInt("train.min_samples_split"),
		},
	}

	artifact, report, err := model.Train(history, cfg)
	if err != nil {
		if errors.Is(err, model.ErrNotEnoughData) {
			logger.Warn("skipping training", "error", err)
			return nil
		}
		logger.Error("training failed", "error", err)
		return err
	}

	modelPath := viper.GetString("train.model_path")
	if err := model.SaveArtifact(modelPath, artifact); err != nil {
		logger.Error("failed to save artifact", "error", err)
		return err
	}

	logger.Info("training run completed",
		"model_path", modelPath,
		"samples", report.Samples,
		"accuracy", report.Accuracy,
	)
	return nil
}
