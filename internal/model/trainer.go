package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"procodus.dev/river-monitor/internal/pipeline"
	"procodus.dev/river-monitor/internal/store"
)

// MinTrainingSamples is the minimum usable history before retraining is
// attempted.
const MinTrainingSamples = 10

// ErrNotEnoughData is returned when the log holds fewer usable rows than
// MinTrainingSamples.
var ErrNotEnoughData = errors.New("not enough data for training")

// TrainConfig holds the offline training parameters.
type TrainConfig struct {
	Logger              *slog.Logger
	StandardWaterHeight float64
	TestFraction        float64
	Seed                int64
	Params              TreeParams
}

// DefaultTrainConfig returns the standard training setup: 80/20 split,
// fixed seed so reruns over the same log produce the same artifact.
func DefaultTrainConfig(logger *slog.Logger) TrainConfig {
	return TrainConfig{
		Logger:              logger,
		StandardWaterHeight: 50.0,
		TestFraction:        0.2,
		Seed:                42,
		Params:              DefaultTreeParams(),
	}
}

// TrainReport summarizes one training run.
type TrainReport struct {
	Samples   int
	TrainSize int
	TestSize  int
	Accuracy  float64
}

// Train fits a decision tree on a snapshot of the reading log and returns
// the artifact ready to be saved. Training is a batch job outside the
// live decision path; the artifact replaces the live model only when the
// holder picks it up.
func Train(history []store.Reading, cfg TrainConfig) (*Artifact, *TrainReport, error) {
	if cfg.Logger == nil {
		return nil, nil, errors.New("logger cannot be nil")
	}
	if cfg.StandardWaterHeight <= 0 {
		return nil, nil, fmt.Errorf("standard water height must be > 0, got %v", cfg.StandardWaterHeight)
	}

	features, labels := buildTrainingSet(history, cfg.StandardWaterHeight)
	if len(features) < MinTrainingSamples {
		return nil, nil, fmt.Errorf("%w: %d usable rows, need %d", ErrNotEnoughData, len(features), MinTrainingSamples)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	perm := rng.Perm(len(features))

	nTest := int(float64(len(features)) * cfg.TestFraction)
	if nTest < 1 {
		nTest = 1
	}

	trainX := make([]pipeline.FeatureVector, 0, len(features)-nTest)
	trainY := make([]pipeline.Label, 0, len(features)-nTest)
	testX := make([]pipeline.FeatureVector, 0, nTest)
	testY := make([]pipeline.Label, 0, nTest)
	for i, idx := range perm {
		if i < nTest {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		} else {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		}
	}

	tree, err := FitTree(trainX, trainY, cfg.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fit tree: %w", err)
	}

	accuracy, err := evaluate(tree, testX, testY)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to evaluate tree: %w", err)
	}

	report := &TrainReport{
		Samples:   len(features),
		TrainSize: len(trainX),
		TestSize:  len(testX),
		Accuracy:  accuracy,
	}

	cfg.Logger.Info("model retrained",
		"samples", report.Samples,
		"train_size", report.TrainSize,
		"test_size", report.TestSize,
		"accuracy", report.Accuracy,
	)

	artifact := &Artifact{
		Version:             ArtifactVersion,
		TrainedAt:           time.Now().UTC(),
		StandardWaterHeight: cfg.StandardWaterHeight,
		Samples:             report.Samples,
		Accuracy:            report.Accuracy,
		Tree:                tree,
	}
	return artifact, report, nil
}

// buildTrainingSet derives per-row features from a timestamp-sorted
// history. Unlike the live path, training drops rows with any absent
// field instead of filling them, and drops rows without a usable
// ground-truth label. The rise rate differences consecutive kept rows,
// 0 for the first.
func buildTrainingSet(history []store.Reading, standardWaterHeight float64) ([]pipeline.FeatureVector, []pipeline.Label) {
	var features []pipeline.FeatureVector
	var labels []pipeline.Label

	prevLevel := store.Absent()
	for _, r := range history {
		if store.IsAbsent(r.WaterLevelCM) || store.IsAbsent(r.TemperatureC) || store.IsAbsent(r.HumidityPct) {
			continue
		}
		if r.WaterLevelCM < pipeline.MinWaterLevelCM || r.WaterLevelCM > pipeline.MaxWaterLevelCM {
			continue
		}
		if r.TemperatureC < pipeline.MinTemperatureC || r.TemperatureC > pipeline.MaxTemperatureC {
			continue
		}
		if r.HumidityPct < pipeline.MinHumidityPct || r.HumidityPct > pipeline.MaxHumidityPct {
			continue
		}
		if r.DangerLevel == nil {
			continue
		}
		label, ok := pipeline.LabelForDangerLevel(*r.DangerLevel)
		if !ok {
			continue
		}

		rise := 0.0
		if !store.IsAbsent(prevLevel) {
			rise = r.WaterLevelCM - prevLevel
		}
		prevLevel = r.WaterLevelCM

		rain := 0
		if r.RainLevel > 0 {
			rain = 1
		}

		features = append(features, pipeline.FeatureVector{
			WaterLevelNorm: r.WaterLevelCM / standardWaterHeight,
			WaterRiseRate:  rise,
			Rain:           rain,
			HumidityPct:    r.HumidityPct,
		})
		labels = append(labels, label)
	}

	return features, labels
}

// evaluate computes hold-out accuracy as the mean of per-sample hits.
func evaluate(tree *DecisionTree, testX []pipeline.FeatureVector, testY []pipeline.Label) (float64, error) {
	if len(testX) == 0 {
		return 0, nil
	}

	hits := make([]float64, len(testX))
	for i, f := range testX {
		pred, err := tree.Predict(f)
		if err != nil {
			return 0, err
		}
		if pred == testY[i] {
			hits[i] = 1
		}
	}
	return stat.Mean(hits, nil), nil
}
