package model_test

import (
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/model"
	"procodus.dev/river-monitor/internal/store"
)

// labeledHistory builds a log with clearly separable safe and dangerous
// stretches, every row carrying a ground-truth danger level.
func labeledHistory(n int) []store.Reading {
	history := make([]store.Reading, 0, n)
	for i := range n {
		level := 25.0 + float64(i%5)
		rain := 0
		danger := 0
		if i >= n/2 {
			level = 90.0 + float64(i%5)
			rain = 2
			danger = 2
		}
		history = append(history, store.Reading{
			Timestamp:    int64(i+1) * 1000,
			WaterLevelCM: level,
			TemperatureC: 26,
			HumidityPct:  65,
			DangerLevel:  &danger,
			RainLevel:    rain,
		})
	}
	return history
}

var _ = Describe("Train", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	})

	It("should require a logger", func() {
		_, _, err := model.Train(labeledHistory(40), model.TrainConfig{StandardWaterHeight: 50})
		Expect(err).To(HaveOccurred())
	})

	It("should refuse to train below the sample minimum", func() {
		_, _, err := model.Train(labeledHistory(model.MinTrainingSamples-1), model.DefaultTrainConfig(logger))
		Expect(err).To(MatchError(model.ErrNotEnoughData))
	})

	It("should skip unlabeled and invalid rows when counting samples", func() {
		history := labeledHistory(model.MinTrainingSamples)
		history[0].DangerLevel = nil
		history[1].WaterLevelCM = 2000 // out of sensor range

		_, _, err := model.Train(history, model.DefaultTrainConfig(logger))
		Expect(err).To(MatchError(model.ErrNotEnoughData))
	})

	It("should fit an accurate model on separable data", func() {
		artifact, report, err := model.Train(labeledHistory(60), model.DefaultTrainConfig(logger))
		Expect(err).NotTo(HaveOccurred())

		Expect(report.Samples).To(Equal(60))
		Expect(report.TrainSize + report.TestSize).To(Equal(60))
		Expect(report.TestSize).To(Equal(12))
		Expect(report.Accuracy).To(BeNumerically(">", 0.9))

		Expect(artifact.Version).To(Equal(model.ArtifactVersion))
		Expect(artifact.StandardWaterHeight).To(Equal(50.0))
		Expect(artifact.Tree).NotTo(BeNil())
	})

	It("should produce the same split and tree on reruns", func() {
		history := labeledHistory(60)
		a1, r1, err := model.Train(history, model.DefaultTrainConfig(logger))
		Expect(err).NotTo(HaveOccurred())
		a2, r2, err := model.Train(history, model.DefaultTrainConfig(logger))
		Expect(err).NotTo(HaveOccurred())

		Expect(r2.Accuracy).To(Equal(r1.Accuracy))
		Expect(a2.Tree).To(Equal(a1.Tree))
	})
})
