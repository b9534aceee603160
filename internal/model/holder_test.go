package model_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/model"
	"procodus.dev/river-monitor/internal/pipeline"
)

var _ = Describe("Holder", func() {
	var (
		logger *slog.Logger
		dir    string
		path   string
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "model.json")
	})

	It("should report the model as unavailable when no artifact exists", func() {
		holder := model.NewHolder(path, logger)
		_, err := holder.Predict(pipeline.FeatureVector{})
		Expect(err).To(MatchError(pipeline.ErrModelUnavailable))
	})

	It("should load the artifact and serve predictions", func() {
		Expect(model.SaveArtifact(path, fittedArtifact())).To(Succeed())

		holder := model.NewHolder(path, logger)
		pred, err := holder.Predict(pipeline.FeatureVector{WaterLevelNorm: 1.8, WaterRiseRate: 3, Rain: 1, HumidityPct: 85})
		Expect(err).NotTo(HaveOccurred())
		Expect(pred.Label).To(Equal(pipeline.LabelBahaya))
		Expect(pred.Confidence).NotTo(BeNil())
	})

	It("should pick up a replaced artifact without recreation", func() {
		features, labels := separable()

		// First artifact: everything is safe.
		safe := fittedArtifact()
		allSafe := make([]pipeline.Label, len(labels))
		for i := range allSafe {
			allSafe[i] = pipeline.LabelAman
		}
		tree, err := model.FitTree(features, allSafe, model.DefaultTreeParams())
		Expect(err).NotTo(HaveOccurred())
		safe.Tree = tree
		Expect(model.SaveArtifact(path, safe)).To(Succeed())

		holder := model.NewHolder(path, logger)
		danger := pipeline.FeatureVector{WaterLevelNorm: 1.8, WaterRiseRate: 3, Rain: 1, HumidityPct: 85}

		pred, err := holder.Predict(danger)
		Expect(err).NotTo(HaveOccurred())
		Expect(pred.Label).To(Equal(pipeline.LabelAman))

		// Replace with the real model and move the mtime forward past
		// filesystem timestamp granularity.
		Expect(model.SaveArtifact(path, fittedArtifact())).To(Succeed())
		future := time.Now().Add(2 * time.Second)
		Expect(os.Chtimes(path, future, future)).To(Succeed())

		pred, err = holder.Predict(danger)
		Expect(err).NotTo(HaveOccurred())
		Expect(pred.Label).To(Equal(pipeline.LabelBahaya))
	})

	It("should keep serving the previous model when the new artifact is bad", func() {
		Expect(model.SaveArtifact(path, fittedArtifact())).To(Succeed())

		holder := model.NewHolder(path, logger)
		danger := pipeline.FeatureVector{WaterLevelNorm: 1.8, WaterRiseRate: 3, Rain: 1, HumidityPct: 85}

		_, err := holder.Predict(danger)
		Expect(err).NotTo(HaveOccurred())

		Expect(os.WriteFile(path, []byte("{corrupt"), 0o644)).To(Succeed())
		future := time.Now().Add(2 * time.Second)
		Expect(os.Chtimes(path, future, future)).To(Succeed())

		pred, err := holder.Predict(danger)
		Expect(err).NotTo(HaveOccurred())
		Expect(pred.Label).To(Equal(pipeline.LabelBahaya))
	})

	It("should invoke the reload hook on each successful load", func() {
		Expect(model.SaveArtifact(path, fittedArtifact())).To(Succeed())

		reloads := 0
		holder := model.NewHolder(path, logger)
		holder.OnReload(func() { reloads++ })

		_, err := holder.Predict(pipeline.FeatureVector{})
		Expect(err).NotTo(HaveOccurred())
		_, err = holder.Predict(pipeline.FeatureVector{})
		Expect(err).NotTo(HaveOccurred())

		// Second call hits the cached adapter.
		Expect(reloads).To(Equal(1))
	})
})
