package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/model"
	"procodus.dev/river-monitor/internal/pipeline"
)

// separable returns a small training set where danger is decided by the
// normalized water level alone.
func separable() ([]pipeline.FeatureVector, []pipeline.Label) {
	var features []pipeline.FeatureVector
	var labels []pipeline.Label
	for i := range 10 {
		features = append(features, pipeline.FeatureVector{
			WaterLevelNorm: 0.4 + float64(i)*0.01,
			HumidityPct:    60,
		})
		labels = append(labels, pipeline.LabelAman)
	}
	for i := range 10 {
		features = append(features, pipeline.FeatureVector{
			WaterLevelNorm: 1.7 + float64(i)*0.01,
			WaterRiseRate:  3,
			Rain:           1,
			HumidityPct:    85,
		})
		labels = append(labels, pipeline.LabelBahaya)
	}
	return features, labels
}

var _ = Describe("FitTree", func() {
	It("should reject empty training data", func() {
		_, err := model.FitTree(nil, nil, model.DefaultTreeParams())
		Expect(err).To(HaveOccurred())
	})

	It("should reject mismatched samples and labels", func() {
		features, labels := separable()
		_, err := model.FitTree(features, labels[:len(labels)-1], model.DefaultTreeParams())
		Expect(err).To(HaveOccurred())
	})

	It("should separate the classes on separable data", func() {
		features, labels := separable()
		tree, err := model.FitTree(features, labels, model.DefaultTreeParams())
		Expect(err).NotTo(HaveOccurred())

		for i, f := range features {
			label, err := tree.Predict(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(label).To(Equal(labels[i]))
		}
	})

	It("should produce the same tree on reruns", func() {
		features, labels := separable()
		t1, err := model.FitTree(features, labels, model.DefaultTreeParams())
		Expect(err).NotTo(HaveOccurred())
		t2, err := model.FitTree(features, labels, model.DefaultTreeParams())
		Expect(err).NotTo(HaveOccurred())
		Expect(t2).To(Equal(t1))
	})

	It("should collapse to a single leaf when depth is exhausted", func() {
		features, labels := separable()
		tree, err := model.FitTree(features, labels, model.TreeParams{MaxDepth: 1, MinSamplesSplit: 2})
		Expect(err).NotTo(HaveOccurred())

		// One split is still allowed at depth 0; both children are leaves.
		Expect(tree.Root).NotTo(BeNil())
		if tree.Root.Feature != -1 {
			Expect(tree.Root.Left.Feature).To(Equal(-1))
			Expect(tree.Root.Right.Feature).To(Equal(-1))
		}
	})

	It("should expose leaf class distributions that sum to one", func() {
		features, labels := separable()
		// Make one danger row indistinguishable from the safe ones so a
		// leaf is impure.
		features[len(features)-1] = pipeline.FeatureVector{WaterLevelNorm: 0.41, HumidityPct: 60}

		tree, err := model.FitTree(features, labels, model.TreeParams{MaxDepth: 1, MinSamplesSplit: 2})
		Expect(err).NotTo(HaveOccurred())

		dist, err := tree.PredictProba(pipeline.FeatureVector{WaterLevelNorm: 0.42, HumidityPct: 60})
		Expect(err).NotTo(HaveOccurred())

		sum := 0.0
		for _, p := range dist {
			Expect(p).To(BeNumerically(">=", 0))
			sum += p
		}
		Expect(sum).To(BeNumerically("~", 1.0, 1e-9))
	})
})

var _ = Describe("DecisionTree", func() {
	It("should error on an empty tree", func() {
		var tree model.DecisionTree
		_, err := tree.Predict(pipeline.FeatureVector{})
		Expect(err).To(HaveOccurred())
	})
})
