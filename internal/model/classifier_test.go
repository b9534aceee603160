package model_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/model"
	"procodus.dev/river-monitor/internal/pipeline"
)

// plainClassifier only supports point predictions.
type plainClassifier struct {
	label pipeline.Label
	err   error
}

func (c *plainClassifier) Predict(pipeline.FeatureVector) (pipeline.Label, error) {
	return c.label, c.err
}

// probaClassifier additionally exposes a class distribution.
type probaClassifier struct {
	plainClassifier
	dist map[pipeline.Label]float64
}

func (c *probaClassifier) PredictProba(pipeline.FeatureVector) (map[pipeline.Label]float64, error) {
	return c.dist, c.err
}

var _ = Describe("Adapter", func() {
	Context("wrapping a plain classifier", func() {
		It("should report no probability support", func() {
			a := model.NewAdapter(&plainClassifier{label: pipeline.LabelAman})
			Expect(a.Probabilistic()).To(BeFalse())
		})

		It("should predict with a nil confidence", func() {
			a := model.NewAdapter(&plainClassifier{label: pipeline.LabelBahaya})

			pred, err := a.Predict(pipeline.FeatureVector{})
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Label).To(Equal(pipeline.LabelBahaya))
			Expect(pred.Confidence).To(BeNil())
		})

		It("should propagate prediction failures", func() {
			a := model.NewAdapter(&plainClassifier{err: errors.New("boom")})
			_, err := a.Predict(pipeline.FeatureVector{})
			Expect(err).To(HaveOccurred())
		})
	})

	Context("wrapping a probabilistic classifier", func() {
		It("should report probability support", func() {
			a := model.NewAdapter(&probaClassifier{dist: map[pipeline.Label]float64{pipeline.LabelAman: 1}})
			Expect(a.Probabilistic()).To(BeTrue())
		})

		It("should return the maximum class probability as the confidence", func() {
			a := model.NewAdapter(&probaClassifier{dist: map[pipeline.Label]float64{
				pipeline.LabelAman:    0.1,
				pipeline.LabelWaspada: 0.3,
				pipeline.LabelBahaya:  0.6,
			}})

			pred, err := a.Predict(pipeline.FeatureVector{})
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Label).To(Equal(pipeline.LabelBahaya))
			Expect(pred.Confidence).NotTo(BeNil())
			Expect(*pred.Confidence).To(Equal(0.6))
		})

		It("should break ties in danger_level order", func() {
			a := model.NewAdapter(&probaClassifier{dist: map[pipeline.Label]float64{
				pipeline.LabelAman:   0.5,
				pipeline.LabelBahaya: 0.5,
			}})

			pred, err := a.Predict(pipeline.FeatureVector{})
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Label).To(Equal(pipeline.LabelAman))
		})
	})
})
