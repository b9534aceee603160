package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/pipeline"
)

func confidence(v float64) *float64 { return &v }

var _ = Describe("Decide", func() {
	Context("forced temperature alarm", func() {
		It("should force Bahaya above the threshold", func() {
			v, err := pipeline.Decide(70.5, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Label).To(Equal(pipeline.LabelBahaya))
			Expect(v.Reason).To(Equal(pipeline.ReasonForcedTemperature))
			Expect(v.Confidence).To(BeNil())
		})

		It("should win over a manual override", func() {
			manual := pipeline.LabelAman
			v, err := pipeline.Decide(75, nil, &manual)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Reason).To(Equal(pipeline.ReasonForcedTemperature))
			Expect(v.Label).To(Equal(pipeline.LabelBahaya))
		})

		It("should win over a confident model prediction", func() {
			pred := &pipeline.Prediction{Label: pipeline.LabelAman, Confidence: confidence(0.99)}
			v, err := pipeline.Decide(80, pred, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Reason).To(Equal(pipeline.ReasonForcedTemperature))
		})

		It("should not trigger at exactly the threshold", func() {
			manual := pipeline.LabelAman
			v, err := pipeline.Decide(pipeline.ForcedTemperatureC, nil, &manual)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Reason).To(Equal(pipeline.ReasonManualOverride))
		})
	})

	Context("manual override", func() {
		It("should return the operator label without confidence", func() {
			manual := pipeline.LabelWaspada
			v, err := pipeline.Decide(25, nil, &manual)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Label).To(Equal(pipeline.LabelWaspada))
			Expect(v.Reason).To(Equal(pipeline.ReasonManualOverride))
			Expect(v.Confidence).To(BeNil())
		})

		It("should win over the model", func() {
			manual := pipeline.LabelAman
			pred := &pipeline.Prediction{Label: pipeline.LabelBahaya, Confidence: confidence(0.95)}
			v, err := pipeline.Decide(25, pred, &manual)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Label).To(Equal(pipeline.LabelAman))
			Expect(v.Reason).To(Equal(pipeline.ReasonManualOverride))
		})
	})

	Context("high-confidence danger gate", func() {
		It("should escalate a danger call above the gate", func() {
			pred := &pipeline.Prediction{Label: pipeline.LabelBahaya, Confidence: confidence(0.81)}
			v, err := pipeline.Decide(25, pred, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Reason).To(Equal(pipeline.ReasonHighConfidenceDanger))
			Expect(*v.Confidence).To(Equal(0.81))
		})

		It("should not escalate at exactly the gate", func() {
			pred := &pipeline.Prediction{Label: pipeline.LabelBahaya, Confidence: confidence(pipeline.DangerConfidenceGate)}
			v, err := pipeline.Decide(25, pred, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Reason).To(Equal(pipeline.ReasonModelNormal))
			Expect(v.Label).To(Equal(pipeline.LabelBahaya))
		})

		It("should not escalate below the gate", func() {
			pred := &pipeline.Prediction{Label: pipeline.LabelBahaya, Confidence: confidence(0.79)}
			v, err := pipeline.Decide(25, pred, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Reason).To(Equal(pipeline.ReasonModelNormal))
		})

		It("should escalate a danger call without confidence", func() {
			pred := &pipeline.Prediction{Label: pipeline.LabelBahaya}
			v, err := pipeline.Decide(25, pred, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Reason).To(Equal(pipeline.ReasonHighConfidenceDanger))
			Expect(v.Confidence).To(BeNil())
		})

		It("should never escalate a non-danger label", func() {
			pred := &pipeline.Prediction{Label: pipeline.LabelWaspada, Confidence: confidence(0.99)}
			v, err := pipeline.Decide(25, pred, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Reason).To(Equal(pipeline.ReasonModelNormal))
			Expect(v.Label).To(Equal(pipeline.LabelWaspada))
		})
	})

	Context("without a model", func() {
		It("should return the prediction-unavailable error when no rule applies", func() {
			_, err := pipeline.Decide(25, nil, nil)
			Expect(err).To(MatchError(pipeline.ErrPredictionUnavailable))
		})
	})
})

var _ = Describe("Labels", func() {
	It("should parse the three valid labels", func() {
		for _, s := range []string{"Aman", "Waspada", "Bahaya"} {
			label, ok := pipeline.ParseLabel(s)
			Expect(ok).To(BeTrue())
			Expect(string(label)).To(Equal(s))
		}
	})

	It("should reject anything else", func() {
		_, ok := pipeline.ParseLabel("aman")
		Expect(ok).To(BeFalse())
		_, ok = pipeline.ParseLabel("")
		Expect(ok).To(BeFalse())
	})

	It("should map danger levels in order", func() {
		label, ok := pipeline.LabelForDangerLevel(0)
		Expect(ok).To(BeTrue())
		Expect(label).To(Equal(pipeline.LabelAman))

		label, ok = pipeline.LabelForDangerLevel(2)
		Expect(ok).To(BeTrue())
		Expect(label).To(Equal(pipeline.LabelBahaya))

		_, ok = pipeline.LabelForDangerLevel(3)
		Expect(ok).To(BeFalse())
		_, ok = pipeline.LabelForDangerLevel(-1)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Reason", func() {
	It("should flag only the alerting reasons", func() {
		Expect(pipeline.ReasonForcedTemperature.IsAlert()).To(BeTrue())
		Expect(pipeline.ReasonHighConfidenceDanger.IsAlert()).To(BeTrue())
		Expect(pipeline.ReasonManualOverride.IsAlert()).To(BeFalse())
		Expect(pipeline.ReasonModelNormal.IsAlert()).To(BeFalse())
	})
})
