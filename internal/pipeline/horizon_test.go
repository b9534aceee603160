package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/pipeline"
)

var _ = Describe("EstimateHorizon", func() {
	It("should extrapolate minutes to the threshold at the current rate", func() {
		minutes, ok := pipeline.EstimateHorizon(20, 2, 35)
		Expect(ok).To(BeTrue())
		Expect(minutes).To(Equal(450.0))
	})

	It("should yield no estimate on a flat trend", func() {
		_, ok := pipeline.EstimateHorizon(20, 0, 35)
		Expect(ok).To(BeFalse())
	})

	It("should yield no estimate on a falling trend", func() {
		_, ok := pipeline.EstimateHorizon(20, -1.5, 35)
		Expect(ok).To(BeFalse())
	})

	It("should yield no estimate at or past the threshold", func() {
		_, ok := pipeline.EstimateHorizon(35, 2, 35)
		Expect(ok).To(BeFalse())
		_, ok = pipeline.EstimateHorizon(40, 2, 35)
		Expect(ok).To(BeFalse())
	})
})
