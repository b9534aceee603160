package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/pipeline"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

var _ = Describe("Resolve", func() {
	var sensor pipeline.FeatureVector

	BeforeEach(func() {
		sensor = pipeline.FeatureVector{
			WaterLevelNorm: 0.6,
			WaterRiseRate:  2.0,
			Rain:           0,
			HumidityPct:    60,
		}
	})

	It("should pass the sensor vector through when nothing is overridden", func() {
		eff, temp, direct := pipeline.Resolve(sensor, 25, pipeline.OverrideSet{}, floatPtr(28), 50)
		Expect(eff).To(Equal(sensor))
		Expect(temp).To(Equal(25.0))
		Expect(direct).To(BeNil())
	})

	It("should recompute the norm and the rise rate on a water override", func() {
		ov := pipeline.OverrideSet{WaterLevelCM: floatPtr(40)}
		eff, _, _ := pipeline.Resolve(sensor, 25, ov, floatPtr(28), 50)
		Expect(eff.WaterLevelNorm).To(Equal(0.8))
		Expect(eff.WaterRiseRate).To(Equal(12.0))
	})

	It("should zero the rise rate on a water override without a prior reading", func() {
		ov := pipeline.OverrideSet{WaterLevelCM: floatPtr(40)}
		eff, _, _ := pipeline.Resolve(sensor, 25, ov, nil, 50)
		Expect(eff.WaterRiseRate).To(BeZero())
	})

	It("should treat an explicit zero as a value, not an absence", func() {
		ov := pipeline.OverrideSet{WaterLevelCM: floatPtr(0), Rain: intPtr(0)}
		eff, _, _ := pipeline.Resolve(sensor, 25, ov, floatPtr(28), 50)
		Expect(eff.WaterLevelNorm).To(BeZero())
		Expect(eff.WaterRiseRate).To(Equal(-28.0))
		Expect(eff.Rain).To(Equal(0))
	})

	It("should override the effective temperature independently", func() {
		ov := pipeline.OverrideSet{TemperatureC: floatPtr(72)}
		eff, temp, _ := pipeline.Resolve(sensor, 25, ov, nil, 50)
		Expect(temp).To(Equal(72.0))
		Expect(eff).To(Equal(sensor))
	})

	It("should override humidity and rain without touching the water fields", func() {
		ov := pipeline.OverrideSet{HumidityPct: floatPtr(90), Rain: intPtr(1)}
		eff, _, _ := pipeline.Resolve(sensor, 25, ov, nil, 50)
		Expect(eff.HumidityPct).To(Equal(90.0))
		Expect(eff.Rain).To(Equal(1))
		Expect(eff.WaterLevelNorm).To(Equal(sensor.WaterLevelNorm))
		Expect(eff.WaterRiseRate).To(Equal(sensor.WaterRiseRate))
	})

	It("should surface a direct danger label", func() {
		manual := pipeline.LabelBahaya
		ov := pipeline.OverrideSet{DangerLabel: &manual}
		_, _, direct := pipeline.Resolve(sensor, 25, ov, nil, 50)
		Expect(direct).NotTo(BeNil())
		Expect(*direct).To(Equal(pipeline.LabelBahaya))
	})
})

var _ = Describe("OverrideSet", func() {
	It("should report emptiness on the zero value only", func() {
		Expect(pipeline.OverrideSet{}.Empty()).To(BeTrue())
		Expect(pipeline.OverrideSet{Rain: intPtr(0)}.Empty()).To(BeFalse())
	})
})
