package dashboard_test

import (
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/river-monitor/internal/dashboard"
	"procodus.dev/river-monitor/internal/pipeline"
)

var _ = Describe("ParseOverrides", func() {
	It("should return an empty set for an empty form", func() {
		ov, err := dashboard.ParseOverrides(url.Values{})
		Expect(err).NotTo(HaveOccurred())
		Expect(ov.Empty()).To(BeTrue())
	})

	It("should treat blank fields as not set", func() {
		values := url.Values{
			"water_level_cm": {""},
			"temperature_c":  {""},
			"rain":           {""},
			"danger_label":   {""},
		}

		ov, err := dashboard.ParseOverrides(values)
		Expect(err).NotTo(HaveOccurred())
		Expect(ov.Empty()).To(BeTrue())
	})

	It("should decode every field", func() {
		values := url.Values{
			"water_level_cm": {"42.5"},
			"temperature_c":  {"71"},
			"humidity_pct":   {"88"},
			"rain":           {"1"},
			"danger_label":   {"Bahaya"},
		}

		ov, err := dashboard.ParseOverrides(values)
		Expect(err).NotTo(HaveOccurred())
		Expect(*ov.WaterLevelCM).To(Equal(42.5))
		Expect(*ov.TemperatureC).To(Equal(71.0))
		Expect(*ov.HumidityPct).To(Equal(88.0))
		Expect(*ov.Rain).To(Equal(1))
		Expect(*ov.DangerLabel).To(Equal(pipeline.LabelBahaya))
	})

	It("should keep an explicit zero distinct from blank", func() {
		values := url.Values{
			"water_level_cm": {"0"},
			"rain":           {"0"},
		}

		ov, err := dashboard.ParseOverrides(values)
		Expect(err).NotTo(HaveOccurred())
		Expect(ov.WaterLevelCM).NotTo(BeNil())
		Expect(*ov.WaterLevelCM).To(BeZero())
		Expect(ov.Rain).NotTo(BeNil())
		Expect(*ov.Rain).To(Equal(0))
	})

	It("should reject non-numeric floats", func() {
		_, err := dashboard.ParseOverrides(url.Values{"water_level_cm": {"high"}})
		Expect(err).To(HaveOccurred())
	})

	It("should reject rain values other than 0 and 1", func() {
		for _, raw := range []string{"2", "-1", "yes"} {
			_, err := dashboard.ParseOverrides(url.Values{"rain": {raw}})
			Expect(err).To(HaveOccurred(), "rain=%s", raw)
		}
	})

	It("should reject unknown danger labels", func() {
		_, err := dashboard.ParseOverrides(url.Values{"danger_label": {"Panic"}})
		Expect(err).To(HaveOccurred())
	})
})
