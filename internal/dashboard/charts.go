package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"procodus.dev/river-monitor/internal/pipeline"
	"procodus.dev/river-monitor/internal/store"
)

var errUnknownChart = errors.New("unknown chart")

// chartSpec describes one plottable series over the cleaned history.
type chartSpec struct {
	title string
	unit  string
	value func(prev *store.Reading, cur store.Reading) float64
}

var chartSpecs = map[string]chartSpec{
	"water_level": {
		title: "Water Level",
		unit:  "cm",
		value: func(_ *store.Reading, cur store.Reading) float64 { return cur.WaterLevelCM },
	},
	"rise_rate": {
		title: "Water Rise Rate",
		unit:  "cm/interval",
		value: func(prev *store.Reading, cur store.Reading) float64 {
			if prev == nil {
				return 0
			}
			return cur.WaterLevelCM - prev.WaterLevelCM
		},
	},
	"humidity": {
		title: "Humidity",
		unit:  "%",
		value: func(_ *store.Reading, cur store.Reading) float64 { return cur.HumidityPct },
	},
	"rain": {
		title: "Rain (binary)",
		unit:  "",
		value: func(_ *store.Reading, cur store.Reading) float64 {
			if cur.RainLevel > 0 {
				return 1
			}
			return 0
		},
	},
}

// renderChart renders one named series of the cleaned history as a
// standalone go-echarts line chart page.
func renderChart(w io.Writer, name string, history []store.Reading) error {
	spec, ok := chartSpecs[name]
	if !ok {
		return errUnknownChart
	}

	// Charts plot the same rows the pipeline sees: filtered and filled.
	rows := pipeline.Clean(history)

	xs := make([]string, 0, len(rows))
	data := make([]opts.LineData, 0, len(rows))
	for i, r := range rows {
		var prev *store.Reading
		if i > 0 {
			prev = &rows[i-1]
		}
		xs = append(xs, r.Time().Format(time.TimeOnly))
		data = append(data, opts.LineData{Value: spec.value(prev, r)})
	}

	title := spec.title
	if spec.unit != "" {
		title = fmt.Sprintf("%s (%s)", spec.title, spec.unit)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "380px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	line.SetXAxis(xs)
	line.AddSeries(name, data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
