package dashboard

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"procodus.dev/river-monitor/internal/pipeline"
	"procodus.dev/river-monitor/internal/store"
)

const (
	stateOK          = "ok"
	stateWaiting     = "waiting"
	stateDisplayOnly = "display_only"
)

// indexView is the template model for the dashboard page.
type indexView struct {
	State         string
	StatusMessage string
	Verdict       *verdictView
	Horizon       string
	Overrides     formView
	Readings      []readingView
}

type verdictView struct {
	Label      string
	Reason     string
	Confidence string
	Alert      bool
}

type formView struct {
	WaterLevelCM string
	TemperatureC string
	HumidityPct  string
	Rain         string
	DangerLabel  string
}

type readingView struct {
	Datetime     string
	WaterLevelCM string
	TemperatureC string
	HumidityPct  string
	DangerLevel  string
	RainLevel    int
}

func verdictIndexView(result pipeline.Result) *indexView {
	v := &verdictView{
		Label:  string(result.Verdict.Label),
		Reason: string(result.Verdict.Reason),
		Alert:  result.Verdict.Reason.IsAlert(),
	}
	if result.Verdict.Confidence != nil {
		v.Confidence = fmt.Sprintf("%.2f", *result.Verdict.Confidence)
	}

	view := &indexView{State: stateOK, Verdict: v}
	if result.HorizonMinutes != nil {
		view.Horizon = fmt.Sprintf("%.0f min", *result.HorizonMinutes)
	}
	return view
}

func overrideForm(ov pipeline.OverrideSet) formView {
	var f formView
	if ov.WaterLevelCM != nil {
		f.WaterLevelCM = formatFloat(*ov.WaterLevelCM)
	}
	if ov.TemperatureC != nil {
		f.TemperatureC = formatFloat(*ov.TemperatureC)
	}
	if ov.HumidityPct != nil {
		f.HumidityPct = formatFloat(*ov.HumidityPct)
	}
	if ov.Rain != nil {
		f.Rain = fmt.Sprintf("%d", *ov.Rain)
	}
	if ov.DangerLabel != nil {
		f.DangerLabel = string(*ov.DangerLabel)
	}
	return f
}

// latestReadings maps the newest n rows for the table, newest first.
func latestReadings(history []store.Reading, n int) []readingView {
	if len(history) > n {
		history = history[len(history)-n:]
	}

	views := make([]readingView, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		r := history[i]
		v := readingView{
			Datetime:     r.Time().Format(time.DateTime),
			WaterLevelCM: formatCell(r.WaterLevelCM),
			TemperatureC: formatCell(r.TemperatureC),
			HumidityPct:  formatCell(r.HumidityPct),
			RainLevel:    r.RainLevel,
		}
		if r.DangerLevel != nil {
			v.DangerLevel = fmt.Sprintf("%d", *r.DangerLevel)
		} else {
			v.DangerLevel = "-"
		}
		views = append(views, v)
	}
	return views
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

func formatCell(v float64) string {
	if store.IsAbsent(v) {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>River Monitor</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #f6f8fa; }
.panel { background: #fff; border: 1px solid #d0d7de; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; }
.verdict-alert { background: #ffebe9; border-color: #cf222e; }
.verdict-info { background: #ddf4ff; border-color: #0969da; }
.verdict-waiting { background: #fff8c5; border-color: #9a6700; }
.verdict h2 { margin: 0 0 0.25rem 0; }
.muted { color: #57606a; font-size: 0.85rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #d0d7de; padding: 0.3rem 0.6rem; text-align: right; }
th { background: #f6f8fa; }
form label { display: inline-block; margin-right: 1rem; }
iframe { border: 1px solid #d0d7de; border-radius: 6px; width: 100%; height: 420px; margin-bottom: 1rem; }
</style>
</head>
<body>
<h1>River Water Level Monitoring</h1>

{{if eq .State "ok"}}
<div class="panel verdict {{if .Verdict.Alert}}verdict-alert{{else}}verdict-info{{end}}">
  {{if .Verdict.Alert}}<h2>ALERT: {{.Verdict.Label}}</h2>{{else}}<h2>{{.Verdict.Label}}</h2>{{end}}
  <div class="muted">reason: {{.Verdict.Reason}}{{if .Verdict.Confidence}} &middot; confidence: {{.Verdict.Confidence}}{{end}}</div>
  {{if .Horizon}}<div class="muted">estimated time to hazard level at current trend: {{.Horizon}}</div>{{end}}
</div>
{{else}}
<div class="panel verdict verdict-waiting">
  <h2>{{.StatusMessage}}</h2>
</div>
{{end}}

<div class="panel">
  <h3>Manual Override</h3>
  <form method="get" action="/">
    <label>Water level (cm) <input type="number" step="any" name="water_level_cm" value="{{.Overrides.WaterLevelCM}}"></label>
    <label>Temperature (&deg;C) <input type="number" step="any" name="temperature_c" value="{{.Overrides.TemperatureC}}"></label>
    <label>Humidity (%) <input type="number" step="any" name="humidity_pct" value="{{.Overrides.HumidityPct}}"></label>
    <label>Rain
      <select name="rain">
        <option value="" {{if eq .Overrides.Rain ""}}selected{{end}}>sensor</option>
        <option value="0" {{if eq .Overrides.Rain "0"}}selected{{end}}>0</option>
        <option value="1" {{if eq .Overrides.Rain "1"}}selected{{end}}>1</option>
      </select>
    </label>
    <label>Danger label
      <select name="danger_label">
        <option value="" {{if eq .Overrides.DangerLabel ""}}selected{{end}}>model</option>
        <option value="Aman" {{if eq .Overrides.DangerLabel "Aman"}}selected{{end}}>Aman</option>
        <option value="Waspada" {{if eq .Overrides.DangerLabel "Waspada"}}selected{{end}}>Waspada</option>
        <option value="Bahaya" {{if eq .Overrides.DangerLabel "Bahaya"}}selected{{end}}>Bahaya</option>
      </select>
    </label>
    <button type="submit">Apply</button>
    <a href="/">Reset</a>
  </form>
  <div class="muted">Blank fields use sensor data. Reload the page to re-read the log.</div>
</div>

<div class="panel">
  <h3>Latest readings</h3>
  <table>
    <tr><th>Time</th><th>Water (cm)</th><th>Temp (&deg;C)</th><th>Humidity (%)</th><th>Danger</th><th>Rain</th></tr>
    {{range .Readings}}
    <tr><td>{{.Datetime}}</td><td>{{.WaterLevelCM}}</td><td>{{.TemperatureC}}</td><td>{{.HumidityPct}}</td><td>{{.DangerLevel}}</td><td>{{.RainLevel}}</td></tr>
    {{end}}
  </table>
</div>

<iframe src="/charts/water_level"></iframe>
<iframe src="/charts/rise_rate"></iframe>
<iframe src="/charts/humidity"></iframe>
<iframe src="/charts/rain"></iframe>
</body>
</html>
`))

// renderIndex renders the dashboard page.
func renderIndex(w io.Writer, view *indexView) error {
	return indexTemplate.Execute(w, view)
}
