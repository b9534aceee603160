package dashboard

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"procodus.dev/river-monitor/internal/pipeline"
	"procodus.dev/river-monitor/internal/store"
)

// handleIndex runs one evaluation cycle against a fresh snapshot and
// renders the dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("handling dashboard request")

	overrides, err := ParseOverrides(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	history, err := s.log.Snapshot()
	if err != nil {
		s.logger.Error("failed to read snapshot", "error", err)
		http.Error(w, "Failed to read reading log", http.StatusInternalServerError)
		return
	}

	view := s.evaluate(history, overrides)
	view.Overrides = overrideForm(overrides)
	view.Readings = latestReadings(history, 10)

	if err := renderIndex(w, view); err != nil {
		s.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// evaluate runs the pipeline and maps its terminal errors to the display
// states: waiting (no valid data) and display-only (no model, no rule).
func (s *Server) evaluate(history []store.Reading, overrides pipeline.OverrideSet) *indexView {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.EvaluationDuration)
		defer timer.ObserveDuration()
	}

	result, err := pipeline.Evaluate(history, s.models, overrides, s.config.Pipeline)
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.Evaluations.WithLabelValues("ok").Inc()
			s.metrics.VerdictsByReason.WithLabelValues(string(result.Verdict.Reason)).Inc()
		}
		s.auditVerdict(result)
		return verdictIndexView(result)

	case errors.Is(err, pipeline.ErrInsufficientData):
		if s.metrics != nil {
			s.metrics.Evaluations.WithLabelValues("insufficient_data").Inc()
		}
		return &indexView{
			State:         stateWaiting,
			StatusMessage: "Waiting for sensor data...",
		}

	case errors.Is(err, pipeline.ErrPredictionUnavailable):
		if s.metrics != nil {
			s.metrics.Evaluations.WithLabelValues("prediction_unavailable").Inc()
		}
		return &indexView{
			State:         stateDisplayOnly,
			StatusMessage: "Model not available yet; showing data only.",
		}

	default:
		s.logger.Error("evaluation cycle failed", "error", err)
		if s.metrics != nil {
			s.metrics.Evaluations.WithLabelValues("error").Inc()
		}
		return &indexView{
			State:         stateDisplayOnly,
			StatusMessage: "Evaluation failed; showing data only.",
		}
	}
}

// auditVerdict writes one audit entry per emitted verdict.
func (s *Server) auditVerdict(result pipeline.Result) {
	attrs := []any{
		"label", string(result.Verdict.Label),
		"reason", string(result.Verdict.Reason),
		"effective_temp_c", result.EffectiveTemp,
	}
	if result.Verdict.Confidence != nil {
		attrs = append(attrs, "confidence", *result.Verdict.Confidence)
	}
	if result.HorizonMinutes != nil {
		attrs = append(attrs, "horizon_minutes", *result.HorizonMinutes)
	}

	if result.Verdict.Reason.IsAlert() {
		s.audit.Warn("river status alert", attrs...)
		return
	}
	s.audit.Info("river status", attrs...)
}

// handleChart serves one history chart as a standalone HTML page.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.logger.Debug("handling chart request", "chart", name)

	history, err := s.log.Snapshot()
	if err != nil {
		s.logger.Error("failed to read snapshot", "error", err)
		http.Error(w, "Failed to read reading log", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := renderChart(&buf, name, history); err != nil {
		if errors.Is(err, errUnknownChart) {
			http.Error(w, "Unknown chart", http.StatusNotFound)
			return
		}
		s.logger.Error("failed to render chart", "error", err, "chart", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleHealth serves health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
