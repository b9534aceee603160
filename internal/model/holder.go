package model

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"procodus.dev/river-monitor/internal/pipeline"
)

// Holder guards the live classifier and hot-swaps it when the artifact
// file changes, without restarting the pipeline. Each Predict call works
// against an immutable adapter snapshot, so predictions in flight are
// unaffected by a swap.
type Holder struct {
	mu      sync.RWMutex
	path    string
	logger  *slog.Logger
	mtime   time.Time
	adapter *Adapter

	// onReload, when set, is called after each successful artifact load.
	onReload func()
}

// NewHolder creates a holder for the artifact at path. The artifact does
// not need to exist yet; Predict reports the pipeline's model-unavailable
// error until it does.
func NewHolder(path string, logger *slog.Logger) *Holder {
	return &Holder{path: path, logger: logger}
}

// OnReload registers a hook invoked after each successful reload.
// Call before the holder is shared.
func (h *Holder) OnReload(fn func()) { h.onReload = fn }

// Predict resolves the current adapter snapshot and delegates to it.
func (h *Holder) Predict(f pipeline.FeatureVector) (pipeline.Prediction, error) {
	adapter, err := h.current()
	if err != nil {
		return pipeline.Prediction{}, err
	}
	return adapter.Predict(f)
}

var _ pipeline.Predictor = (*Holder)(nil)

// current returns the loaded adapter, reloading the artifact when its
// mtime moved past the loaded one.
func (h *Holder) current() (*Adapter, error) {
	info, err := os.Stat(h.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrModelUnavailable, err)
	}

	h.mu.RLock()
	if h.adapter != nil && !info.ModTime().After(h.mtime) {
		adapter := h.adapter
		h.mu.RUnlock()
		return adapter, nil
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Another goroutine may have reloaded while we waited for the lock.
	if h.adapter != nil && !info.ModTime().After(h.mtime) {
		return h.adapter, nil
	}

	artifact, err := LoadArtifact(h.path)
	if err != nil {
		// Keep serving the previous model when the new artifact is bad.
		if h.adapter != nil {
			h.logger.Error("failed to reload artifact, keeping previous model", "error", err)
			return h.adapter, nil
		}
		return nil, fmt.Errorf("%w: %v", pipeline.ErrModelUnavailable, err)
	}

	h.adapter = NewAdapter(artifact.Tree)
	h.mtime = info.ModTime()

	h.logger.Info("model artifact loaded",
		"path", h.path,
		"trained_at", artifact.TrainedAt,
		"samples", artifact.Samples,
		"accuracy", artifact.Accuracy,
		"probabilistic", h.adapter.Probabilistic(),
	)

	if h.onReload != nil {
		h.onReload()
	}

	return h.adapter, nil
}
