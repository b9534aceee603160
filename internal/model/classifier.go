// Package model wraps the trained danger classifier: the capability
// adapter, the decision tree itself, the serialized artifact, the
// hot-swapping holder, and the offline trainer.
package model

import (
	"fmt"

	"procodus.dev/river-monitor/internal/pipeline"
)

// Classifier exposes a point prediction over the four-field feature
// vector.
type Classifier interface {
	Predict(f pipeline.FeatureVector) (pipeline.Label, error)
}

// ProbabilisticClassifier additionally exposes a class-probability
// distribution.
type ProbabilisticClassifier interface {
	Classifier
	PredictProba(f pipeline.FeatureVector) (map[pipeline.Label]float64, error)
}

// Adapter presents any classifier behind the pipeline's uniform
// prediction contract. Whether the classifier supports probabilities is
// resolved once here, at construction, not per prediction.
type Adapter struct {
	clf   Classifier
	proba ProbabilisticClassifier // nil for plain classifiers
}

// NewAdapter wraps a classifier, detecting probability support.
func NewAdapter(c Classifier) *Adapter {
	a := &Adapter{clf: c}
	if p, ok := c.(ProbabilisticClassifier); ok {
		a.proba = p
	}
	return a
}

// Probabilistic reports whether the wrapped classifier exposes a
// probability distribution.
func (a *Adapter) Probabilistic() bool { return a.proba != nil }

// Predict returns the label and, for probabilistic classifiers, the
// maximum class probability as the confidence. Plain classifiers yield a
// nil confidence, which the verdict engine treats as trusted by default
// on danger calls.
func (a *Adapter) Predict(f pipeline.FeatureVector) (pipeline.Prediction, error) {
	if a.proba != nil {
		dist, err := a.proba.PredictProba(f)
		if err != nil {
			return pipeline.Prediction{}, fmt.Errorf("predict proba: %w", err)
		}

		best, conf := argmax(dist)
		return pipeline.Prediction{Label: best, Confidence: &conf}, nil
	}

	label, err := a.clf.Predict(f)
	if err != nil {
		return pipeline.Prediction{}, fmt.Errorf("predict: %w", err)
	}
	return pipeline.Prediction{Label: label}, nil
}

// argmax picks the label with the highest probability, breaking ties in
// danger_level order so predictions are deterministic.
func argmax(dist map[pipeline.Label]float64) (pipeline.Label, float64) {
	best := pipeline.LabelAman
	max := -1.0
	for _, label := range pipeline.Labels {
		if p, ok := dist[label]; ok && p > max {
			best, max = label, p
		}
	}
	return best, max
}
