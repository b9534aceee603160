package pipeline

// Label is one of the three danger levels.
type Label string

// The label space is fixed; the classifier, the override form, and the
// training labels all use exactly these values.
const (
	LabelAman    Label = "Aman"    // safe
	LabelWaspada Label = "Waspada" // warning
	LabelBahaya  Label = "Bahaya"  // danger
)

// Labels lists the label space in danger_level order (0, 1, 2).
var Labels = []Label{LabelAman, LabelWaspada, LabelBahaya}

// ParseLabel validates a label string.
func ParseLabel(s string) (Label, bool) {
	switch Label(s) {
	case LabelAman, LabelWaspada, LabelBahaya:
		return Label(s), true
	}
	return "", false
}

// LabelForDangerLevel maps a stored danger_level to its label.
func LabelForDangerLevel(level int) (Label, bool) {
	if level < 0 || level >= len(Labels) {
		return "", false
	}
	return Labels[level], true
}

// Reason identifies which rule produced a verdict. Exactly one reason
// applies per verdict.
type Reason string

const (
	ReasonForcedTemperature    Reason = "forced_temperature"
	ReasonManualOverride       Reason = "manual_override"
	ReasonHighConfidenceDanger Reason = "ml_high_confidence_danger"
	ReasonModelNormal          Reason = "ml_normal"
)

// IsAlert reports whether a verdict with this reason renders as an alert
// rather than informational output.
func (r Reason) IsAlert() bool {
	return r == ReasonForcedTemperature || r == ReasonHighConfidenceDanger
}

// Verdict is the authoritative output of one evaluation cycle.
type Verdict struct {
	Label Label
	// Confidence is nil when the source was a hard rule, a manual
	// override, or a plain (non-probabilistic) classifier.
	Confidence *float64
	Reason     Reason
}

// Prediction is the classifier adapter's output. Confidence is the
// maximum class probability, or nil for a plain classifier, meaning
// "unknown - trusted by default on danger calls".
type Prediction struct {
	Label      Label
	Confidence *float64
}

// Predictor wraps a trained model behind a uniform prediction contract.
// Implementations return ErrModelUnavailable when no artifact is loadable.
type Predictor interface {
	Predict(f FeatureVector) (Prediction, error)
}

const (
	// ForcedTemperatureC is the hard safety threshold: above it the
	// verdict is Bahaya no matter what the model or operator says.
	ForcedTemperatureC = 70.0

	// DangerConfidenceGate is the minimum (strict) confidence for a model
	// danger call to escalate to an alert.
	DangerConfidenceGate = 0.8
)

// Decide runs the verdict state machine. Rules are evaluated in strict
// priority order and the first match wins:
//
//  1. forced alarm on extreme temperature;
//  2. direct manual label;
//  3. high-confidence danger gate;
//  4. raw model label, informational.
//
// pred is nil when the model is unavailable; if no rule applies without
// it, Decide returns ErrPredictionUnavailable.
func Decide(effectiveTemp float64, pred *Prediction, directLabel *Label) (Verdict, error) {
	if effectiveTemp > ForcedTemperatureC {
		return Verdict{Label: LabelBahaya, Reason: ReasonForcedTemperature}, nil
	}

	if directLabel != nil {
		return Verdict{Label: *directLabel, Reason: ReasonManualOverride}, nil
	}

	if pred == nil {
		return Verdict{}, ErrPredictionUnavailable
	}

	if pred.Label == LabelBahaya && (pred.Confidence == nil || *pred.Confidence > DangerConfidenceGate) {
		return Verdict{Label: LabelBahaya, Confidence: pred.Confidence, Reason: ReasonHighConfidenceDanger}, nil
	}

	return Verdict{Label: pred.Label, Confidence: pred.Confidence, Reason: ReasonModelNormal}, nil
}
