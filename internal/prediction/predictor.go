// Package prediction scores a feature vector into a failure-risk probability
// and maps it onto the discrete risk bands and a predicted component.
package prediction

import (
	"math"

	"github.com/arjun1665/SmartFleet/internal/fleet"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

// Risk-level thresholds; each bound is inclusive on its band's lower edge.
const (
	criticalThreshold = 0.8
	highThreshold     = 0.6
	mediumThreshold   = 0.35
)

// Component rule-cascade thresholds, evaluated in priority order.
const (
	coolingTempC      = 105.0
	bearingVibration  = 0.7
	lubricationKPA    = 160.0
	electricalBattery = 11.6
)

// degradedScore is the neutral probability emitted when no model artifacts
// are loaded. It is always paired with Degraded=true so callers can tell it
// apart from a real prediction.
const degradedScore = 0.5

// Prediction is the scored outcome for one feature vector.
type Prediction struct {
	RiskScore          float64         `json:"risk_score"`
	RiskLevel          fleet.RiskLevel `json:"risk_level"`
	PredictedComponent fleet.Component `json:"predicted_component"`
	Degraded           bool            `json:"degraded,omitempty"`
}

// Predictor holds an immutable model bundle. A nil bundle puts the predictor
// in degraded mode rather than failing each call.
type Predictor struct {
	bundle *Bundle
	logger *structlog.Logger
}

// New builds a predictor from artifacts on disk. Missing artifacts yield a
// degraded predictor; malformed artifacts are a startup error.
func New(modelPath, encoderPath string, logger *structlog.Logger) (*Predictor, error) {
	bundle, err := LoadBundle(modelPath, encoderPath)
	if err != nil {
		return nil, err
	}
	if bundle == nil && logger != nil {
		logger.Warn("model artifacts missing; predictor running in degraded mode", structlog.Fields{
			"model_path":   modelPath,
			"encoder_path": encoderPath,
		})
	}
	return &Predictor{bundle: bundle, logger: logger}, nil
}

// NewWithBundle wraps an already-loaded bundle, mainly for tests.
func NewWithBundle(bundle *Bundle) *Predictor { return &Predictor{bundle: bundle} }

// Degraded reports whether the predictor has no model loaded.
func (p *Predictor) Degraded() bool { return p.bundle == nil }

// Predict scores one feature vector. The component cascade is rule-based and
// independent of the model score.
func (p *Predictor) Predict(fv fleet.FeatureVector) Prediction {
	score := degradedScore
	degraded := true
	if p.bundle != nil {
		score = p.score(fv.Values)
		degraded = false
	}
	return Prediction{
		RiskScore:          score,
		RiskLevel:          LevelFor(score),
		PredictedComponent: ComponentFor(fv.Values),
		Degraded:           degraded,
	}
}

// score evaluates the logistic model over the encoder's feature ordering.
// Features absent from the vector contribute zero.
func (p *Predictor) score(values map[string]float64) float64 {
	z := p.bundle.Bias
	for i, name := range p.bundle.FeatureNames {
		z += p.bundle.Weights[i] * values[name]
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// LevelFor discretizes a probability into the four risk bands.
func LevelFor(score float64) fleet.RiskLevel {
	switch {
	case score >= criticalThreshold:
		return fleet.RiskCritical
	case score >= highThreshold:
		return fleet.RiskHigh
	case score >= mediumThreshold:
		return fleet.RiskMedium
	default:
		return fleet.RiskLow
	}
}

// ComponentFor runs the rule cascade in priority order; the first matching
// rule wins and later rules are never combined with it.
func ComponentFor(values map[string]float64) fleet.Component {
	if valueOr(values, "engine_temp_c", 0) > coolingTempC {
		return fleet.ComponentCooling
	}
	if valueOr(values, "vibration_rms", 0) > bearingVibration {
		return fleet.ComponentBearing
	}
	if valueOr(values, "oil_pressure_kpa", 999) < lubricationKPA {
		return fleet.ComponentLubrication
	}
	if valueOr(values, "battery_v", 99) < electricalBattery {
		return fleet.ComponentElectrical
	}
	return fleet.ComponentGeneral
}

func valueOr(values map[string]float64, name string, def float64) float64 {
	if v, ok := values[name]; ok {
		return v
	}
	return def
}
