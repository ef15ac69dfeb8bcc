// Package predict produces print-quality predictions from the feature
// vector. Evaluation is two-tier: a quantized model when one is loaded
// and healthy, and a deterministic rule-based scorer otherwise. The
// predictor never halts the print; escalation is the safety monitor's
// job.
package predict

import (
	"codeberg.org/mkern/printmond/internal/clock"
	"codeberg.org/mkern/printmond/internal/feature"
	"codeberg.org/mkern/printmond/internal/logger"
)

const (
	// DefaultIntervalMS is the prediction cadence, independent of the
	// control tick.
	DefaultIntervalMS = 5000

	// Failure classification and alert thresholds on failure risk.
	classifyThreshold = 0.3
	alertThreshold    = 0.7

	historySize = 50
)

// AlertFunc receives alert events when failure risk crosses the alert
// threshold. Delivery is best-effort.
type AlertFunc func(p Prediction)

// Predictor runs quality evaluation on its own cadence.
type Predictor struct {
	clk      clock.Clock
	model    *Model
	onAlert  AlertFunc
	interval int64

	lastMS  int64
	primed  bool
	history []Prediction
}

// New creates a predictor. model may be nil; the rule path then serves
// every cycle.
func New(clk clock.Clock, model *Model, intervalMS int64, onAlert AlertFunc) *Predictor {
	if intervalMS <= 0 {
		intervalMS = DefaultIntervalMS
	}
	return &Predictor{
		clk:      clk,
		model:    model,
		onAlert:  onAlert,
		interval: intervalMS,
		history:  make([]Prediction, 0, historySize),
	}
}

// MaybePredict evaluates the vector if the prediction interval has
// elapsed. Returns the prediction and true when one was produced.
func (p *Predictor) MaybePredict(v feature.Vector) (Prediction, bool) {
	now := p.clk.Millis()
	if p.primed && now-p.lastMS < p.interval {
		return Prediction{}, false
	}
	p.lastMS = now
	p.primed = true

	pred := p.evaluate(now, v)

	p.history = append(p.history, pred)
	if len(p.history) > historySize {
		p.history = p.history[1:]
	}

	if pred.FailureRisk > alertThreshold && p.onAlert != nil {
		p.onAlert(pred)
	}

	return pred, true
}

func (p *Predictor) evaluate(now int64, v feature.Vector) Prediction {
	var (
		prob, conf float64
		fromModel  bool
	)

	if p.model != nil {
		mProb, mConf, err := p.model.Infer(v)
		if err != nil {
			logger.Warn().Err(err).Msg("model inference failed, using rule fallback")
			prob, conf = ruleScore(v)
		} else {
			prob, conf = mProb, mConf
			fromModel = true
		}
	} else {
		prob, conf = ruleScore(v)
	}

	pred := Prediction{
		Timestamp:          now,
		SuccessProbability: prob,
		FailureRisk:        1 - prob,
		FailureType:        FailureNone,
		Confidence:         conf,
		FromModel:          fromModel,
	}

	// Failure type always comes from the rule classifier, regardless
	// of which tier produced the probability.
	if pred.FailureRisk > classifyThreshold {
		pred.FailureType = classifyFailure(v)
	}

	return pred
}

// Latest returns the most recent prediction, if any.
func (p *Predictor) Latest() (Prediction, bool) {
	if len(p.history) == 0 {
		return Prediction{}, false
	}
	return p.history[len(p.history)-1], true
}

// History returns a copy of the bounded prediction ring.
func (p *Predictor) History() []Prediction {
	out := make([]Prediction, len(p.history))
	copy(out, p.history)
	return out
}
