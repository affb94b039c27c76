package simulator

import "github.com/mpapenbr/racebet/pkg/model"

func tireOf(e *model.Entrant) tireProfile {
	if p, ok := tires[e.Strategy.Tire]; ok {
		return p
	}
	return tires[model.TireMedium]
}

func modeOf(e *model.Entrant) modeProfile {
	if p, ok := modes[e.Strategy.Mode]; ok {
		return p
	}
	return modes[model.ModeNormal]
}

// PaceScalar computes the speed factor of e on track t for the given
// 0-based leg index. The result is always within [0.90,1.10].
func PaceScalar(e *model.Entrant, t *model.Track, legIdx int) float64 {
	base := paceBase + t.Weights.Apply(e.Stats)*paceSpread
	tp := tireOf(e)
	tireFactor := tp.boost - tp.degradation*float64(legIdx)
	wearFactor := 1 - model.Clamp(e.Wear, 0, 100)/100*wearPacePct
	pace := base * tireFactor * wearFactor * modeOf(e).pace
	return model.Clamp(pace, paceMin, paceMax)
}

// FailureProbability is the chance of e suffering a failure in one leg.
// The result is always within [0.005,0.20].
func FailureProbability(e *model.Entrant, t *model.Track) float64 {
	n := e.Stats.Normalized()
	p := t.BaseFailureRate +
		model.Clamp(e.Wear, 0, 100)/100*wearFailurePct +
		tireOf(e).risk +
		modeOf(e).risk +
		(1-n.Reliability)*reliabilityFailures
	return model.Clamp(p, failureMin, failureMax)
}

// baseIncrement is the nominal progress per leg at pace 1.0
func baseIncrement(legs int) float64 {
	return 1 / (float64(legs) * incrementDiv)
}

// bandingFactorFor reduces the delta of entrants ahead of the field
// average and boosts those behind, by at most 6%.
func bandingFactorFor(progress, avg float64) float64 {
	return 1 - model.Clamp((progress-avg)*bandingFactor, -bandingLimit, bandingLimit)
}
