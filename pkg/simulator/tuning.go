package simulator

import "github.com/mpapenbr/racebet/pkg/model"

const (
	DefaultLegs = 5

	paceBase      = 0.97
	paceSpread    = 0.09
	paceMin       = 0.90
	paceMax       = 1.10
	wearPacePct   = 0.10
	incrementDiv  = 9.5
	noiseStdDev   = 0.03
	momentumPrev  = 0.35
	momentumRaw   = 0.65
	bandingFactor = 0.7
	bandingLimit  = 0.06

	failureMin          = 0.005
	failureMax          = 0.20
	wearFailurePct      = 0.05
	reliabilityFailures = 0.035
	// failure rolls start at this leg index (0-based)
	firstFailureLeg = 1
)

type tireProfile struct {
	boost       float64
	degradation float64 // per leg
	risk        float64
}

var tires = map[model.Tire]tireProfile{
	model.TireSoft:   {boost: 1.04, degradation: 0.012, risk: 0.020},
	model.TireMedium: {boost: 1.02, degradation: 0.006, risk: 0.010},
	model.TireHard:   {boost: 1.00, degradation: 0.002, risk: 0.004},
}

type modeProfile struct {
	pace float64
	risk float64
}

var modes = map[model.Mode]modeProfile{
	model.ModePush:   {pace: 1.03, risk: 0.020},
	model.ModeNormal: {pace: 1.00, risk: 0.008},
	model.ModeSave:   {pace: 0.97, risk: 0.002},
}

var failureCauses = []string{
	"blown engine",
	"gearbox failure",
	"puncture",
	"hydraulics leak",
	"spun into the gravel",
	"electrical gremlins",
	"brake fire",
	"snapped suspension",
}
