package model

// Weights holds the per-stat weight vector of a track. Should sum to ~1.0.
type Weights struct {
	Power       float64 `json:"power" yaml:"power"`
	Handling    float64 `json:"handling" yaml:"handling"`
	Aero        float64 `json:"aero" yaml:"aero"`
	Reliability float64 `json:"reliability" yaml:"reliability"`
	TireGrip    float64 `json:"tireGrip" yaml:"tireGrip"`
}

func (w Weights) Sum() float64 {
	return w.Power + w.Handling + w.Aero + w.Reliability + w.TireGrip
}

// Apply returns the weighted sum of normalized stats.
func (w Weights) Apply(s Stats) float64 {
	n := s.Normalized()
	return w.Power*n.Power +
		w.Handling*n.Handling +
		w.Aero*n.Aero +
		w.Reliability*n.Reliability +
		w.TireGrip*n.TireGrip
}

type Track struct {
	Name            string  `json:"name" yaml:"name"`
	Country         string  `json:"country" yaml:"country"`
	Description     string  `json:"description" yaml:"description"`
	Weights         Weights `json:"weights" yaml:"weights"`
	BaseFailureRate float64 `json:"baseFailureRate" yaml:"baseFailureRate"`
}
