package model

import "strings"

// Stats holds the five car attributes, each in [0,100].
type Stats struct {
	Power       float64 `json:"power" yaml:"power"`
	Handling    float64 `json:"handling" yaml:"handling"`
	Aero        float64 `json:"aero" yaml:"aero"`
	Reliability float64 `json:"reliability" yaml:"reliability"`
	TireGrip    float64 `json:"tireGrip" yaml:"tireGrip"`
}

// Normalized returns the stats scaled to [0,1].
func (s Stats) Normalized() Stats {
	n := func(v float64) float64 { return clamp(v, 0, 100) / 100 }
	return Stats{
		Power:       n(s.Power),
		Handling:    n(s.Handling),
		Aero:        n(s.Aero),
		Reliability: n(s.Reliability),
		TireGrip:    n(s.TireGrip),
	}
}

// Car is the persisted car record. The engine works on snapshots of it.
type Car struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	OwnerID string  `json:"ownerId"`
	Stats   Stats   `json:"stats"`
	Wear    float64 `json:"wear"`
	Tier    string  `json:"tier"`
	Wins    int     `json:"wins"`
	Races   int     `json:"races"`
	Retired bool    `json:"retired"`
}

// CarNameKey normalizes a car name for lookups. Car names are unique
// ignoring case.
func CarNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type Team struct {
	OwnerID     string `json:"ownerId"`
	Name        string `json:"name"`
	Badge       string `json:"badge"`
	GarageLevel int    `json:"garageLevel"`
}

func (t *Team) Label() string {
	if t == nil {
		return ""
	}
	if t.Badge == "" {
		return t.Name
	}
	return t.Badge + " " + t.Name
}

// RaceUpdate is written back to the garage for every real car after a race.
type RaceUpdate struct {
	Won       bool
	WearDelta float64
}

// CarFilter restricts ListCars.
type CarFilter struct {
	OwnerIDs       []string
	IncludeRetired bool
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp limits v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}
