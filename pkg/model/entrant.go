package model

import (
	"fmt"
	"strings"
)

type Tire string

const (
	TireSoft   Tire = "soft"
	TireMedium Tire = "medium"
	TireHard   Tire = "hard"
)

type Mode string

const (
	ModePush   Mode = "push"
	ModeNormal Mode = "normal"
	ModeSave   Mode = "save"
)

var ErrUnknownStrategy = fmt.Errorf("unknown strategy value")

func ParseTire(s string) (Tire, error) {
	switch t := Tire(strings.ToLower(strings.TrimSpace(s))); t {
	case TireSoft, TireMedium, TireHard:
		return t, nil
	default:
		return "", fmt.Errorf("tire %q: %w", s, ErrUnknownStrategy)
	}
}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePush, ModeNormal, ModeSave:
		return m, nil
	default:
		return "", fmt.Errorf("mode %q: %w", s, ErrUnknownStrategy)
	}
}

// Strategy is the per-player choice made during the strategy window.
type Strategy struct {
	Tire Tire `json:"tire"`
	Mode Mode `json:"mode"`
}

func DefaultStrategy() Strategy {
	return Strategy{Tire: TireMedium, Mode: ModeNormal}
}

// WithDefaults fills unset values with medium/normal.
func (s Strategy) WithDefaults() Strategy {
	if s.Tire == "" {
		s.Tire = TireMedium
	}
	if s.Mode == "" {
		s.Mode = ModeNormal
	}
	return s
}

// Origin tells whether an entrant belongs to a player or was synthesized.
// Implementations are Owned and Synthetic.
type Origin interface {
	isOrigin()
}

type Owned struct {
	OwnerID string `json:"ownerId"`
	CarID   int64  `json:"carId"`
}

type Synthetic struct{}

func (Owned) isOrigin()     {}
func (Synthetic) isOrigin() {}

// OwnerOf returns the owner part of o if o is Owned.
func OwnerOf(o Origin) (Owned, bool) {
	ow, ok := o.(Owned)
	return ow, ok
}

// Entrant is a car plus the resolved strategy for one race.
type Entrant struct {
	Name      string   `json:"name"`
	Stats     Stats    `json:"stats"`
	Wear      float64  `json:"wear"`
	Tier      string   `json:"tier"`
	Origin    Origin   `json:"-"`
	TeamLabel string   `json:"teamLabel,omitempty"`
	Strategy  Strategy `json:"strategy"`
}

func NewOwnedEntrant(c *Car) *Entrant {
	return &Entrant{
		Name:     c.Name,
		Stats:    c.Stats,
		Wear:     c.Wear,
		Tier:     c.Tier,
		Origin:   Owned{OwnerID: c.OwnerID, CarID: c.ID},
		Strategy: DefaultStrategy(),
	}
}

func (e *Entrant) IsBot() bool {
	_, ok := e.Origin.(Synthetic)
	return ok
}

// RaceState is the per-entrant simulation state.
type RaceState struct {
	Progress      float64
	LastDelta     float64
	Failed        bool
	FailureReason string
	FailedAtLeg   int
}
