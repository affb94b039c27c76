package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/mpapenbr/racebet/pkg/economy"
	"github.com/mpapenbr/racebet/pkg/simulator"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds the tunables of a race session.
type Settings struct {
	EntryWindow     time.Duration
	StrategyWindow  time.Duration
	LegDelay        time.Duration
	MaxRaceDuration time.Duration
	Legs            int
	EntryFee        int64
	RakePct         int64
	PayoutTable     []int64
	// MinField is the field size reached by padding with bots. It is not a
	// requirement for the race to take place.
	MinField int
}

func DefaultSettings() Settings {
	return Settings{
		EntryWindow:     60 * time.Second,
		StrategyWindow:  30 * time.Second,
		LegDelay:        4 * time.Second,
		MaxRaceDuration: 2 * time.Minute,
		Legs:            simulator.DefaultLegs,
		EntryFee:        2000,
		RakePct:         15,
		PayoutTable:     economy.DefaultPayoutTable,
		MinField:        6,
	}
}

func (s *Settings) Validate() error {
	if s.Legs <= 0 {
		return fmt.Errorf("legs must be positive: %w", ErrInvalidSettings)
	}
	if s.EntryFee < 0 {
		return fmt.Errorf("entry fee must not be negative: %w", ErrInvalidSettings)
	}
	if s.MinField < 0 {
		return fmt.Errorf("min field must not be negative: %w", ErrInvalidSettings)
	}
	if s.MaxRaceDuration <= 0 {
		return fmt.Errorf("max race duration must be positive: %w", ErrInvalidSettings)
	}
	if err := economy.ValidateRake(s.RakePct); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if err := economy.ValidateTable(s.PayoutTable); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}
