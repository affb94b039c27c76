package session

import (
	"fmt"
	"math"
	"strings"

	"github.com/mpapenbr/racebet/pkg/economy"
	"github.com/mpapenbr/racebet/pkg/model"
)

// Session holds everything belonging to one race. It is owned by the
// controller and discarded when the race is settled.
type Session struct {
	ID     string
	RoomID string
	Track  *model.Track

	// lower case car name -> car snapshot of present players
	roster map[string]*model.Car
	// car ids in entry order
	entered    []int64
	enteredSet map[int64]bool
	choices    map[string]model.Strategy

	field []*model.Entrant
	paid  int
	pool  economy.Pool

	timer         Timer
	lastSignature string
}

func newSession(id, roomID string, track *model.Track) *Session {
	return &Session{
		ID:         id,
		RoomID:     roomID,
		Track:      track,
		roster:     map[string]*model.Car{},
		enteredSet: map[int64]bool{},
		choices:    map[string]model.Strategy{},
	}
}

func (s *Session) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) carByID(id int64) *model.Car {
	for _, c := range s.roster {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Session) enteredCars() []*model.Car {
	ret := make([]*model.Car, 0, len(s.entered))
	for _, id := range s.entered {
		if c := s.carByID(id); c != nil {
			ret = append(ret, c)
		}
	}
	return ret
}

func (s *Session) rosterNames() []string {
	ret := make([]string, 0, len(s.roster))
	for _, c := range s.roster {
		ret = append(ret, c.Name)
	}
	return ret
}

// ownsEntrant reports whether the player has at least one car in the field.
func (s *Session) ownsEntrant(playerID string) bool {
	for _, e := range s.field {
		if o, ok := model.OwnerOf(e.Origin); ok && o.OwnerID == playerID {
			return true
		}
	}
	return false
}

func (s *Session) entrantByCarID(id int64) *model.Entrant {
	for _, e := range s.field {
		if o, ok := model.OwnerOf(e.Origin); ok && o.CarID == id {
			return e
		}
	}
	return nil
}

// signature of a ranked snapshot, rounded to whole percent
func signature(standings []model.Standing) string {
	parts := make([]string, len(standings))
	for i, st := range standings {
		parts[i] = fmt.Sprintf("%s:%d:%t",
			st.Name, int(math.Round(st.Progress*100)), st.Failed)
	}
	return strings.Join(parts, "|")
}
