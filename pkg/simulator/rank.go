package simulator

import (
	"sort"

	"github.com/mpapenbr/racebet/pkg/model"
)

type runner struct {
	idx       int // position in the field as handed to Run
	entrant   *model.Entrant
	state     model.RaceState
	failOrder int // order in which the failure was rolled, 0 if running
}

// rank orders running entrants by progress (desc) and appends failed ones.
// Failed entrants are ordered by their frozen progress, ties keep the order
// in which the failures happened.
func rank(runners []*runner) []model.Standing {
	sorted := make([]*runner, len(runners))
	copy(sorted, runners)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.state.Failed != b.state.Failed {
			return !a.state.Failed
		}
		if a.state.Progress != b.state.Progress {
			return a.state.Progress > b.state.Progress
		}
		if a.state.Failed {
			return a.failOrder < b.failOrder
		}
		return a.idx < b.idx
	})
	ret := make([]model.Standing, len(sorted))
	for i, r := range sorted {
		ret[i] = standingOf(i+1, r)
	}
	return ret
}

func standingOf(pos int, r *runner) model.Standing {
	s := model.Standing{
		Position:  pos,
		Name:      r.entrant.Name,
		TeamLabel: r.entrant.TeamLabel,
		Progress:  r.state.Progress,
		Failed:    r.state.Failed,
		Reason:    r.state.FailureReason,
		FailedAt:  r.state.FailedAtLeg,
		Bot:       r.entrant.IsBot(),
	}
	if owned, ok := model.OwnerOf(r.entrant.Origin); ok {
		s.OwnerID = owned.OwnerID
		s.CarID = owned.CarID
	}
	return s
}
