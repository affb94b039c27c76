package simulator

import (
	"fmt"

	"github.com/mpapenbr/racebet/pkg/model"
)

const (
	maxCallouts = 2
	closeGap    = 0.004
)

// callouts picks up to two narrative lines for a leg. New failures come
// first, flavour text fills the remaining slots.
//
//nolint:whitespace // can't make both editor and linter happy
func callouts(
	leg, totalLegs int,
	prevLeader string,
	standings []model.Standing,
	newFailures []*runner,
) []string {
	ret := make([]string, 0, maxCallouts)
	for _, r := range newFailures {
		if len(ret) == maxCallouts {
			return ret
		}
		ret = append(ret, fmt.Sprintf("%s is out: %s!",
			r.entrant.Name, r.state.FailureReason))
	}
	if len(standings) == 0 {
		return ret
	}
	leader := standings[0]
	flavour := make([]string, 0, 3)
	switch {
	case leg == 1:
		flavour = append(flavour,
			fmt.Sprintf("Lights out! %s gets the best launch.", leader.Name))
	case leg == totalLegs && !leader.Failed:
		flavour = append(flavour,
			fmt.Sprintf("%s takes the chequered flag!", leader.Name))
	case prevLeader != "" && prevLeader != leader.Name && !leader.Failed:
		flavour = append(flavour,
			fmt.Sprintf("%s snatches the lead from %s!", leader.Name, prevLeader))
	}
	if len(standings) > 1 {
		second := standings[1]
		if !second.Failed && leader.Progress-second.Progress < closeGap {
			flavour = append(flavour,
				fmt.Sprintf("%s and %s are wheel to wheel!", leader.Name, second.Name))
		}
	}
	for _, f := range flavour {
		if len(ret) == maxCallouts {
			break
		}
		ret = append(ret, f)
	}
	return ret
}
