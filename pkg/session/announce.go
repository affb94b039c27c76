package session

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mpapenbr/racebet/pkg/model"
	"github.com/mpapenbr/racebet/pkg/simulator"
)

func (c *Controller) announceOpen(ctx context.Context, sess *Session) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Race at %s is open for entries (%s, fee %d).\n",
		sess.Track.Name, c.settings.EntryWindow, c.settings.EntryFee)
	if len(sess.roster) == 0 {
		b.WriteString("No eligible cars around. Bots will take the grid.")
		return b.String()
	}
	cars := make([]*model.Car, 0, len(sess.roster))
	for _, car := range sess.roster {
		cars = append(cars, car)
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].Name < cars[j].Name })
	b.WriteString("Eligible cars:")
	for _, car := range cars {
		fmt.Fprintf(b, "\n  %s (%s, %s)", car.Name, car.Tier, c.nick(ctx, car.OwnerID))
	}
	b.WriteString("\nEnter with !race enter <car>")
	return b.String()
}

func (c *Controller) announceField(sess *Session) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Field locked: %d cars (%d paid). Choose your strategy (%s):",
		len(sess.field), sess.paid, c.settings.StrategyWindow)
	for _, e := range sess.field {
		if e.IsBot() {
			fmt.Fprintf(b, "\n  %s [bot]", e.Name)
			continue
		}
		if e.TeamLabel != "" {
			fmt.Fprintf(b, "\n  %s [%s]", e.Name, e.TeamLabel)
		} else {
			fmt.Fprintf(b, "\n  %s", e.Name)
		}
	}
	b.WriteString("\n!race tire <soft|medium|hard>, !race mode <push|normal|save>")
	return b.String()
}

func (c *Controller) announceStart(sess *Session) string {
	names := make([]string, len(sess.field))
	for i, e := range sess.field {
		names[i] = fmt.Sprintf("%d. %s", i+1, e.Name)
	}
	return fmt.Sprintf("Lights out at %s! Prize pool %d (rake %d).\nGrid: %s",
		sess.Track.Name, sess.pool.Net, sess.pool.Rake, strings.Join(names, ", "))
}

func announceTurn(snap *simulator.LegSnapshot) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Leg %d/%d:", snap.Leg, snap.TotalLegs)
	for i, st := range snap.Standings {
		if i == 3 {
			break
		}
		fmt.Fprintf(b, " P%d %s", st.Position, st.Name)
	}
	for _, line := range snap.Callouts {
		fmt.Fprintf(b, "\n  %s", line)
	}
	return b.String()
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Controller) announceResult(
	ctx context.Context,
	sess *Session,
	res *simulator.Result,
	payouts []model.Payout,
) string {
	if len(res.Order) == 0 {
		return fmt.Sprintf("Race at %s finished without any cars.", sess.Track.Name)
	}
	b := &strings.Builder{}
	winner := res.Order[0]
	switch {
	case winner.Failed:
		fmt.Fprintf(b, "Race at %s finished without a car reaching the end.", sess.Track.Name)
	case winner.OwnerID != "":
		fmt.Fprintf(b, "%s wins at %s for %s!", winner.Name, sess.Track.Name,
			c.nick(ctx, winner.OwnerID))
	default:
		fmt.Fprintf(b, "%s wins at %s!", winner.Name, sess.Track.Name)
	}
	for _, st := range res.Order {
		if st.Failed {
			fmt.Fprintf(b, "\n  DNF %s (%s)", st.Name, st.Reason)
		} else {
			fmt.Fprintf(b, "\n  P%d %s", st.Position, st.Name)
		}
	}
	for _, p := range payouts {
		fmt.Fprintf(b, "\n  %s receives %d for P%d", c.nick(ctx, p.OwnerID), p.Amount, p.Position)
	}
	return b.String()
}
