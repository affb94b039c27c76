package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/field"
	"github.com/mpapenbr/racebet/pkg/model"
)

// lockField closes the entry window: charges the entry fee, drops cars
// that cannot pay and pads the field with bots.
//
//nolint:funlen
func (c *Controller) lockField(ctx context.Context, sess *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(sess, PhaseAccepting) {
		return
	}
	sess.timer = nil
	entered := sess.enteredCars()

	balances := map[string]int64{}
	for _, owner := range lo.Uniq(lo.Map(entered, func(car *model.Car, _ int) string {
		return car.OwnerID
	})) {
		bal, err := c.wallet.Balance(ctx, owner)
		if err != nil {
			c.l.Warn("could not read balance", log.String("player", owner), log.ErrorField(err))
			continue
		}
		balances[owner] = bal
	}

	res := field.Assemble(field.Input{
		Entered:   entered,
		Balances:  balances,
		EntryFee:  c.settings.EntryFee,
		MinField:  c.settings.MinField,
		UsedNames: sess.rosterNames(),
	}, c.rng)

	for _, rej := range res.Rejected {
		c.post(ctx, fmt.Sprintf("%s was dropped from the field: %s (entry fee %d).",
			rej.Car.Name, rej.Reason, c.settings.EntryFee))
	}

	owned := make([]*model.Entrant, 0, len(res.Accepted))
	teams := map[string]string{}
	for _, car := range res.Accepted {
		if err := c.wallet.Debit(ctx, car.OwnerID, c.settings.EntryFee); err != nil {
			c.l.Warn("entry fee not collected",
				log.String("car", car.Name), log.ErrorField(err))
			c.post(ctx, fmt.Sprintf("%s was dropped from the field: entry fee could not be collected.",
				car.Name))
			continue
		}
		e := model.NewOwnedEntrant(car)
		label, ok := teams[car.OwnerID]
		if !ok {
			label = c.teamLabel(ctx, car.OwnerID)
			teams[car.OwnerID] = label
		}
		e.TeamLabel = label
		owned = append(owned, e)
	}

	bots := res.Bots
	if missing := c.settings.MinField - len(owned) - len(bots); missing > 0 {
		used := append(sess.rosterNames(), lo.Map(bots, func(b *model.Entrant, _ int) string {
			return b.Name
		})...)
		bots = append(bots, field.Bots(missing, lo.Map(used, func(s string, _ int) string {
			return strings.ToLower(s)
		}), c.rng)...)
	}

	sess.field = append(owned, bots...)
	sess.paid = len(owned)
	c.phase = PhaseStrategy
	c.l.Info("field locked",
		log.String("race", sess.ID),
		log.Int("paid", sess.paid),
		log.Int("bots", len(bots)),
		log.Int("rejected", len(res.Rejected)))
	c.post(ctx, c.announceField(sess))
	sess.timer = c.scheduler.AfterFunc(c.settings.StrategyWindow, func() {
		c.startRace(c.ctx, sess)
	})
}

func (c *Controller) teamLabel(ctx context.Context, ownerID string) string {
	team, err := c.garage.Team(ctx, ownerID)
	if err != nil {
		c.l.Warn("could not load team", log.String("owner", ownerID), log.ErrorField(err))
		return ""
	}
	return team.Label()
}

// refund returns the entry fees of a locked field. Caller holds the lock.
func (c *Controller) refund(ctx context.Context, sess *Session) {
	for _, e := range sess.field {
		o, ok := model.OwnerOf(e.Origin)
		if !ok {
			continue
		}
		if err := c.wallet.Credit(ctx, o.OwnerID, c.settings.EntryFee); err != nil {
			c.l.Error("refund failed",
				log.String("player", o.OwnerID),
				log.Int64("amount", c.settings.EntryFee),
				log.ErrorField(err))
		}
	}
}
