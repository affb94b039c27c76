package session

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/economy"
	"github.com/mpapenbr/racebet/pkg/field"
	"github.com/mpapenbr/racebet/pkg/model"
	"github.com/mpapenbr/racebet/pkg/simulator"
)

const (
	wearBase  = 3.0
	wearOnDNF = 4.0
)

var (
	wearByTire = map[model.Tire]float64{
		model.TireSoft: 2, model.TireMedium: 1, model.TireHard: 0,
	}
	wearByMode = map[model.Mode]float64{
		model.ModePush: 2, model.ModeNormal: 1, model.ModeSave: 0,
	}
)

// startRace closes the strategy window and launches the leg loop.
func (c *Controller) startRace(ctx context.Context, sess *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(sess, PhaseStrategy) {
		return
	}
	sess.timer = nil
	for _, e := range sess.field {
		if o, ok := model.OwnerOf(e.Origin); ok {
			if s, chosen := sess.choices[o.OwnerID]; chosen {
				e.Strategy = s.WithDefaults()
			}
		}
	}
	sess.field = field.StartingOrder(sess.field, c.rng)
	sess.pool = economy.ComputePool(c.settings.EntryFee, sess.paid, c.settings.RakePct)
	c.phase = PhaseRunning
	c.l.Info("race started",
		log.String("race", sess.ID),
		log.String("track", sess.Track.Name),
		log.Int("field", len(sess.field)),
		log.Int64("net", sess.pool.Net))
	c.post(ctx, c.announceStart(sess))

	sim := simulator.New(
		append([]simulator.Option{
			simulator.WithLegs(c.settings.Legs),
			simulator.WithLegDelay(c.settings.LegDelay),
			simulator.WithRand(c.simRand()),
			simulator.WithEmitter(c.turnEmitter(sess)),
			simulator.WithLogger(c.l.Named("simulator")),
		}, c.simOpts...)...,
	)
	fieldCopy := append([]*model.Entrant(nil), sess.field...)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runRace(sess, sim, fieldCopy)
	}()
}

func (c *Controller) runRace(sess *Session, sim *simulator.Simulator, entrants []*model.Entrant) {
	ctx, cancel := context.WithTimeout(c.ctx, c.settings.MaxRaceDuration)
	defer cancel()
	res, err := sim.Run(ctx, entrants, sess.Track)
	switch {
	case err == nil:
	case errors.Is(err, simulator.ErrAborted) && errors.Is(err, context.DeadlineExceeded):
		// the max race duration is over, the order reached so far counts
		c.l.Warn("race cut short", log.String("race", sess.ID), log.ErrorField(err))
	case errors.Is(err, context.Canceled):
		c.l.Warn("race cancelled", log.String("race", sess.ID), log.ErrorField(err))
		res = nil
	default:
		c.l.Error("race failed", log.String("race", sess.ID), log.ErrorField(err))
		res = nil
	}
	c.settle(sess, res)
}

// settle pays out, updates the garage and returns to idle. A nil result
// means the race did not produce a valid order, in this case entry fees
// are refunded. Chat messages and the finished event are sent after the
// lock is released.
func (c *Controller) settle(sess *Session, res *simulator.Result) {
	ctx := context.WithoutCancel(c.ctx)
	text, finished := c.settleLocked(ctx, sess, res)
	c.post(ctx, text)
	if finished != nil {
		c.publish(*finished)
	}
}

//nolint:funlen,whitespace
func (c *Controller) settleLocked(
	ctx context.Context, sess *Session, res *simulator.Result,
) (string, *model.RaceEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != sess || c.phase != PhaseRunning {
		return "", nil
	}
	c.phase = PhaseSettling

	if res == nil {
		c.refund(ctx, sess)
		c.reset()
		return "The race had to be abandoned, entry fees were refunded.", nil
	}

	payouts := economy.Distribute(sess.pool, c.settings.PayoutTable, res.Order)
	for _, p := range payouts {
		if err := c.wallet.Credit(ctx, p.OwnerID, p.Amount); err != nil {
			c.l.Warn("payout skipped",
				log.String("player", p.OwnerID),
				log.Int64("amount", p.Amount),
				log.ErrorField(err))
		}
	}
	for _, st := range res.Order {
		if st.Bot || st.CarID == 0 {
			continue
		}
		upd := model.RaceUpdate{
			Won:       st.Position == 1 && !st.Failed,
			WearDelta: wearDelta(sess.entrantByCarID(st.CarID), st.Failed),
		}
		if err := c.garage.UpdateCarAfterRace(ctx, st.CarID, upd); err != nil {
			c.l.Warn("car update skipped",
				log.Int64("car", st.CarID), log.ErrorField(err))
		}
	}
	c.l.Info("race settled",
		log.String("race", sess.ID),
		log.Int("legs", res.LegsRun),
		log.Int("payouts", len(payouts)),
		log.Int64("rake", sess.pool.Rake))
	text := c.announceResult(ctx, sess, res, payouts)

	finished := &model.RaceEvent{
		Kind:      model.EventFinished,
		RoomID:    sess.RoomID,
		RaceID:    sess.ID,
		Track:     sess.Track.Name,
		TotalLegs: c.settings.Legs,
		Standings: res.Order,
		Payouts:   payouts,
		Pool:      sess.pool.Info(),
	}
	c.reset()
	return text, finished
}

func wearDelta(e *model.Entrant, failed bool) float64 {
	d := wearBase
	if e != nil {
		d += wearByTire[e.Strategy.Tire] + wearByMode[e.Strategy.Mode]
	}
	if failed {
		d += wearOnDNF
	}
	return d
}

// turnEmitter publishes a turn event unless the snapshot shows nothing new.
func (c *Controller) turnEmitter(sess *Session) simulator.EmitFunc {
	return func(ctx context.Context, snap *simulator.LegSnapshot) {
		sig := signature(snap.Standings)
		if sig == sess.lastSignature && len(snap.Callouts) == 0 {
			c.l.Debug("turn suppressed", log.Int("leg", snap.Leg))
			return
		}
		sess.lastSignature = sig
		c.publish(model.RaceEvent{
			Kind:      model.EventTurn,
			RoomID:    sess.RoomID,
			RaceID:    sess.ID,
			Track:     sess.Track.Name,
			Leg:       snap.Leg,
			TotalLegs: snap.TotalLegs,
			Standings: snap.Standings,
			Callouts:  snap.Callouts,
		})
		c.post(ctx, announceTurn(snap))
	}
}

// simRand derives the simulator source from the controller source.
// Caller holds the lock.
func (c *Controller) simRand() *rand.Rand {
	return rand.New(rand.NewPCG(c.rng.Uint64(), c.rng.Uint64()))
}
