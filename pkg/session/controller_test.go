//nolint:thelper,funlen,lll // ok for tests
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/economy"
	"github.com/mpapenbr/racebet/pkg/model"
	"github.com/mpapenbr/racebet/pkg/simulator"
	"github.com/mpapenbr/racebet/pkg/utils/retry"
	"github.com/mpapenbr/racebet/testsupport/fakes"
)

type fixture struct {
	c         *Controller
	sched     *manualScheduler
	wallet    *fakes.Wallet
	garage    *fakes.Garage
	transport *fakes.Transport
}

func testSettings() Settings {
	s := DefaultSettings()
	s.LegDelay = 0
	s.MaxRaceDuration = 10 * time.Second
	return s
}

func sampleCars(n int) []*model.Car {
	ret := make([]*model.Car, 0, n)
	for i := 1; i <= n; i++ {
		ret = append(ret, &model.Car{
			ID:      int64(i),
			Name:    fmt.Sprintf("Car %d", i),
			OwnerID: fmt.Sprintf("p%d", i),
			Stats:   model.Stats{Power: 70, Handling: 70, Aero: 70, Reliability: 90, TireGrip: 70},
			Tier:    "pro",
		})
	}
	return ret
}

func newFixture(t *testing.T, cars []*model.Car, balances map[string]int64) *fixture {
	return newFixtureWith(t, cars, balances, testSettings())
}

//nolint:whitespace // can't make both editor and linter happy
func newFixtureWith(
	t *testing.T,
	cars []*model.Car,
	balances map[string]int64,
	settings Settings,
	opts ...Option,
) *fixture {
	players := make([]string, 0, len(cars))
	names := map[string]string{}
	for _, c := range cars {
		players = append(players, c.OwnerID)
		names[c.OwnerID] = "Nick " + c.OwnerID
	}
	f := &fixture{
		sched:     &manualScheduler{},
		wallet:    fakes.NewWallet(balances),
		garage:    fakes.NewGarage(cars, &model.Team{OwnerID: "p1", Name: "Falcons", Badge: "[F]"}),
		transport: &fakes.Transport{},
	}
	c, err := New("room1", Deps{
		Wallet:    f.wallet,
		Garage:    f.garage,
		Presence:  &fakes.Presence{Players: players},
		Nicknames: &fakes.Nicknames{Names: names},
		Transport: f.transport,
	},
		append([]Option{
			WithSettings(settings),
			WithScheduler(f.sched),
			WithSeed(1234),
			WithLogger(log.NewNop()),
			WithRetryOptions(retry.WithDelay(time.Millisecond), retry.WithLogger(log.NewNop())),
		}, opts...)...,
	)
	assert.NoError(t, err)
	f.c = c
	t.Cleanup(c.Close)
	return f
}

func richBalances(n int) map[string]int64 {
	ret := map[string]int64{}
	for i := 1; i <= n; i++ {
		ret[fmt.Sprintf("p%d", i)] = 5000
	}
	return ret
}

func waitFinished(t *testing.T, ch <-chan model.RaceEvent) (turns []model.RaceEvent, finished model.RaceEvent) {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatal("event channel closed")
			}
			if ev.Kind == model.EventFinished {
				return turns, ev
			}
			turns = append(turns, ev)
		case <-timeout:
			t.Fatal("timeout waiting for finished event")
		}
	}
}

func (f *fixture) sessionField() []*model.Entrant {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	return append([]*model.Entrant(nil), f.c.sess.field...)
}

func TestNew_MissingDeps(t *testing.T) {
	_, err := New("room", Deps{})
	assert.True(t, errors.Is(err, ErrMissingDeps))
}

func TestStart_RejectedWhileActive(t *testing.T) {
	f := newFixture(t, sampleCars(2), richBalances(2))
	ctx := context.Background()
	assert.NoError(t, f.c.Start(ctx, "p1", "Monza"))
	assert.Equal(t, PhaseAccepting, f.c.Phase())
	first := f.c.sess
	assert.Len(t, first.roster, 2)
	assert.Equal(t, []time.Duration{60 * time.Second}, f.sched.pending())

	err := f.c.Start(ctx, "p2", "Spa")
	assert.True(t, errors.Is(err, ErrSessionActive))
	assert.Same(t, first, f.c.sess)
	assert.Equal(t, "Monza", f.c.sess.Track.Name)
	assert.Len(t, f.sched.pending(), 1)
}

func TestStart_UnknownTrack(t *testing.T) {
	f := newFixture(t, sampleCars(1), richBalances(1))
	err := f.c.Start(context.Background(), "p1", "Atlantis")
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, PhaseIdle, f.c.Phase())
	assert.Empty(t, f.sched.pending())
}

func TestStart_RosterExcludesRetiredAndAbsent(t *testing.T) {
	cars := sampleCars(3)
	cars[1].Retired = true
	f := newFixture(t, cars, richBalances(3))
	f.c.presence = &fakes.Presence{Players: []string{"p1", "p2"}}
	assert.NoError(t, f.c.Start(context.Background(), "p1", ""))
	assert.Len(t, f.c.sess.roster, 1)
	assert.Contains(t, f.c.sess.roster, "car 1")
}

func TestEnter(t *testing.T) {
	f := newFixture(t, sampleCars(2), richBalances(2))
	ctx := context.Background()

	_, err := f.c.Enter(ctx, "p1", "Car 1")
	assert.True(t, errors.Is(err, ErrWrongPhase))

	assert.NoError(t, f.c.Start(ctx, "p1", ""))
	ok, err := f.c.Enter(ctx, "p1", "  car 1 ")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.c.Enter(ctx, "p1", "CAR 1")
	assert.NoError(t, err)
	assert.False(t, ok, "second entry is a no-op")

	ok, err = f.c.Enter(ctx, "p1", "Car 2")
	assert.NoError(t, err)
	assert.False(t, ok, "not the owner")

	ok, err = f.c.Enter(ctx, "p2", "Car 99")
	assert.NoError(t, err)
	assert.False(t, ok, "unknown car")

	assert.Equal(t, []int64{1}, f.c.sess.entered)
}

func TestLockField_FeesAndBots(t *testing.T) {
	f := newFixture(t, sampleCars(3), map[string]int64{"p1": 5000, "p2": 100, "p3": 5000})
	ctx := context.Background()
	assert.NoError(t, f.c.Start(ctx, "p1", ""))
	for _, p := range []string{"p1", "p2", "p3"} {
		_, _ = f.c.Enter(ctx, p, "Car "+strings.TrimPrefix(p, "p"))
	}
	f.wallet.FailFor["p3"] = true

	assert.True(t, f.sched.fire())
	assert.Equal(t, PhaseStrategy, f.c.Phase())
	assert.Equal(t, []time.Duration{30 * time.Second}, f.sched.pending())

	fld := f.sessionField()
	assert.Len(t, fld, 6)
	assert.Equal(t, "Car 1", fld[0].Name)
	assert.Equal(t, "[F] Falcons", fld[0].TeamLabel)
	bots := 0
	for _, e := range fld {
		if e.IsBot() {
			bots++
		}
	}
	assert.Equal(t, 5, bots)
	assert.Equal(t, 1, f.c.sess.paid)

	assert.Equal(t, 1, f.wallet.DebitCount())
	assert.Equal(t, int64(3000), f.wallet.BalanceOf("p1"))
	assert.Equal(t, int64(100), f.wallet.BalanceOf("p2"))

	msgs := strings.Join(f.transport.All(), "\n")
	assert.Contains(t, msgs, "Car 2 was dropped from the field: insufficient funds")
	assert.Contains(t, msgs, "Car 3 was dropped from the field: wallet unavailable")

	_, err := f.c.Enter(ctx, "p1", "Car 1")
	assert.True(t, errors.Is(err, ErrWrongPhase))
}

func TestChooseStrategy(t *testing.T) {
	f := newFixture(t, sampleCars(2), richBalances(2))
	ctx := context.Background()
	_, err := f.c.ChooseTire(ctx, "p1", model.TireSoft)
	assert.True(t, errors.Is(err, ErrWrongPhase))

	assert.NoError(t, f.c.Start(ctx, "p1", ""))
	_, _ = f.c.Enter(ctx, "p1", "Car 1")
	f.sched.fire()

	inField, err := f.c.ChooseTire(ctx, "p1", model.TireHard)
	assert.NoError(t, err)
	assert.True(t, inField)
	_, _ = f.c.ChooseTire(ctx, "p1", model.TireSoft)
	_, _ = f.c.ChooseMode(ctx, "p1", model.ModePush)

	inField, err = f.c.ChooseMode(ctx, "p2", model.ModeSave)
	assert.NoError(t, err)
	assert.False(t, inField)
	assert.Equal(t, model.Strategy{Tire: model.TireSoft, Mode: model.ModePush}, f.c.sess.choices["p1"])
}

func TestFullRace_SixPaidEntrants(t *testing.T) {
	f := newFixture(t, sampleCars(6), richBalances(6))
	ctx := context.Background()
	events := f.c.Subscribe()

	assert.NoError(t, f.c.Start(ctx, "p1", "Silverstone"))
	for i := 1; i <= 6; i++ {
		ok, err := f.c.Enter(ctx, fmt.Sprintf("p%d", i), fmt.Sprintf("Car %d", i))
		assert.NoError(t, err)
		assert.True(t, ok)
	}
	f.sched.fire()
	assert.Equal(t, 6, f.c.sess.paid)
	_, _ = f.c.ChooseTire(ctx, "p1", model.TireSoft)
	_, _ = f.c.ChooseMode(ctx, "p1", model.ModePush)
	f.sched.fire()

	turns, fin := waitFinished(t, events)
	assert.Equal(t, PhaseIdle, f.c.Phase())
	assert.NotEmpty(t, turns)
	for _, ev := range turns {
		assert.Equal(t, model.EventTurn, ev.Kind)
		assert.Len(t, ev.Standings, 6)
		assert.LessOrEqual(t, len(ev.Callouts), 2)
	}

	assert.Equal(t, &model.PoolInfo{Gross: 12000, Rake: 1800, Net: 10200}, fin.Pool)
	assert.Equal(t, "Silverstone", fin.Track)
	amounts := make([]int64, 0, len(fin.Payouts))
	for i, p := range fin.Payouts {
		assert.Equal(t, i+1, p.Position)
		assert.Equal(t, fin.Standings[i].OwnerID, p.OwnerID)
		assert.Equal(t, []int64{p.Amount}, f.wallet.Credits[p.OwnerID])
		amounts = append(amounts, p.Amount)
	}
	assert.Equal(t, []int64{4590, 2550, 1530, 1020, 510}, amounts)

	assert.Equal(t, 6, f.wallet.DebitCount())
	winners := 0
	for i := int64(1); i <= 6; i++ {
		upd := f.garage.Updates[i]
		assert.Len(t, upd, 1, "car %d", i)
		if upd[0].Won {
			winners++
		}
		assert.Equal(t, 1, f.garage.Car(i).Races)
	}
	assert.LessOrEqual(t, winners, 1)

	p1 := f.garage.Updates[1][0].WearDelta
	assert.Contains(t, []float64{7, 11}, p1, "soft+push wear")
	p2 := f.garage.Updates[2][0].WearDelta
	assert.Contains(t, []float64{5, 9}, p2, "default strategy wear")

	// a new session can be started afterwards
	assert.NoError(t, f.c.Start(ctx, "p2", ""))
}

func TestFullRace_BotsOnly(t *testing.T) {
	f := newFixture(t, sampleCars(2), richBalances(2))
	ctx := context.Background()
	events := f.c.Subscribe()
	assert.NoError(t, f.c.Start(ctx, "p1", ""))
	f.sched.fire()
	assert.Len(t, f.sessionField(), 6)
	f.sched.fire()

	_, fin := waitFinished(t, events)
	assert.Equal(t, &model.PoolInfo{}, fin.Pool)
	assert.Empty(t, fin.Payouts)
	for _, st := range fin.Standings {
		assert.True(t, st.Bot)
	}
	assert.Equal(t, 0, f.wallet.DebitCount())
	assert.Empty(t, f.wallet.Credits)
	assert.Empty(t, f.garage.Updates)
}

func TestClose_RefundsLockedField(t *testing.T) {
	f := newFixture(t, sampleCars(1), richBalances(1))
	ctx := context.Background()
	assert.NoError(t, f.c.Start(ctx, "p1", ""))
	_, _ = f.c.Enter(ctx, "p1", "Car 1")
	f.sched.fire()
	assert.Equal(t, int64(3000), f.wallet.BalanceOf("p1"))

	f.c.Close()
	assert.Equal(t, int64(5000), f.wallet.BalanceOf("p1"))
	assert.Equal(t, PhaseIdle, f.c.Phase())
	assert.Empty(t, f.sched.pending())
	assert.False(t, f.sched.fire())
	assert.True(t, errors.Is(f.c.Start(ctx, "p1", ""), ErrClosed))
}

// enterAll starts a session, enters car i for player i and locks the field.
func (f *fixture) enterAll(t *testing.T, n int) {
	ctx := context.Background()
	assert.NoError(t, f.c.Start(ctx, "p1", "Monza"))
	for i := 1; i <= n; i++ {
		ok, err := f.c.Enter(ctx, fmt.Sprintf("p%d", i), fmt.Sprintf("Car %d", i))
		assert.NoError(t, err)
		assert.True(t, ok)
	}
	f.sched.fire()
	assert.Equal(t, PhaseStrategy, f.c.Phase())
}

func TestMaxRaceDuration_SettlesPartialOrder(t *testing.T) {
	settings := testSettings()
	settings.LegDelay = time.Hour
	settings.MaxRaceDuration = 100 * time.Millisecond
	f := newFixtureWith(t, sampleCars(6), richBalances(6), settings)
	events := f.c.Subscribe()
	f.enterAll(t, 6)
	f.sched.fire()

	turns, fin := waitFinished(t, events)
	assert.Equal(t, PhaseIdle, f.c.Phase())
	assert.Len(t, turns, 1)
	assert.Equal(t, 1, turns[0].Leg)
	assert.Equal(t, turns[0].Standings, fin.Standings)

	want := economy.Distribute(
		economy.ComputePool(settings.EntryFee, 6, settings.RakePct),
		settings.PayoutTable,
		fin.Standings)
	assert.Equal(t, want, fin.Payouts)
	assert.Len(t, fin.Payouts, 5)
	for _, p := range fin.Payouts {
		assert.Equal(t, []int64{p.Amount}, f.wallet.Credits[p.OwnerID])
		assert.Equal(t, 3000+p.Amount, f.wallet.BalanceOf(p.OwnerID))
	}
	for i := int64(1); i <= 6; i++ {
		assert.Len(t, f.garage.Updates[i], 1, "car %d", i)
	}
}

func TestSimulatorError_RefundsFees(t *testing.T) {
	flooded := errors.New("track flooded")
	f := newFixtureWith(t, sampleCars(3), richBalances(3), testSettings(),
		WithSimulatorOptions(simulator.WithSleep(
			func(context.Context, time.Duration) error { return flooded })))
	f.enterAll(t, 3)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, int64(3000), f.wallet.BalanceOf(fmt.Sprintf("p%d", i)))
	}
	f.sched.fire()

	assert.Eventually(t, func() bool { return f.c.Phase() == PhaseIdle },
		3*time.Second, 10*time.Millisecond)
	for i := 1; i <= 3; i++ {
		p := fmt.Sprintf("p%d", i)
		assert.Equal(t, int64(5000), f.wallet.BalanceOf(p), p)
		assert.Equal(t, []int64{2000}, f.wallet.Credits[p], p)
	}
	assert.Empty(t, f.garage.Updates)
	assert.Eventually(t, func() bool {
		return strings.Contains(strings.Join(f.transport.All(), "\n"), "entry fees were refunded")
	}, time.Second, 10*time.Millisecond)
}

func TestClose_CancelsRunningRaceAndRefunds(t *testing.T) {
	settings := testSettings()
	settings.LegDelay = time.Hour
	settings.MaxRaceDuration = time.Hour
	f := newFixtureWith(t, sampleCars(2), richBalances(2), settings)
	events := f.c.Subscribe()
	f.enterAll(t, 2)
	f.sched.fire()

	select {
	case ev := <-events:
		assert.Equal(t, model.EventTurn, ev.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for the first leg")
	}
	assert.Equal(t, PhaseRunning, f.c.Phase())

	f.c.Close()
	assert.Equal(t, PhaseIdle, f.c.Phase())
	for _, p := range []string{"p1", "p2"} {
		assert.Equal(t, int64(5000), f.wallet.BalanceOf(p), p)
		assert.Equal(t, []int64{2000}, f.wallet.Credits[p], p)
	}
	assert.Empty(t, f.garage.Updates)
}

func TestSettle_ReleasesLockBeforePublishing(t *testing.T) {
	settings := testSettings()
	settings.Legs = 1
	f := newFixtureWith(t, sampleCars(1), richBalances(1), settings)
	f.enterAll(t, 1)
	// nobody reads this channel until the phase is back to idle
	stalled := make(chan model.RaceEvent)
	f.c.events = stalled
	f.sched.fire()

	assert.Eventually(t, func() bool { return f.c.Phase() == PhaseIdle },
		3*time.Second, 10*time.Millisecond)
	select {
	case ev := <-stalled:
		assert.Equal(t, model.EventFinished, ev.Kind)
		assert.Len(t, ev.Standings, 6)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("finished event was not pending after settling")
	}
}

func TestAnnounceResult_NoWinnerWhenLeaderFailed(t *testing.T) {
	f := newFixture(t, sampleCars(2), richBalances(2))
	sess := &Session{Track: &model.Track{Name: "Monza"}}
	res := &simulator.Result{Order: []model.Standing{
		{Position: 1, Name: "Car 1", OwnerID: "p1", Failed: true, Reason: "engine"},
		{Position: 2, Name: "Car 2", OwnerID: "p2", Failed: true, Reason: "gearbox"},
	}}
	text := f.c.announceResult(context.Background(), sess, res, nil)
	assert.NotContains(t, text, "wins")
	assert.Contains(t, text, "Race at Monza finished without a car reaching the end.")
	assert.Contains(t, text, "DNF Car 1 (engine)")

	res.Order[0].Failed = false
	text = f.c.announceResult(context.Background(), sess, res, nil)
	assert.Contains(t, text, "Car 1 wins at Monza for Nick p1!")
}

func TestHandle(t *testing.T) {
	f := newFixture(t, sampleCars(1), richBalances(1))
	ctx := context.Background()

	assert.NoError(t, f.c.Handle(ctx, "p1", "just chatting"))
	assert.Empty(t, f.transport.All())

	assert.Error(t, f.c.Handle(ctx, "p1", "!race tire wet"))
	assert.Contains(t, f.transport.All()[0], "unknown tire")

	assert.Error(t, f.c.Handle(ctx, "p1", "!race start Atlantis"))
	assert.Contains(t, f.transport.All()[1], "unknown track")

	assert.NoError(t, f.c.Handle(ctx, "p1", "!race start Monaco"))
	assert.Equal(t, PhaseAccepting, f.c.Phase())
	assert.NoError(t, f.c.Handle(ctx, "p1", "!race enter car 1"))
	assert.Equal(t, []int64{1}, f.c.sess.entered)

	err := f.c.Handle(ctx, "p1", "!race")
	assert.True(t, errors.Is(err, ErrSessionActive))

	assert.NoError(t, f.c.Handle(ctx, "p1", "!race status"))
	msgs := f.transport.All()
	assert.Contains(t, msgs[len(msgs)-1], "1 of 1 eligible cars entered")
}

func TestSignature(t *testing.T) {
	a := []model.Standing{{Name: "a", Progress: 0.101}, {Name: "b", Progress: 0.094}}
	b := []model.Standing{{Name: "a", Progress: 0.099}, {Name: "b", Progress: 0.086}}
	assert.Equal(t, signature(a), signature(b))
	b[1].Failed = true
	assert.NotEqual(t, signature(a), signature(b))
}

func TestWearDelta(t *testing.T) {
	e := &model.Entrant{Strategy: model.Strategy{Tire: model.TireHard, Mode: model.ModeSave}}
	assert.Equal(t, 3.0, wearDelta(e, false))
	assert.Equal(t, 7.0, wearDelta(e, true))
	e.Strategy = model.Strategy{Tire: model.TireSoft, Mode: model.ModePush}
	assert.Equal(t, 7.0, wearDelta(e, false))
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	assert.NoError(t, s.Validate())
	s.PayoutTable = []int64{90, 20}
	assert.True(t, errors.Is(s.Validate(), ErrInvalidSettings))
	s = DefaultSettings()
	s.Legs = 0
	assert.True(t, errors.Is(s.Validate(), ErrInvalidSettings))
}
