package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/model"
)

var (
	ErrInvariantViolation = errors.New("simulation invariant violated")
	ErrAborted            = errors.New("race aborted")
	ErrNoTrack            = errors.New("no track given")
)

type (
	// LegSnapshot is handed to the emitter after every leg.
	LegSnapshot struct {
		Leg       int // 1-based
		TotalLegs int
		Standings []model.Standing
		Callouts  []string
	}
	// Result holds the finish order and the leg by leg progress.
	Result struct {
		Order   []model.Standing
		LegsRun int
		// History[leg][i] is the progress of the i-th field entrant after leg
		History [][]float64
		Aborted bool
	}
	EmitFunc  func(ctx context.Context, snap *LegSnapshot)
	SleepFunc func(ctx context.Context, d time.Duration) error
	Option    func(*Simulator)

	Simulator struct {
		legs     int
		legDelay time.Duration
		rng      *rand.Rand
		emit     EmitFunc
		sleep    SleepFunc
		l        *log.Logger
	}
)

func New(opts ...Option) *Simulator {
	now := uint64(time.Now().UnixNano())
	ret := &Simulator{
		legs:  DefaultLegs,
		rng:   rand.New(rand.NewPCG(now, now>>1)),
		emit:  func(context.Context, *LegSnapshot) {},
		sleep: sleepContext,
		l:     log.Default().Named("simulator"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithLegs(legs int) Option {
	return func(s *Simulator) {
		if legs > 0 {
			s.legs = legs
		}
	}
}

func WithLegDelay(d time.Duration) Option {
	return func(s *Simulator) {
		s.legDelay = d
	}
}

// WithRand injects the random source. Runs with equally seeded sources
// and identical input produce identical results.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulator) {
		s.rng = rng
	}
}

func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func WithEmitter(emit EmitFunc) Option {
	return func(s *Simulator) {
		s.emit = emit
	}
}

func WithSleep(sleep SleepFunc) Option {
	return func(s *Simulator) {
		s.sleep = sleep
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) {
		s.l = l
	}
}

func (s *Simulator) Legs() int {
	return s.legs
}

// Run simulates a race of field on track. It blocks until the race is over,
// including the delays between legs. If ctx is done before the last leg the
// result reached so far is returned together with ErrAborted.
//
//nolint:funlen,cyclop
func (s *Simulator) Run(
	ctx context.Context,
	field []*model.Entrant,
	track *model.Track,
) (*Result, error) {
	if track == nil {
		return nil, ErrNoTrack
	}
	runners := make([]*runner, len(field))
	for i, e := range field {
		runners[i] = &runner{idx: i, entrant: e}
	}
	res := &Result{History: make([][]float64, 0, s.legs)}
	if len(runners) == 0 {
		res.Order = []model.Standing{}
		return res, nil
	}

	failures := 0
	prevLeader := ""
	for leg := 0; leg < s.legs; leg++ {
		if err := ctx.Err(); err != nil {
			res.Aborted = true
			res.Order = rank(runners)
			return res, fmt.Errorf("%w after %d legs: %w", ErrAborted, res.LegsRun, err)
		}
		avg := averageProgress(runners)
		newFailures := make([]*runner, 0)
		for _, r := range runners {
			if r.state.Failed {
				continue
			}
			if err := s.advance(r, track, leg, avg); err != nil {
				return nil, err
			}
			if leg >= firstFailureLeg && s.rng.Float64() < FailureProbability(r.entrant, track) {
				failures++
				r.state.Failed = true
				r.state.FailedAtLeg = leg + 1
				r.state.FailureReason = failureCauses[s.rng.IntN(len(failureCauses))]
				r.failOrder = failures
				newFailures = append(newFailures, r)
			}
		}
		res.LegsRun = leg + 1
		res.History = append(res.History, progressOf(runners))

		standings := rank(runners)
		snap := &LegSnapshot{
			Leg:       leg + 1,
			TotalLegs: s.legs,
			Standings: standings,
			Callouts:  callouts(leg+1, s.legs, prevLeader, standings, newFailures),
		}
		prevLeader = standings[0].Name
		s.l.Debug("leg done",
			log.Int("leg", snap.Leg),
			log.String("leader", prevLeader),
			log.Int("failures", failures))
		s.emit(ctx, snap)

		if activeCount(runners) <= 1 || leg == s.legs-1 {
			break
		}
		if err := s.sleep(ctx, s.legDelay); err != nil {
			res.Aborted = true
			res.Order = rank(runners)
			return res, fmt.Errorf("%w after %d legs: %w", ErrAborted, res.LegsRun, err)
		}
	}
	res.Order = rank(runners)
	return res, nil
}

func (s *Simulator) advance(r *runner, track *model.Track, leg int, avg float64) error {
	pace := PaceScalar(r.entrant, track, leg)
	raw := baseIncrement(s.legs) * pace * (1 + s.rng.NormFloat64()*noiseStdDev)
	delta := momentumPrev*r.state.LastDelta + momentumRaw*max(0, raw)
	delta *= bandingFactorFor(r.state.Progress, avg)

	next := min(1, r.state.Progress+delta)
	if next < r.state.Progress || next < 0 || next > 1 {
		s.l.Error("progress out of range",
			log.String("entrant", r.entrant.Name),
			log.Float64("prev", r.state.Progress),
			log.Float64("next", next))
		return fmt.Errorf("%w: progress of %s went from %f to %f",
			ErrInvariantViolation, r.entrant.Name, r.state.Progress, next)
	}
	r.state.Progress = next
	r.state.LastDelta = delta
	return nil
}

func averageProgress(runners []*runner) float64 {
	sum := 0.0
	for _, r := range runners {
		sum += r.state.Progress
	}
	return sum / float64(len(runners))
}

func activeCount(runners []*runner) int {
	n := 0
	for _, r := range runners {
		if !r.state.Failed {
			n++
		}
	}
	return n
}

func progressOf(runners []*runner) []float64 {
	ret := make([]float64, len(runners))
	for i, r := range runners {
		ret[i] = r.state.Progress
	}
	return ret
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
