package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/collab"
	"github.com/mpapenbr/racebet/pkg/command"
	"github.com/mpapenbr/racebet/pkg/model"
	"github.com/mpapenbr/racebet/pkg/simulator"
	"github.com/mpapenbr/racebet/pkg/track"
	"github.com/mpapenbr/racebet/pkg/utils/broadcast"
	"github.com/mpapenbr/racebet/pkg/utils/retry"
)

type (
	// Deps are the external collaborators of a controller.
	Deps struct {
		Wallet    collab.Wallet
		Garage    collab.Garage
		Presence  collab.Presence
		Nicknames collab.Nicknames
		Transport collab.Transport
	}
	Option func(*Controller)

	// Controller runs the race sessions of one room. At most one session
	// exists at a time.
	Controller struct {
		roomID    string
		settings  Settings
		catalog   *track.Catalog
		scheduler Scheduler
		rng       *rand.Rand
		retryOpts []retry.Option
		simOpts   []simulator.Option
		l         *log.Logger

		wallet    collab.Wallet
		garage    collab.Garage
		presence  collab.Presence
		nicknames collab.Nicknames
		transport collab.Transport

		events chan model.RaceEvent
		bcst   broadcast.BroadcastServer[model.RaceEvent]

		ctx    context.Context
		cancel context.CancelFunc
		wg     sync.WaitGroup

		mu     sync.Mutex
		phase  Phase
		sess   *Session
		closed bool
	}
)

func WithSettings(s Settings) Option {
	return func(c *Controller) {
		c.settings = s
	}
}

func WithCatalog(cat *track.Catalog) Option {
	return func(c *Controller) {
		c.catalog = cat
	}
}

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithSeed makes field assembly, grid and simulation reproducible.
func WithSeed(seed uint64) Option {
	return func(c *Controller) {
		c.rng = rand.New(rand.NewPCG(seed, seed+1))
	}
}

func WithRetryOptions(opts ...retry.Option) Option {
	return func(c *Controller) {
		c.retryOpts = opts
	}
}

// WithSimulatorOptions adds options applied after the ones derived from
// the settings.
func WithSimulatorOptions(opts ...simulator.Option) Option {
	return func(c *Controller) {
		c.simOpts = append(c.simOpts, opts...)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		c.l = l
	}
}

func New(roomID string, deps Deps, opts ...Option) (*Controller, error) {
	if deps.Wallet == nil || deps.Garage == nil || deps.Presence == nil ||
		deps.Nicknames == nil || deps.Transport == nil {
		return nil, ErrMissingDeps
	}
	now := uint64(time.Now().UnixNano())
	c := &Controller{
		roomID:    roomID,
		settings:  DefaultSettings(),
		catalog:   track.Default(),
		scheduler: realScheduler{},
		rng:       rand.New(rand.NewPCG(now, now>>3)),
		l:         log.Default().Named("session"),
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.settings.Validate(); err != nil {
		return nil, err
	}
	c.l = c.l.With(log.String("room", roomID))
	c.wallet = collab.ResilientWallet(deps.Wallet, c.retryOpts...)
	c.garage = collab.ResilientGarage(deps.Garage, c.retryOpts...)
	c.presence = collab.ResilientPresence(deps.Presence, c.retryOpts...)
	c.nicknames = collab.ResilientNicknames(deps.Nicknames, c.retryOpts...)
	c.transport = collab.ResilientTransport(deps.Transport, c.retryOpts...)

	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.events = make(chan model.RaceEvent, 16)
	c.bcst = broadcast.NewBroadcastServer(
		fmt.Sprintf("race.%s", roomID),
		c.events,
		broadcast.WithBuffer[model.RaceEvent](8),
		broadcast.WithLogger[model.RaceEvent](c.l.Named("broadcast")))
	return c, nil
}

func (c *Controller) RoomID() string {
	return c.roomID
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Catalog() *track.Catalog {
	return c.catalog
}

// Subscribe returns a channel receiving turn and finished events.
func (c *Controller) Subscribe() <-chan model.RaceEvent {
	return c.bcst.Subscribe()
}

func (c *Controller) Unsubscribe(ch <-chan model.RaceEvent) {
	c.bcst.CancelSubscription(ch)
}

// Close cancels pending timers and a running race. Entry fees of a field
// that was locked but never finished racing are refunded, a cancelled race
// pays no prizes.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.sess != nil {
		c.sess.cancelTimer()
		if c.phase == PhaseStrategy {
			c.refund(context.WithoutCancel(c.ctx), c.sess)
			c.reset()
		} else if c.phase == PhaseAccepting {
			c.reset()
		}
	}
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
	c.bcst.Close()
}

// Start opens a new session. trackName may be empty for a random track.
func (c *Controller) Start(ctx context.Context, playerID, trackName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.phase != PhaseIdle {
		return ErrSessionActive
	}
	var tr *model.Track
	if strings.TrimSpace(trackName) == "" {
		tr = c.catalog.Pick(c.rng)
	} else {
		var err error
		if tr, err = c.catalog.Get(trackName); err != nil {
			return &ValidationError{
				Msg: fmt.Sprintf("unknown track %q, available: %s",
					trackName, strings.Join(c.catalog.Names(), ", ")),
				Err: err,
			}
		}
	}
	sess := newSession(uuid.NewString(), c.roomID, tr)
	if err := c.loadRoster(ctx, sess); err != nil {
		c.l.Warn("could not load roster", log.ErrorField(err))
	}
	c.sess = sess
	c.phase = PhaseAccepting
	c.l.Info("session started",
		log.String("race", sess.ID),
		log.String("by", playerID),
		log.String("track", tr.Name),
		log.Int("roster", len(sess.roster)))
	c.post(ctx, c.announceOpen(ctx, sess))
	sess.timer = c.scheduler.AfterFunc(c.settings.EntryWindow, func() {
		c.lockField(c.ctx, sess)
	})
	return nil
}

func (c *Controller) loadRoster(ctx context.Context, sess *Session) error {
	present, err := c.presence.PresentPlayers(ctx, c.roomID)
	if err != nil {
		return err
	}
	if len(present) == 0 {
		return nil
	}
	cars, err := c.garage.ListCars(ctx, model.CarFilter{OwnerIDs: present})
	if err != nil {
		return err
	}
	for _, car := range cars {
		if car.Retired {
			continue
		}
		key := model.CarNameKey(car.Name)
		if _, dup := sess.roster[key]; dup {
			c.l.Warn("duplicate car name in roster", log.String("car", car.Name))
			continue
		}
		sess.roster[key] = car
	}
	return nil
}

// Enter registers a car for the current session. Unknown cars, cars of
// other players and repeated entries are ignored and report false.
func (c *Controller) Enter(ctx context.Context, playerID, carName string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseAccepting {
		return false, ErrWrongPhase
	}
	sess := c.sess
	car, ok := sess.roster[model.CarNameKey(carName)]
	if !ok || car.OwnerID != playerID || sess.enteredSet[car.ID] {
		c.l.Debug("entry ignored",
			log.String("player", playerID), log.String("car", carName))
		return false, nil
	}
	sess.enteredSet[car.ID] = true
	sess.entered = append(sess.entered, car.ID)
	c.l.Info("car entered", log.String("car", car.Name), log.String("owner", playerID))
	c.post(ctx, fmt.Sprintf("%s entered %s.", c.nick(ctx, playerID), car.Name))
	return true, nil
}

// ChooseTire records the tire choice of a player. The result tells
// whether the player has a car in the field.
func (c *Controller) ChooseTire(ctx context.Context, playerID string, t model.Tire) (bool, error) {
	return c.choose(ctx, playerID, func(s *model.Strategy) { s.Tire = t })
}

// ChooseMode records the power mode choice of a player.
func (c *Controller) ChooseMode(ctx context.Context, playerID string, m model.Mode) (bool, error) {
	return c.choose(ctx, playerID, func(s *model.Strategy) { s.Mode = m })
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Controller) choose(
	_ context.Context, playerID string, apply func(*model.Strategy),
) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseStrategy {
		return false, ErrWrongPhase
	}
	s := c.sess.choices[playerID]
	apply(&s)
	c.sess.choices[playerID] = s
	return c.sess.ownsEntrant(playerID), nil
}

// Handle parses a chat line and dispatches it. Replies go to the room.
//
//nolint:cyclop
func (c *Controller) Handle(ctx context.Context, playerID, line string) error {
	cmd, err := command.Parse(line)
	if errors.Is(err, command.ErrNotACommand) {
		return nil
	}
	var cve *command.ValidationError
	if errors.As(err, &cve) {
		c.post(ctx, cve.Msg)
		return err
	}
	if err != nil {
		return err
	}
	switch cmd.Kind {
	case command.KindStart:
		err = c.Start(ctx, playerID, cmd.Arg)
	case command.KindEnter:
		_, err = c.Enter(ctx, playerID, cmd.Arg)
	case command.KindTire:
		_, err = c.ChooseTire(ctx, playerID, cmd.Tire)
	case command.KindMode:
		_, err = c.ChooseMode(ctx, playerID, cmd.Mode)
	case command.KindStatus:
		c.post(ctx, c.Status())
	case command.KindTracks:
		c.post(ctx, "Tracks: "+strings.Join(c.catalog.Names(), ", "))
	case command.KindHelp:
		c.post(ctx, command.Help())
	}
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.post(ctx, ve.Msg)
	case errors.Is(err, ErrSessionActive), errors.Is(err, ErrWrongPhase):
		c.post(ctx, fmt.Sprintf("%s: %s (phase %s)", cmd.Kind, err, c.Phase()))
	}
	return err
}

// Status describes the current session.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return "No race in progress. Start one with !race"
	}
	switch c.phase {
	case PhaseAccepting:
		return fmt.Sprintf("Entries open for %s: %d of %d eligible cars entered.",
			c.sess.Track.Name, len(c.sess.entered), len(c.sess.roster))
	default:
		return fmt.Sprintf("Race at %s is in phase %s with %d cars.",
			c.sess.Track.Name, c.phase, len(c.sess.field))
	}
}

// reset discards the session. Caller holds the lock.
func (c *Controller) reset() {
	if c.sess != nil {
		c.sess.cancelTimer()
	}
	c.sess = nil
	c.phase = PhaseIdle
}

// current reports whether sess is still the active session in phase p.
// Caller holds the lock.
func (c *Controller) current(sess *Session, p Phase) bool {
	return !c.closed && c.sess == sess && c.phase == p
}

func (c *Controller) post(ctx context.Context, text string) {
	if text == "" {
		return
	}
	if err := c.transport.Post(ctx, c.roomID, text); err != nil {
		c.l.Warn("could not post message", log.ErrorField(err))
	}
}

func (c *Controller) nick(ctx context.Context, playerID string) string {
	name, err := c.nicknames.Resolve(ctx, playerID)
	if err != nil || name == "" {
		return playerID
	}
	return name
}

func (c *Controller) publish(ev model.RaceEvent) {
	select {
	case c.events <- ev:
	case <-time.After(time.Second):
		c.l.Warn("event dropped", log.String("kind", string(ev.Kind)))
	}
}
