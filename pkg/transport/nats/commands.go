package nats

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/racebet/log"
)

type (
	// Handler processes a chat line of a player.
	Handler interface {
		Handle(ctx context.Context, playerID, line string) error
	}
	// Seen is notified about every player that sent a line.
	Seen interface {
		Join(ctx context.Context, roomID, playerID string) error
	}

	CommandListener struct {
		conn    *nats.Conn
		roomID  string
		handler Handler
		seen    Seen
		cfg     *config
	}
)

func NewCommandListener(
	conn *nats.Conn, roomID string, handler Handler, opts ...Option,
) *CommandListener {
	return &CommandListener{
		conn:    conn,
		roomID:  roomID,
		handler: handler,
		cfg:     newConfig("nats.commands", opts),
	}
}

// WithPresence marks senders present before their line is handled.
func (c *CommandListener) WithPresence(seen Seen) *CommandListener {
	c.seen = seen
	return c
}

// Run consumes chat lines until ctx is done. Lines are handled one at a
// time in arrival order.
func (c *CommandListener) Run(ctx context.Context) error {
	ch := make(chan *nats.Msg, 64)
	subj := commandsSubject(c.cfg.prefix, c.roomID)
	sub, err := c.conn.ChanSubscribe(subj, ch)
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			c.cfg.l.Debug("error unsubscribing", log.String("sub", subj), log.ErrorField(err))
		}
	}()
	c.cfg.l.Info("listening for commands", log.String("subject", subj))
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			c.dispatch(ctx, msg)
		}
	}
}

func (c *CommandListener) dispatch(ctx context.Context, msg *nats.Msg) {
	var line ChatLine
	if err := json.Unmarshal(msg.Data, &line); err != nil {
		c.cfg.l.Warn("invalid chat line", log.ErrorField(err))
		return
	}
	if line.PlayerID == "" {
		c.cfg.l.Warn("chat line without player")
		return
	}
	if c.seen != nil {
		if err := c.seen.Join(ctx, c.roomID, line.PlayerID); err != nil {
			c.cfg.l.Warn("could not mark player present",
				log.String("player", line.PlayerID), log.ErrorField(err))
		}
	}
	if err := c.handler.Handle(ctx, line.PlayerID, line.Text); err != nil {
		c.cfg.l.Debug("command rejected",
			log.String("player", line.PlayerID),
			log.String("text", line.Text),
			log.ErrorField(err))
	}
}
