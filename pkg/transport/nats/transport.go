package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/collab"
)

type (
	Option func(*config)
	config struct {
		prefix string
		l      *log.Logger
	}

	// Transport posts room messages as JSON on <prefix>.room.<room>.messages
	Transport struct {
		conn *nats.Conn
		cfg  *config
	}
)

func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.l = l
	}
}

func newConfig(name string, opts []Option) *config {
	c := &config{prefix: defaultPrefix, l: log.Default().Named(name)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NewTransport(conn *nats.Conn, opts ...Option) *Transport {
	return &Transport{conn: conn, cfg: newConfig("nats.transport", opts)}
}

func (t *Transport) Post(ctx context.Context, roomID, text string) error {
	data, err := json.Marshal(ChatMessage{RoomID: roomID, Text: text, Time: time.Now()})
	if err != nil {
		return err
	}
	subj := messagesSubject(t.cfg.prefix, roomID)
	t.cfg.l.Debug("posting message", log.String("subject", subj))
	return t.conn.Publish(subj, data)
}

var _ collab.Transport = (*Transport)(nil)
