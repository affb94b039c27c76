package nats

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/model"
)

// Source provides race events, e.g. a session controller.
type Source interface {
	Subscribe() <-chan model.RaceEvent
	Unsubscribe(ch <-chan model.RaceEvent)
}

type EventPublisher struct {
	conn *nats.Conn
	cfg  *config
}

func NewEventPublisher(conn *nats.Conn, opts ...Option) *EventPublisher {
	return &EventPublisher{conn: conn, cfg: newConfig("nats.events", opts)}
}

// Forward publishes every event of src as JSON on
// <prefix>.race.<room>.events until ctx is done or src closes.
func (p *EventPublisher) Forward(ctx context.Context, src Source) {
	ch := src.Subscribe()
	defer src.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				p.cfg.l.Debug("event source closed")
				return
			}
			if err := p.Publish(ev); err != nil {
				p.cfg.l.Warn("could not publish event",
					log.String("race", ev.RaceID), log.ErrorField(err))
			}
		}
	}
}

func (p *EventPublisher) Publish(ev model.RaceEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(eventsSubject(p.cfg.prefix, ev.RoomID), data)
}
