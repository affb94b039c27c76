package nats

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/collab"
)

const (
	DefaultPresenceBucket = "racebet_presence"
	DefaultPresenceTTL    = 10 * time.Minute
)

// Presence keeps the players of a room in a KeyValue bucket. Entries
// expire after the bucket TTL unless refreshed by Join.
type Presence struct {
	kv jetstream.KeyValue
	l  *log.Logger
}

//nolint:whitespace // can't make both editor and linter happy
func NewPresence(
	ctx context.Context, conn *nats.Conn, bucket string, ttl time.Duration,
) (*Presence, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		return nil, err
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, err
	}
	return &Presence{kv: kv, l: log.Default().Named("nats.presence")}, nil
}

func (p *Presence) Join(ctx context.Context, roomID, playerID string) error {
	_, err := p.kv.Put(ctx, presenceKey(roomID, playerID), []byte(playerID))
	return err
}

func (p *Presence) Leave(ctx context.Context, roomID, playerID string) error {
	err := p.kv.Delete(ctx, presenceKey(roomID, playerID))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (p *Presence) PresentPlayers(ctx context.Context, roomID string) ([]string, error) {
	lister, err := p.kv.ListKeysFiltered(ctx, token(roomID)+".*")
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, err
	}
	defer func() {
		if err := lister.Stop(); err != nil {
			p.l.Debug("error stopping key lister", log.ErrorField(err))
		}
	}()
	ret := []string{}
	for key := range lister.Keys() {
		_, player, found := strings.Cut(key, ".")
		if !found {
			continue
		}
		// the stored value carries the unmodified player id
		entry, err := p.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		if v := string(entry.Value()); v != "" {
			player = v
		}
		ret = append(ret, player)
	}
	return ret, nil
}

var _ collab.Presence = (*Presence)(nil)
