package collab

import (
	"context"
	"errors"

	"github.com/mpapenbr/racebet/pkg/model"
	"github.com/mpapenbr/racebet/pkg/utils/retry"
)

// The resilient decorators retry every call once (see package retry).
// Errors after the retry are returned wrapped in *retry.ExhaustedError.

type resilientWallet struct {
	w    Wallet
	opts []retry.Option
}

func ResilientWallet(w Wallet, opts ...retry.Option) Wallet {
	return &resilientWallet{w: w, opts: opts}
}

func (r *resilientWallet) Balance(ctx context.Context, playerID string) (int64, error) {
	return retry.Do(ctx, "wallet.balance", func(ctx context.Context) (int64, error) {
		return r.w.Balance(ctx, playerID)
	}, r.opts...)
}

func (r *resilientWallet) Debit(ctx context.Context, playerID string, amount int64) error {
	return retry.Run(ctx, "wallet.debit", func(ctx context.Context) error {
		if err := r.w.Debit(ctx, playerID, amount); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	}, r.opts...)
}

func (r *resilientWallet) Credit(ctx context.Context, playerID string, amount int64) error {
	return retry.Run(ctx, "wallet.credit", func(ctx context.Context) error {
		return r.w.Credit(ctx, playerID, amount)
	}, r.opts...)
}

type resilientGarage struct {
	g    Garage
	opts []retry.Option
}

func ResilientGarage(g Garage, opts ...retry.Option) Garage {
	return &resilientGarage{g: g, opts: opts}
}

//nolint:whitespace // can't make both editor and linter happy
func (r *resilientGarage) ListCars(
	ctx context.Context, filter model.CarFilter,
) ([]*model.Car, error) {
	return retry.Do(ctx, "garage.listCars", func(ctx context.Context) ([]*model.Car, error) {
		return r.g.ListCars(ctx, filter)
	}, r.opts...)
}

func (r *resilientGarage) Team(ctx context.Context, ownerID string) (*model.Team, error) {
	return retry.Do(ctx, "garage.team", func(ctx context.Context) (*model.Team, error) {
		return r.g.Team(ctx, ownerID)
	}, r.opts...)
}

//nolint:whitespace // can't make both editor and linter happy
func (r *resilientGarage) UpdateCarAfterRace(
	ctx context.Context, carID int64, upd model.RaceUpdate,
) error {
	return retry.Run(ctx, "garage.updateCarAfterRace", func(ctx context.Context) error {
		return r.g.UpdateCarAfterRace(ctx, carID, upd)
	}, r.opts...)
}

type resilientPresence struct {
	p    Presence
	opts []retry.Option
}

func ResilientPresence(p Presence, opts ...retry.Option) Presence {
	return &resilientPresence{p: p, opts: opts}
}

//nolint:whitespace // can't make both editor and linter happy
func (r *resilientPresence) PresentPlayers(
	ctx context.Context, roomID string,
) ([]string, error) {
	return retry.Do(ctx, "presence.players", func(ctx context.Context) ([]string, error) {
		return r.p.PresentPlayers(ctx, roomID)
	}, r.opts...)
}

type resilientNicknames struct {
	n    Nicknames
	opts []retry.Option
}

func ResilientNicknames(n Nicknames, opts ...retry.Option) Nicknames {
	return &resilientNicknames{n: n, opts: opts}
}

func (r *resilientNicknames) Resolve(ctx context.Context, playerID string) (string, error) {
	return retry.Do(ctx, "nicknames.resolve", func(ctx context.Context) (string, error) {
		return r.n.Resolve(ctx, playerID)
	}, r.opts...)
}

type resilientTransport struct {
	t    Transport
	opts []retry.Option
}

func ResilientTransport(t Transport, opts ...retry.Option) Transport {
	return &resilientTransport{t: t, opts: opts}
}

func (r *resilientTransport) Post(ctx context.Context, roomID, text string) error {
	return retry.Run(ctx, "transport.post", func(ctx context.Context) error {
		return r.t.Post(ctx, roomID, text)
	}, r.opts...)
}
