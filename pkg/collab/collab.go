// Package collab defines the services the race engine depends on but does
// not own: wallet ledger, car garage, presence, nicknames and the chat
// transport.
package collab

import (
	"context"
	"errors"

	"github.com/mpapenbr/racebet/pkg/model"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

type Wallet interface {
	Balance(ctx context.Context, playerID string) (int64, error)
	Debit(ctx context.Context, playerID string, amount int64) error
	Credit(ctx context.Context, playerID string, amount int64) error
}

type Garage interface {
	ListCars(ctx context.Context, filter model.CarFilter) ([]*model.Car, error)
	// Team returns nil, nil if the owner has no team
	Team(ctx context.Context, ownerID string) (*model.Team, error)
	UpdateCarAfterRace(ctx context.Context, carID int64, upd model.RaceUpdate) error
}

type Presence interface {
	PresentPlayers(ctx context.Context, roomID string) ([]string, error)
}

type Nicknames interface {
	Resolve(ctx context.Context, playerID string) (string, error)
}

type Transport interface {
	Post(ctx context.Context, roomID, text string) error
}
