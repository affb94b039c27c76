// Package fakes provides in-memory collaborators for tests.
package fakes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mpapenbr/racebet/pkg/collab"
	"github.com/mpapenbr/racebet/pkg/model"
)

var ErrUnavailable = errors.New("service unavailable")

type Wallet struct {
	mu       sync.Mutex
	balances map[string]int64
	Debits   map[string][]int64
	Credits  map[string][]int64
	// FailFor makes every call for these players fail
	FailFor map[string]bool
}

func NewWallet(balances map[string]int64) *Wallet {
	b := map[string]int64{}
	for k, v := range balances {
		b[k] = v
	}
	return &Wallet{
		balances: b,
		Debits:   map[string][]int64{},
		Credits:  map[string][]int64{},
		FailFor:  map[string]bool{},
	}
}

func (w *Wallet) Balance(_ context.Context, playerID string) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailFor[playerID] {
		return 0, ErrUnavailable
	}
	return w.balances[playerID], nil
}

func (w *Wallet) Debit(_ context.Context, playerID string, amount int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailFor[playerID] {
		return ErrUnavailable
	}
	if w.balances[playerID] < amount {
		return collab.ErrInsufficientFunds
	}
	w.balances[playerID] -= amount
	w.Debits[playerID] = append(w.Debits[playerID], amount)
	return nil
}

func (w *Wallet) Credit(_ context.Context, playerID string, amount int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailFor[playerID] {
		return ErrUnavailable
	}
	w.balances[playerID] += amount
	w.Credits[playerID] = append(w.Credits[playerID], amount)
	return nil
}

func (w *Wallet) BalanceOf(playerID string) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[playerID]
}

func (w *Wallet) DebitCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, d := range w.Debits {
		n += len(d)
	}
	return n
}

type Garage struct {
	mu      sync.Mutex
	cars    []*model.Car
	teams   map[string]*model.Team
	Updates map[int64][]model.RaceUpdate
	Fail    bool
}

func NewGarage(cars []*model.Car, teams ...*model.Team) *Garage {
	g := &Garage{
		cars:    cars,
		teams:   map[string]*model.Team{},
		Updates: map[int64][]model.RaceUpdate{},
	}
	for _, t := range teams {
		g.teams[t.OwnerID] = t
	}
	return g
}

//nolint:whitespace // can't make both editor and linter happy
func (g *Garage) ListCars(
	_ context.Context, filter model.CarFilter,
) ([]*model.Car, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail {
		return nil, ErrUnavailable
	}
	ret := make([]*model.Car, 0, len(g.cars))
	for _, c := range g.cars {
		if c.Retired && !filter.IncludeRetired {
			continue
		}
		if filter.OwnerIDs != nil && !slices.Contains(filter.OwnerIDs, c.OwnerID) {
			continue
		}
		cp := *c
		ret = append(ret, &cp)
	}
	return ret, nil
}

func (g *Garage) Team(_ context.Context, ownerID string) (*model.Team, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail {
		return nil, ErrUnavailable
	}
	return g.teams[ownerID], nil
}

//nolint:whitespace // can't make both editor and linter happy
func (g *Garage) UpdateCarAfterRace(
	_ context.Context, carID int64, upd model.RaceUpdate,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail {
		return ErrUnavailable
	}
	for _, c := range g.cars {
		if c.ID == carID {
			c.Races++
			if upd.Won {
				c.Wins++
			}
			c.Wear = model.Clamp(c.Wear+upd.WearDelta, 0, 100)
			g.Updates[carID] = append(g.Updates[carID], upd)
			return nil
		}
	}
	return fmt.Errorf("car %d: %w", carID, collab.ErrNotFound)
}

func (g *Garage) Car(id int64) *model.Car {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.cars {
		if c.ID == id {
			cp := *c
			return &cp
		}
	}
	return nil
}

type Presence struct {
	Players []string
}

func (p *Presence) PresentPlayers(context.Context, string) ([]string, error) {
	return p.Players, nil
}

type Nicknames struct {
	Names map[string]string
}

func (n *Nicknames) Resolve(_ context.Context, playerID string) (string, error) {
	if name, ok := n.Names[playerID]; ok {
		return name, nil
	}
	return "", collab.ErrNotFound
}

type Transport struct {
	mu       sync.Mutex
	Messages []string
}

func (t *Transport) Post(_ context.Context, _, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Messages = append(t.Messages, text)
	return nil
}

func (t *Transport) All() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ret := make([]string, len(t.Messages))
	copy(ret, t.Messages)
	return ret
}

var (
	_ collab.Wallet    = (*Wallet)(nil)
	_ collab.Garage    = (*Garage)(nil)
	_ collab.Presence  = (*Presence)(nil)
	_ collab.Nicknames = (*Nicknames)(nil)
	_ collab.Transport = (*Transport)(nil)
)
