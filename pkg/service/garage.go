package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/racebet/pkg/collab"
	"github.com/mpapenbr/racebet/pkg/model"
	"github.com/mpapenbr/racebet/pkg/repository/garage"
)

type GarageService struct {
	pool *pgxpool.Pool
}

func InitGarageService(pool *pgxpool.Pool) *GarageService {
	return &GarageService{pool: pool}
}

func (s *GarageService) ListCars(ctx context.Context, filter model.CarFilter) (
	[]*model.Car, error,
) {
	return garage.ListCars(ctx, s.pool, filter)
}

// Team returns nil without error if the owner has no team.
func (s *GarageService) Team(ctx context.Context, ownerID string) (*model.Team, error) {
	team, err := garage.LoadTeam(ctx, s.pool, ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return team, err
}

//nolint:whitespace // can't make both editor and linter happy
func (s *GarageService) UpdateCarAfterRace(
	ctx context.Context, carID int64, upd model.RaceUpdate,
) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		n, err := garage.ApplyRaceUpdate(ctx, tx, carID, upd)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("car %d: %w", carID, collab.ErrNotFound)
		}
		return nil
	})
}

var _ collab.Garage = (*GarageService)(nil)
