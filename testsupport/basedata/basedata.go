package basedata

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/racebet/pkg/model"
	garagerepos "github.com/mpapenbr/racebet/pkg/repository/garage"
	playerrepos "github.com/mpapenbr/racebet/pkg/repository/player"
	walletrepos "github.com/mpapenbr/racebet/pkg/repository/wallet"
)

const SampleBalance = int64(10000)

func SampleCars() []*model.Car {
	return []*model.Car{
		{
			Name: "Red Arrow", OwnerID: "alice", Tier: "pro",
			Stats: model.Stats{Power: 80, Handling: 70, Aero: 65, Reliability: 75, TireGrip: 70},
		},
		{
			Name: "Blue Comet", OwnerID: "alice", Tier: "club",
			Stats: model.Stats{Power: 60, Handling: 75, Aero: 70, Reliability: 85, TireGrip: 60},
		},
		{
			Name: "Green Flash", OwnerID: "bob", Tier: "pro",
			Stats: model.Stats{Power: 72, Handling: 68, Aero: 74, Reliability: 70, TireGrip: 77},
		},
	}
}

func SampleTeam() *model.Team {
	return &model.Team{OwnerID: "alice", Name: "Arrows", Badge: "[A]", GarageLevel: 2}
}

// CreateSampleData stores players, wallets, the sample team and cars.
// The returned cars carry their database IDs.
func CreateSampleData(pool *pgxpool.Pool) []*model.Car {
	ctx := context.Background()
	cars := SampleCars()
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, p := range []string{"alice", "bob"} {
			if err := playerrepos.Upsert(ctx, tx, p, "Nick "+p); err != nil {
				return err
			}
			if err := walletrepos.Credit(ctx, tx, p, SampleBalance); err != nil {
				return err
			}
		}
		if err := garagerepos.UpsertTeam(ctx, tx, SampleTeam()); err != nil {
			return err
		}
		for _, c := range cars {
			if err := garagerepos.CreateCar(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("CreateSampleData: %v\n", err)
	}
	return cars
}
