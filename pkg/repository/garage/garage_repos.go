//nolint:whitespace // can't make both editor and linter happy
package garage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/racebet/pkg/model"
	"github.com/mpapenbr/racebet/pkg/repository"
)

// CreateCar inserts the car and sets its ID.
func CreateCar(ctx context.Context, conn repository.Querier, car *model.Car) error {
	row := conn.QueryRow(ctx, `
	insert into car (
		owner_id, name, power, handling, aero, reliability, tire_grip,
		wear, tier, wins, races, retired
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	returning id
	`,
		car.OwnerID, car.Name,
		car.Stats.Power, car.Stats.Handling, car.Stats.Aero,
		car.Stats.Reliability, car.Stats.TireGrip,
		car.Wear, car.Tier, car.Wins, car.Races, car.Retired,
	)
	return row.Scan(&car.ID)
}

func LoadCarByID(ctx context.Context, conn repository.Querier, id int64) (
	*model.Car, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where id=$1", carSelector), id)
	var item model.Car
	if err := scanCar(&item, row); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListCars returns the cars matching filter ordered by name.
func ListCars(ctx context.Context, conn repository.Querier, filter model.CarFilter) (
	[]*model.Car, error,
) {
	where := []string{}
	args := []any{}
	if filter.OwnerIDs != nil {
		args = append(args, filter.OwnerIDs)
		where = append(where, fmt.Sprintf("owner_id = any($%d)", len(args)))
	}
	if !filter.IncludeRetired {
		where = append(where, "not retired")
	}
	query := carSelector
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by name"

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.Car, 0)
	for rows.Next() {
		var item model.Car
		if err := scanCar(&item, rows); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

// ApplyRaceUpdate counts the race, the win and applies the wear delta.
// Wear is kept within [0,100]. Returns number of rows updated.
func ApplyRaceUpdate(
	ctx context.Context,
	conn repository.Querier,
	id int64,
	upd model.RaceUpdate,
) (int, error) {
	won := 0
	if upd.Won {
		won = 1
	}
	cmdTag, err := conn.Exec(ctx, `
	update car set
		races = races + 1,
		wins = wins + $2,
		wear = least(100, greatest(0, wear + $3))
	where id=$1
	`, id, won, upd.WearDelta)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func SetRetired(ctx context.Context, conn repository.Querier, id int64, retired bool) (
	int, error,
) {
	cmdTag, err := conn.Exec(ctx, "update car set retired=$2 where id=$1", id, retired)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteCarByID(ctx context.Context, conn repository.Querier, id int64) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from car where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func UpsertTeam(ctx context.Context, conn repository.Querier, team *model.Team) error {
	_, err := conn.Exec(ctx, `
	insert into team (owner_id, name, badge, garage_level) values ($1,$2,$3,$4)
	on conflict (owner_id) do update set
		name=excluded.name, badge=excluded.badge, garage_level=excluded.garage_level
	`, team.OwnerID, team.Name, team.Badge, team.GarageLevel)
	return err
}

// LoadTeam returns pgx.ErrNoRows if the owner has no team.
func LoadTeam(ctx context.Context, conn repository.Querier, ownerID string) (
	*model.Team, error,
) {
	row := conn.QueryRow(ctx,
		"select owner_id, name, badge, garage_level from team where owner_id=$1",
		ownerID)
	var item model.Team
	if err := row.Scan(&item.OwnerID, &item.Name, &item.Badge, &item.GarageLevel); err != nil {
		return nil, err
	}
	return &item, nil
}

// little helper
const carSelector = `select id, owner_id, name, power, handling, aero, reliability,
	tire_grip, wear, tier, wins, races, retired from car`

func scanCar(c *model.Car, row pgx.Row) error {
	return row.Scan(
		&c.ID, &c.OwnerID, &c.Name,
		&c.Stats.Power, &c.Stats.Handling, &c.Stats.Aero,
		&c.Stats.Reliability, &c.Stats.TireGrip,
		&c.Wear, &c.Tier, &c.Wins, &c.Races, &c.Retired,
	)
}
