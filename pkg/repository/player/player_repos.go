//nolint:whitespace // can't make both editor and linter happy
package player

import (
	"context"

	"github.com/mpapenbr/racebet/pkg/repository"
)

func Upsert(ctx context.Context, conn repository.Querier, id, nickname string) error {
	_, err := conn.Exec(ctx, `
	insert into player (id, nickname) values ($1,$2)
	on conflict (id) do update set nickname=excluded.nickname
	`, id, nickname)
	return err
}

// LoadNickname returns pgx.ErrNoRows for unknown players.
func LoadNickname(ctx context.Context, conn repository.Querier, id string) (string, error) {
	row := conn.QueryRow(ctx, "select nickname from player where id=$1", id)
	var ret string
	if err := row.Scan(&ret); err != nil {
		return "", err
	}
	return ret, nil
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteByID(ctx context.Context, conn repository.Querier, id string) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from player where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
