//nolint:whitespace // can't make both editor and linter happy
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/mpapenbr/racebet/pkg/collab"
	"github.com/mpapenbr/racebet/pkg/repository"
)

var ErrInvalidAmount = errors.New("amount must be positive")

// Balance returns pgx.ErrNoRows if the player has no wallet.
func Balance(ctx context.Context, conn repository.Querier, playerID string) (int64, error) {
	row := conn.QueryRow(ctx, "select balance from wallet where player_id=$1", playerID)
	var ret int64
	if err := row.Scan(&ret); err != nil {
		return 0, err
	}
	return ret, nil
}

// Debit withdraws amount if the balance covers it. A missing wallet or a
// short balance yields collab.ErrInsufficientFunds.
func Debit(ctx context.Context, conn repository.Querier, playerID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit %d: %w", amount, ErrInvalidAmount)
	}
	cmdTag, err := conn.Exec(ctx, `
	update wallet set balance = balance - $2, updated = now()
	where player_id=$1 and balance >= $2
	`, playerID, amount)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("player %s: %w", playerID, collab.ErrInsufficientFunds)
	}
	return nil
}

// Credit deposits amount, creating the wallet if needed.
func Credit(ctx context.Context, conn repository.Querier, playerID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit %d: %w", amount, ErrInvalidAmount)
	}
	_, err := conn.Exec(ctx, `
	insert into wallet (player_id, balance) values ($1,$2)
	on conflict (player_id) do update set
		balance = wallet.balance + excluded.balance, updated = now()
	`, playerID, amount)
	return err
}

// deletes the wallet, returns number of rows deleted.
func DeleteByPlayer(ctx context.Context, conn repository.Querier, playerID string) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from wallet where player_id=$1", playerID)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}
