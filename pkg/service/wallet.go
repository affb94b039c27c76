package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/racebet/pkg/collab"
	"github.com/mpapenbr/racebet/pkg/repository/wallet"
)

type WalletService struct {
	pool *pgxpool.Pool
}

func InitWalletService(pool *pgxpool.Pool) *WalletService {
	return &WalletService{pool: pool}
}

// Balance reports 0 for players without a wallet.
func (s *WalletService) Balance(ctx context.Context, playerID string) (int64, error) {
	bal, err := wallet.Balance(ctx, s.pool, playerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return bal, err
}

func (s *WalletService) Debit(ctx context.Context, playerID string, amount int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return wallet.Debit(ctx, tx, playerID, amount)
	})
}

func (s *WalletService) Credit(ctx context.Context, playerID string, amount int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return wallet.Credit(ctx, tx, playerID, amount)
	})
}

var _ collab.Wallet = (*WalletService)(nil)
