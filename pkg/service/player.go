package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/racebet/pkg/collab"
	"github.com/mpapenbr/racebet/pkg/repository/player"
)

type PlayerService struct {
	pool *pgxpool.Pool
}

func InitPlayerService(pool *pgxpool.Pool) *PlayerService {
	return &PlayerService{pool: pool}
}

func (s *PlayerService) Resolve(ctx context.Context, playerID string) (string, error) {
	name, err := player.LoadNickname(ctx, s.pool, playerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("player %s: %w", playerID, collab.ErrNotFound)
	}
	return name, err
}

func (s *PlayerService) Register(ctx context.Context, playerID, nickname string) error {
	return player.Upsert(ctx, s.pool, playerID, nickname)
}

var _ collab.Nicknames = (*PlayerService)(nil)
