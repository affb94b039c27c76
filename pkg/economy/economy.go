package economy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/racebet/pkg/model"
)

var (
	DefaultPayoutTable = []int64{45, 25, 15, 10, 5}
	ErrInvalidTable    = errors.New("invalid payout table")
	ErrInvalidRake     = errors.New("invalid rake percentage")

	hundred = decimal.NewFromInt(100)
)

// Pool is the prize pool of one race.
type Pool struct {
	Paid  int
	Gross int64
	Rake  int64
	Net   int64
}

func (p Pool) Info() *model.PoolInfo {
	return &model.PoolInfo{Gross: p.Gross, Rake: p.Rake, Net: p.Net}
}

// ComputePool calculates gross, rake and net for paid entrants.
func ComputePool(entryFee int64, paid int, rakePct int64) Pool {
	gross := decimal.NewFromInt(entryFee).Mul(decimal.NewFromInt(int64(paid)))
	rake := percentOf(gross, rakePct)
	return Pool{
		Paid:  paid,
		Gross: gross.IntPart(),
		Rake:  rake.IntPart(),
		Net:   gross.Sub(rake).IntPart(),
	}
}

// Distribute applies the payout table to the finish order. Places held by
// bots or beyond the table get nothing, their share is not redistributed.
// A car that failed still holds its place and is paid for it.
func Distribute(pool Pool, table []int64, order []model.Standing) []model.Payout {
	net := decimal.NewFromInt(pool.Net)
	ret := make([]model.Payout, 0, len(table))
	for i, pct := range table {
		if i >= len(order) {
			break
		}
		st := order[i]
		if st.Bot || st.OwnerID == "" {
			continue
		}
		amount := percentOf(net, pct).IntPart()
		if amount <= 0 {
			continue
		}
		ret = append(ret, model.Payout{
			Position: i + 1,
			Name:     st.Name,
			OwnerID:  st.OwnerID,
			Amount:   amount,
		})
	}
	return ret
}

func ValidateTable(table []int64) error {
	sum := int64(0)
	for _, pct := range table {
		if pct < 0 {
			return fmt.Errorf("negative share %d: %w", pct, ErrInvalidTable)
		}
		sum += pct
	}
	if sum > 100 {
		return fmt.Errorf("shares sum to %d: %w", sum, ErrInvalidTable)
	}
	return nil
}

func ValidateRake(rakePct int64) error {
	if rakePct < 0 || rakePct > 100 {
		return fmt.Errorf("%d: %w", rakePct, ErrInvalidRake)
	}
	return nil
}

func percentOf(v decimal.Decimal, pct int64) decimal.Decimal {
	return v.Mul(decimal.NewFromInt(pct)).Div(hundred).Floor()
}
