//nolint:lll // readability
package economy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racebet/pkg/model"
)

func realOrder(n int) []model.Standing {
	ret := make([]model.Standing, n)
	for i := range ret {
		ret[i] = model.Standing{Position: i + 1, Name: fmt.Sprintf("car%d", i+1), OwnerID: fmt.Sprintf("p%d", i+1)}
	}
	return ret
}

func TestComputePool(t *testing.T) {
	tests := []struct {
		name    string
		fee     int64
		paid    int
		rakePct int64
		want    Pool
	}{
		{"reference", 2000, 6, 15, Pool{Paid: 6, Gross: 12000, Rake: 1800, Net: 10200}},
		{"no entrants", 2000, 0, 15, Pool{}},
		{"rake floors", 333, 1, 15, Pool{Paid: 1, Gross: 333, Rake: 49, Net: 284}},
		{"no rake", 100, 3, 0, Pool{Paid: 3, Gross: 300, Rake: 0, Net: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePool(tt.fee, tt.paid, tt.rakePct))
		})
	}
}

func TestDistribute_Reference(t *testing.T) {
	pool := ComputePool(2000, 6, 15)
	got := Distribute(pool, DefaultPayoutTable, realOrder(6))
	want := []model.Payout{
		{Position: 1, Name: "car1", OwnerID: "p1", Amount: 4590},
		{Position: 2, Name: "car2", OwnerID: "p2", Amount: 2550},
		{Position: 3, Name: "car3", OwnerID: "p3", Amount: 1530},
		{Position: 4, Name: "car4", OwnerID: "p4", Amount: 1020},
		{Position: 5, Name: "car5", OwnerID: "p5", Amount: 510},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Distribute() mismatch (-want +got):\n%s", diff)
	}
}

func TestDistribute_BotsNotPaidNorRolledOver(t *testing.T) {
	order := realOrder(4)
	order[0].Bot = true
	order[0].OwnerID = ""
	order[2].Bot = true
	order[2].OwnerID = ""
	pool := ComputePool(1000, 2, 10) // net 1800
	got := Distribute(pool, DefaultPayoutTable, order)
	assert.Equal(t, []model.Payout{
		{Position: 2, Name: "car2", OwnerID: "p2", Amount: 450},
		{Position: 4, Name: "car4", OwnerID: "p4", Amount: 180},
	}, got)
	total := int64(0)
	for _, p := range got {
		total += p.Amount
	}
	assert.Less(t, total, pool.Net)
}

func TestDistribute_FailedCarsKeepTheirPlace(t *testing.T) {
	order := realOrder(6)
	order[4].Failed = true
	order[5].Failed = true
	got := Distribute(ComputePool(2000, 6, 15), DefaultPayoutTable, order) // net 10200
	assert.Len(t, got, 5)
	assert.Equal(t, model.Payout{Position: 5, Name: "car5", OwnerID: "p5", Amount: 510}, got[4])
}

func TestDistribute_ShortField(t *testing.T) {
	got := Distribute(ComputePool(2000, 2, 15), DefaultPayoutTable, realOrder(2))
	assert.Len(t, got, 2)
	assert.Empty(t, Distribute(ComputePool(2000, 0, 15), DefaultPayoutTable, nil))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ValidateTable(DefaultPayoutTable))
	assert.True(t, errors.Is(ValidateTable([]int64{60, 50}), ErrInvalidTable))
	assert.True(t, errors.Is(ValidateTable([]int64{-1}), ErrInvalidTable))
	assert.NoError(t, ValidateRake(15))
	assert.True(t, errors.Is(ValidateRake(101), ErrInvalidRake))
}
