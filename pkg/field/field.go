package field

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/racebet/pkg/model"
)

type Reason string

const (
	ReasonInsufficientFunds Reason = "insufficient funds"
	ReasonWalletUnavailable Reason = "wallet unavailable"

	BotStatMin = 45.0
	BotStatMax = 75.0
	BotTier    = "bot"

	startBias = 0.35
)

var botNames = []string{
	"Rusty Bucket", "Turbo Toaster", "Lemon Lightning", "Gravel Gobbler",
	"Sir Spins-a-Lot", "Oil Slick", "Backmarker Bob", "Pit Lane Pete",
	"Diesel Dan", "Chicane Charlie", "Apex Annie", "Understeer Ursula",
}

type (
	Input struct {
		Entered []*model.Car
		// owner -> balance; owners missing here could not be queried
		Balances  map[string]int64
		EntryFee  int64
		MinField  int
		UsedNames []string
	}
	Rejection struct {
		Car    *model.Car
		Reason Reason
	}
	Result struct {
		Accepted []*model.Car
		Rejected []Rejection
		Bots     []*model.Entrant
	}
)

// Assemble decides which entered cars can pay the fee and how many bots
// are needed to reach the minimum field. It does not charge anybody.
// An owner entering several cars needs to cover the fee for each of them.
func Assemble(in Input, rng *rand.Rand) Result {
	res := Result{
		Accepted: make([]*model.Car, 0, len(in.Entered)),
		Rejected: make([]Rejection, 0),
	}
	remaining := map[string]int64{}
	for _, c := range in.Entered {
		bal, ok := remaining[c.OwnerID]
		if !ok {
			bal, ok = in.Balances[c.OwnerID]
		}
		if !ok {
			res.Rejected = append(res.Rejected, Rejection{Car: c, Reason: ReasonWalletUnavailable})
			continue
		}
		if bal < in.EntryFee {
			remaining[c.OwnerID] = bal
			res.Rejected = append(res.Rejected, Rejection{Car: c, Reason: ReasonInsufficientFunds})
			continue
		}
		remaining[c.OwnerID] = bal - in.EntryFee
		res.Accepted = append(res.Accepted, c)
	}

	used := lo.Map(in.UsedNames, func(n string, _ int) string { return strings.ToLower(n) })
	used = append(used, lo.Map(in.Entered, func(c *model.Car, _ int) string {
		return strings.ToLower(c.Name)
	})...)
	shortfall := max(0, in.MinField-len(res.Accepted))
	res.Bots = Bots(shortfall, used, rng)
	return res
}

// Bots creates n synthetic entrants with stats drawn uniformly from
// [BotStatMin,BotStatMax]. Names never collide with used (lower case).
func Bots(n int, used []string, rng *rand.Rand) []*model.Entrant {
	taken := lo.SliceToMap(used, func(s string) (string, bool) { return s, true })
	names := make([]string, 0, n)
	for _, i := range rng.Perm(len(botNames)) {
		if len(names) == n {
			break
		}
		if !taken[strings.ToLower(botNames[i])] {
			names = append(names, botNames[i])
			taken[strings.ToLower(botNames[i])] = true
		}
	}
	for seq := 1; len(names) < n; seq++ {
		name := fmt.Sprintf("Bot #%d", seq)
		if !taken[strings.ToLower(name)] {
			names = append(names, name)
			taken[strings.ToLower(name)] = true
		}
	}
	ret := make([]*model.Entrant, 0, n)
	for _, name := range names {
		ret = append(ret, &model.Entrant{
			Name:     name,
			Stats:    botStats(rng),
			Tier:     BotTier,
			Origin:   model.Synthetic{},
			Strategy: model.DefaultStrategy(),
		})
	}
	return ret
}

func botStats(rng *rand.Rand) model.Stats {
	draw := func() float64 {
		return BotStatMin + rng.Float64()*(BotStatMax-BotStatMin)
	}
	return model.Stats{
		Power:       draw(),
		Handling:    draw(),
		Aero:        draw(),
		Reliability: draw(),
		TireGrip:    draw(),
	}
}

// StartingOrder shuffles the field with a small bias towards cars with
// good handling and aero.
func StartingOrder(entrants []*model.Entrant, rng *rand.Rand) []*model.Entrant {
	type scored struct {
		e     *model.Entrant
		score float64
	}
	items := lo.Map(entrants, func(e *model.Entrant, _ int) scored {
		n := e.Stats.Normalized()
		return scored{e: e, score: (n.Handling+n.Aero)/2*startBias + rng.Float64()}
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
	return lo.Map(items, func(s scored, _ int) *model.Entrant { return s.e })
}
