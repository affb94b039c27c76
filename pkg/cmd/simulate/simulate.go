package simulate

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racebet/pkg/config"
	"github.com/mpapenbr/racebet/pkg/field"
	"github.com/mpapenbr/racebet/pkg/model"
	"github.com/mpapenbr/racebet/pkg/session"
	"github.com/mpapenbr/racebet/pkg/simulator"
	"github.com/mpapenbr/racebet/pkg/track"
)

var (
	seed      uint64
	fieldSize int
	trackName string
	legDelay  time.Duration
)

func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "runs an offline race with a bot field and prints every leg",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.ResetDefault(cmdutil.NewLogger(config.LogLevel))
			catalog, err := config.Catalog()
			if err != nil {
				return err
			}
			s := seed
			if s == 0 {
				s = uint64(time.Now().UnixNano())
			}
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), catalog, s)
		},
	}
	cmd.Flags().Uint64Var(&seed,
		"seed",
		0,
		"random seed, same seed gives the same race (default: current time)")
	cmd.Flags().IntVar(&fieldSize,
		"field-size",
		8,
		"number of cars")
	cmd.Flags().StringVar(&trackName,
		"track",
		"",
		"track to race on (default: random)")
	cmd.Flags().StringVar(&config.TrackFile,
		"track-file",
		"",
		"yaml file with the track catalog (default: builtin tracks)")
	cmd.Flags().IntVar(&config.Legs,
		"legs",
		session.DefaultSettings().Legs,
		"number of legs per race")
	cmd.Flags().DurationVar(&legDelay,
		"leg-delay",
		0,
		"pause between two legs")
	return cmd
}

//nolint:whitespace // can't make both editor and linter happy
func runSimulation(
	ctx context.Context, w io.Writer, catalog *track.Catalog, s uint64,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rng := rand.New(rand.NewPCG(s, s+1))
	var tr *model.Track
	if trackName == "" {
		tr = catalog.Pick(rng)
	} else {
		var err error
		if tr, err = catalog.Get(trackName); err != nil {
			return err
		}
	}
	if fieldSize < 1 {
		return fmt.Errorf("field size must be positive, got %d", fieldSize)
	}
	entrants := field.Bots(fieldSize, nil, rng)
	for _, e := range entrants {
		e.Strategy = randomStrategy(rng)
	}
	entrants = field.StartingOrder(entrants, rng)

	fmt.Fprintf(w, "%s (%s), seed %d\n", tr.Name, tr.Country, s)
	for i, e := range entrants {
		fmt.Fprintf(w, "  grid %d: %s (%s/%s)\n", i+1, e.Name, e.Strategy.Tire, e.Strategy.Mode)
	}

	sim := simulator.New(
		simulator.WithLegs(config.Legs),
		simulator.WithLegDelay(legDelay),
		simulator.WithRand(rng),
		simulator.WithEmitter(func(_ context.Context, snap *simulator.LegSnapshot) {
			printLeg(w, snap)
		}),
	)
	res, err := sim.Run(ctx, entrants, tr)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Result:")
	for _, st := range res.Order {
		if st.Failed {
			fmt.Fprintf(w, "  DNF %s (%s, leg %d)\n", st.Name, st.Reason, st.FailedAt)
		} else {
			fmt.Fprintf(w, "  P%d %s\n", st.Position, st.Name)
		}
	}
	return nil
}

func printLeg(w io.Writer, snap *simulator.LegSnapshot) {
	rows := make([]string, len(snap.Standings))
	for i, st := range snap.Standings {
		mark := ""
		if st.Failed {
			mark = " (out)"
		}
		rows[i] = fmt.Sprintf("%d.%s %.3f%s", st.Position, st.Name, st.Progress, mark)
	}
	fmt.Fprintf(w, "Leg %d/%d: %s\n", snap.Leg, snap.TotalLegs, strings.Join(rows, ", "))
	for _, c := range snap.Callouts {
		fmt.Fprintf(w, "  %s\n", c)
	}
}

var (
	tires = []model.Tire{model.TireSoft, model.TireMedium, model.TireHard}
	modes = []model.Mode{model.ModePush, model.ModeNormal, model.ModeSave}
)

func randomStrategy(rng *rand.Rand) model.Strategy {
	return model.Strategy{
		Tire: tires[rng.IntN(len(tires))],
		Mode: modes[rng.IntN(len(modes))],
	}
}
