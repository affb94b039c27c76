// Package cmdutil holds helpers shared by the CLI commands.
package cmdutil

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/config"
	"github.com/mpapenbr/racebet/pkg/session"
	"github.com/mpapenbr/racebet/pkg/utils"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// NewLogger creates a logger according to config.LogFormat.
func NewLogger(level string) *log.Logger {
	switch config.LogFormat {
	case "json":
		return log.New(
			os.Stderr,
			ParseLogLevel(level, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		return log.DevLogger(
			os.Stderr,
			ParseLogLevel(level, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
}

// AddRaceFlags registers the flags used by every command running races.
func AddRaceFlags(cmd *cobra.Command) {
	d := session.DefaultSettings()
	cmd.Flags().StringVar(&config.TrackFile,
		"track-file",
		"",
		"yaml file with the track catalog (default: builtin tracks)")
	cmd.Flags().IntVar(&config.Legs,
		"legs",
		d.Legs,
		"number of legs per race")
	cmd.Flags().DurationVar(&config.LegDelay,
		"leg-delay",
		d.LegDelay,
		"pause between two legs")
}

// AddSessionFlags registers the flags of a race session.
func AddSessionFlags(cmd *cobra.Command) {
	d := session.DefaultSettings()
	AddRaceFlags(cmd)
	cmd.Flags().DurationVar(&config.EntryWindow,
		"entry-window",
		d.EntryWindow,
		"duration entries are accepted")
	cmd.Flags().DurationVar(&config.StrategyWindow,
		"strategy-window",
		d.StrategyWindow,
		"duration strategy choices are accepted")
	cmd.Flags().DurationVar(&config.MaxRaceDuration,
		"max-race-duration",
		d.MaxRaceDuration,
		"a running race is settled at the latest after this duration")
	cmd.Flags().Int64Var(&config.EntryFee,
		"entry-fee",
		d.EntryFee,
		"entry fee per car")
	cmd.Flags().Int64Var(&config.RakePct,
		"rake",
		d.RakePct,
		"house share of the gross pool in percent")
	cmd.Flags().Int64SliceVar(&config.PayoutTable,
		"payout-table",
		d.PayoutTable,
		"payout percentages by finish position")
	cmd.Flags().IntVar(&config.MinField,
		"min-field",
		d.MinField,
		"the field is padded with bots up to this size")
}

// WaitForTCP waits for all given addresses, empty ones are skipped.
// It is fatal if a service does not become available.
func WaitForTCP(addrs ...string) {
	timeout, err := config.WaitTimeout()
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
	}
	done := make(chan struct{})
	pending := 0
	for _, addr := range addrs {
		if addr == "" {
			continue
		}
		pending++
		go func(addr string) {
			if err := utils.WaitForTCP(addr, timeout); err != nil {
				log.Fatal("required services not ready", log.ErrorField(err))
			}
			done <- struct{}{}
		}(addr)
	}
	log.Debug("Waiting for connection checks to return")
	for range pending {
		<-done
	}
	log.Debug("Required services are available")
}
