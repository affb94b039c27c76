package config

import (
	"fmt"
	"time"

	"github.com/mpapenbr/racebet/pkg/session"
	"github.com/mpapenbr/racebet/pkg/track"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string        // connection string for the database
	NatsURL            string        // URL of the NATS server
	WaitForServices    string        // duration to wait for other services to be ready
	LogLevel           string        // sets the log level (zap log level values)
	SQLLogLevel        string        // sets the log level for sql subsystem
	LogFormat          string        // text vs json
	MigrationSourceURL string        // location of migration files, empty for embedded
	EnableTelemetry    bool          // enable telemetry
	TelemetryEndpoint  string        // endpoint for telemetry, "stdout" prints to console
	ProfilingPort      int           // port for profiling
	RoomID             string        // room served by this instance
	SubjectPrefix      string        // prefix of all NATS subjects
	PresenceBucket     string        // KeyValue bucket holding room presence
	PresenceTTL        time.Duration // presence entries expire after this duration
	TrackFile          string        // optional YAML track catalog
	EntryWindow        time.Duration // duration entries are accepted
	StrategyWindow     time.Duration // duration strategy choices are accepted
	LegDelay           time.Duration // pause between two legs
	MaxRaceDuration    time.Duration // a race is settled at the latest after this duration
	Legs               int           // number of legs per race
	EntryFee           int64         // entry fee per car
	RakePct            int64         // house share of the gross pool in percent
	PayoutTable        []int64       // payout percentages by finish position
	MinField           int           // field is padded with bots up to this size
)

// Settings converts the resolved values into session settings.
func Settings() (session.Settings, error) {
	s := session.Settings{
		EntryWindow:     EntryWindow,
		StrategyWindow:  StrategyWindow,
		LegDelay:        LegDelay,
		MaxRaceDuration: MaxRaceDuration,
		Legs:            Legs,
		EntryFee:        EntryFee,
		RakePct:         RakePct,
		PayoutTable:     PayoutTable,
		MinField:        MinField,
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Catalog returns the builtin catalog or the one read from TrackFile.
func Catalog() (*track.Catalog, error) {
	if TrackFile == "" {
		return track.Default(), nil
	}
	cat, err := track.LoadFile(TrackFile)
	if err != nil {
		return nil, fmt.Errorf("track file %s: %w", TrackFile, err)
	}
	return cat, nil
}

// WaitTimeout parses WaitForServices, falling back to 60s.
func WaitTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(WaitForServices)
	if err != nil {
		return 60 * time.Second, err
	}
	return timeout, nil
}
