package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racebet/pkg/session"
)

func withDefaults(t *testing.T) {
	d := session.DefaultSettings()
	EntryWindow, StrategyWindow, LegDelay = d.EntryWindow, d.StrategyWindow, d.LegDelay
	MaxRaceDuration, Legs, EntryFee, RakePct = d.MaxRaceDuration, d.Legs, d.EntryFee, d.RakePct
	PayoutTable, MinField = d.PayoutTable, d.MinField
	TrackFile, WaitForServices = "", "15s"
	t.Cleanup(func() { TrackFile = "" })
}

func TestSettings(t *testing.T) {
	withDefaults(t)
	s, err := Settings()
	assert.NoError(t, err)
	assert.Equal(t, session.DefaultSettings(), s)

	RakePct = 120
	_, err = Settings()
	assert.ErrorIs(t, err, session.ErrInvalidSettings)
}

func TestCatalog(t *testing.T) {
	withDefaults(t)
	cat, err := Catalog()
	assert.NoError(t, err)
	assert.Equal(t, 5, cat.Len())

	TrackFile = filepath.Join(t.TempDir(), "tracks.yml")
	content := `tracks:
  - name: Imola
    country: Italy
    baseFailureRate: 0.02
    weights: {power: 0.3, handling: 0.3, aero: 0.2, reliability: 0.1, tireGrip: 0.1}
`
	assert.NoError(t, os.WriteFile(TrackFile, []byte(content), 0o600))
	cat, err = Catalog()
	assert.NoError(t, err)
	assert.Equal(t, []string{"Imola"}, cat.Names())

	TrackFile = filepath.Join(t.TempDir(), "missing.yml")
	_, err = Catalog()
	assert.Error(t, err)
}

func TestWaitTimeout(t *testing.T) {
	withDefaults(t)
	d, err := WaitTimeout()
	assert.NoError(t, err)
	assert.Equal(t, 15*time.Second, d)
	WaitForServices = "soon"
	d, err = WaitTimeout()
	assert.Error(t, err)
	assert.Equal(t, 60*time.Second, d)
}
