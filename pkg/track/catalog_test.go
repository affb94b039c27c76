//nolint:lll // readability
package track

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racebet/pkg/model"
)

func TestDefault_WeightsSumToOne(t *testing.T) {
	c := Default()
	assert.Equal(t, 5, c.Len())
	for _, name := range c.Names() {
		tr, err := c.Get(name)
		assert.NoError(t, err)
		assert.InDelta(t, 1.0, tr.Weights.Sum(), 1e-9, name)
		assert.True(t, tr.BaseFailureRate > 0 && tr.BaseFailureRate < 0.2, name)
		assert.NotEmpty(t, tr.Country, name)
		assert.NotEmpty(t, tr.Description, name)
	}
}

func TestCatalog_Get(t *testing.T) {
	c := Default()
	tr, err := c.Get("  monaco ")
	assert.NoError(t, err)
	assert.Equal(t, "Monaco", tr.Name)

	_, err = c.Get("Nordschleife")
	assert.True(t, errors.Is(err, ErrUnknownTrack))
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	c := Default()
	tr, _ := c.Get("Spa")
	tr.BaseFailureRate = 0.5
	again, _ := c.Get("Spa")
	assert.Equal(t, 0.025, again.BaseFailureRate)
}

func TestCatalog_PickDeterministic(t *testing.T) {
	c := Default()
	a := c.Pick(rand.New(rand.NewPCG(7, 7)))
	b := c.Pick(rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a.Name, b.Name)
}

func TestParse(t *testing.T) {
	data := []byte(`
tracks:
  - name: Oval
    country: USA
    description: Flat out, all left turns.
    baseFailureRate: 0.01
    weights: {power: 0.5, handling: 0.1, aero: 0.2, reliability: 0.1, tireGrip: 0.1}
`)
	c, err := Parse(data)
	assert.NoError(t, err)
	tr, err := c.Get("oval")
	assert.NoError(t, err)
	assert.Equal(t, 0.5, tr.Weights.Power)
	assert.Equal(t, "USA", tr.Country)
	assert.Equal(t, "Flat out, all left turns.", tr.Description)
	assert.Equal(t, []string{"Oval"}, c.Names())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		tracks []model.Track
		want   error
	}{
		{"empty", nil, ErrEmptyCatalog},
		{"no name", []model.Track{{Weights: model.Weights{Power: 1}}}, ErrInvalidTrack},
		{"bad weights", []model.Track{{Name: "x", Weights: model.Weights{Power: 0.5}}}, ErrInvalidTrack},
		{"bad failure", []model.Track{{Name: "x", Weights: model.Weights{Power: 1}, BaseFailureRate: 0.3}}, ErrInvalidTrack},
		{"duplicate", []model.Track{{Name: "x", Weights: model.Weights{Power: 1}}, {Name: "X", Weights: model.Weights{Power: 1}}}, ErrInvalidTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tracks)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestWeights_Apply(t *testing.T) {
	w := model.Weights{Power: 0.5, Handling: 0.5}
	got := w.Apply(model.Stats{Power: 100, Handling: 50, Aero: 100})
	assert.True(t, math.Abs(got-0.75) < 1e-9)
}
