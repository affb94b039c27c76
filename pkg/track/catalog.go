package track

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/racebet/pkg/model"
)

var (
	ErrUnknownTrack    = errors.New("unknown track")
	ErrInvalidTrack    = errors.New("invalid track definition")
	ErrEmptyCatalog    = errors.New("track catalog is empty")
	weightSumTolerance = 0.05
)

// builtin tracks used when no catalog file is configured
var builtin = []model.Track{
	{
		Name:        "Monza",
		Country:     "Italy",
		Description: "Temple of speed. Long straights reward raw power.",
		Weights: model.Weights{
			Power: 0.40, Handling: 0.10, Aero: 0.15, Reliability: 0.20, TireGrip: 0.15,
		},
		BaseFailureRate: 0.020,
	},
	{
		Name:        "Monaco",
		Country:     "Monaco",
		Description: "Tight streets where handling is everything.",
		Weights: model.Weights{
			Power: 0.05, Handling: 0.45, Aero: 0.10, Reliability: 0.15, TireGrip: 0.25,
		},
		BaseFailureRate: 0.015,
	},
	{
		Name:        "Spa",
		Country:     "Belgium",
		Description: "Fast sweepers and changing weather. Aero matters.",
		Weights: model.Weights{
			Power: 0.25, Handling: 0.15, Aero: 0.35, Reliability: 0.15, TireGrip: 0.10,
		},
		BaseFailureRate: 0.025,
	},
	{
		Name:        "Silverstone",
		Country:     "United Kingdom",
		Description: "Balanced high speed circuit.",
		Weights: model.Weights{
			Power: 0.20, Handling: 0.20, Aero: 0.25, Reliability: 0.15, TireGrip: 0.20,
		},
		BaseFailureRate: 0.018,
	},
	{
		Name:        "Suzuka",
		Country:     "Japan",
		Description: "Figure eight. Punishes worn tires and tired engines.",
		Weights: model.Weights{
			Power: 0.15, Handling: 0.25, Aero: 0.20, Reliability: 0.20, TireGrip: 0.20,
		},
		BaseFailureRate: 0.030,
	},
}

type Catalog struct {
	tracks []model.Track
}

type catalogFile struct {
	Tracks []model.Track `yaml:"tracks"`
}

// Default returns the builtin catalog.
func Default() *Catalog {
	c, _ := New(builtin)
	return c
}

func New(tracks []model.Track) (*Catalog, error) {
	if len(tracks) == 0 {
		return nil, ErrEmptyCatalog
	}
	seen := map[string]bool{}
	for i := range tracks {
		if err := Validate(&tracks[i]); err != nil {
			return nil, err
		}
		key := strings.ToLower(tracks[i].Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate track %q: %w", tracks[i].Name, ErrInvalidTrack)
		}
		seen[key] = true
	}
	ret := make([]model.Track, len(tracks))
	copy(ret, tracks)
	return &Catalog{tracks: ret}, nil
}

// LoadFile reads a yaml catalog. The file has a top level "tracks" list.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse track catalog: %w", err)
	}
	return New(f.Tracks)
}

func Validate(t *model.Track) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("missing name: %w", ErrInvalidTrack)
	}
	if math.Abs(t.Weights.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("track %s: weights sum to %.3f: %w",
			t.Name, t.Weights.Sum(), ErrInvalidTrack)
	}
	if t.BaseFailureRate < 0 || t.BaseFailureRate > 0.2 {
		return fmt.Errorf("track %s: base failure rate %.3f: %w",
			t.Name, t.BaseFailureRate, ErrInvalidTrack)
	}
	return nil
}

// Get looks up a track by case-insensitive name.
func (c *Catalog) Get(name string) (*model.Track, error) {
	for i := range c.tracks {
		if strings.EqualFold(c.tracks[i].Name, strings.TrimSpace(name)) {
			t := c.tracks[i]
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownTrack)
}

// Pick selects a track uniformly at random.
func (c *Catalog) Pick(rng *rand.Rand) *model.Track {
	t := c.tracks[rng.IntN(len(c.tracks))]
	return &t
}

func (c *Catalog) Names() []string {
	ret := make([]string, 0, len(c.tracks))
	for i := range c.tracks {
		ret = append(ret, c.tracks[i].Name)
	}
	sort.Strings(ret)
	return ret
}

func (c *Catalog) Len() int {
	return len(c.tracks)
}
