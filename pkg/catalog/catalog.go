package catalog

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// InfiniteRequirement is the score at which infinite mode opens up
const InfiniteRequirement = 5000

// DefaultSyntheticCount is how many infinite-mode entries are generated per listing
const DefaultSyntheticCount = 3

const (
	syntheticPrefix    = "infinite-"
	syntheticBaseBonus = 50
	syntheticMaxBonus  = 200
	syntheticDuration  = 90
)

// ErrUnknownLocation is returned when a location id does not resolve
var ErrUnknownLocation = errors.New("unknown location")

// InfiniteNames is cycled through to name synthetic infinite-mode locations
var InfiniteNames = []string{
	"Starlit Observatory",
	"Hidden Hot Spring",
	"Midnight Aquarium",
	"Lantern Festival",
	"Seaside Lighthouse",
	"Snowy Mountain Cabin",
	"Rooftop Garden",
	"Moonlit Ferris Wheel",
}

// View is the slice of relationship state the catalog filters on
type View struct {
	Score                int
	InfiniteModeUnlocked bool
	InfiniteDateCount    int
}

// Catalog is a read-only table of locations. It is safe for concurrent use and
// can be shared across profiles.
type Catalog struct {
	locations      []Location
	byID           map[string]int
	syntheticCount int
}

var validate = validator.New()

// New builds a catalog from the given entries, rejecting invalid or duplicate ones
func New(locations []Location) (*Catalog, error) {
	c := &Catalog{
		locations:      make([]Location, 0, len(locations)),
		byID:           make(map[string]int, len(locations)),
		syntheticCount: DefaultSyntheticCount,
	}

	for _, loc := range locations {
		if err := validate.Struct(loc); err != nil {
			return nil, fmt.Errorf("invalid location %q: %w", loc.ID, err)
		}
		if strings.HasPrefix(loc.ID, syntheticPrefix) {
			return nil, fmt.Errorf("location id %q uses reserved prefix %q", loc.ID, syntheticPrefix)
		}
		if _, dup := c.byID[loc.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %q", loc.ID)
		}
		loc.AvailableSeasons = append([]Season(nil), loc.AvailableSeasons...)
		loc.Synthetic = false
		c.byID[loc.ID] = len(c.locations)
		c.locations = append(c.locations, loc)
	}

	return c, nil
}

// LoadFile reads a yaml list of locations
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Locations []Location `yaml:"locations"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	return New(file.Locations)
}

// WithSyntheticCount returns a copy of the catalog generating n infinite-mode entries per listing
func (c *Catalog) WithSyntheticCount(n int) *Catalog {
	if n < 0 {
		n = 0
	}
	cp := *c
	cp.syntheticCount = n
	return &cp
}

// Len returns the number of static entries
func (c *Catalog) Len() int {
	return len(c.locations)
}

// All returns a copy of the static entries in catalog order
func (c *Catalog) All() []Location {
	out := make([]Location, len(c.locations))
	copy(out, c.locations)
	return out
}

// Available lists the locations open to a relationship in the given season and
// time of day. Once infinite mode is unlocked, synthetic entries are appended.
func (c *Catalog) Available(view View, season Season, tod TimeOfDay) []Location {
	var out []Location
	for _, loc := range c.locations {
		if loc.RequiredIntimacy > view.Score {
			continue
		}
		if !loc.OpenIn(season) || !loc.FitsTime(tod) {
			continue
		}
		out = append(out, loc)
	}

	if view.InfiniteModeUnlocked {
		for i := 0; i < c.syntheticCount; i++ {
			out = append(out, Synthetic(view.InfiniteDateCount+i))
		}
	}

	return out
}

// UnlockedBetween returns the static entries whose requirement lies in (oldScore, newScore]
func (c *Catalog) UnlockedBetween(oldScore, newScore int) []Location {
	var out []Location
	for _, loc := range c.locations {
		if loc.RequiredIntimacy > oldScore && loc.RequiredIntimacy <= newScore {
			out = append(out, loc)
		}
	}
	return out
}

// Get resolves a static or synthetic location id
func (c *Catalog) Get(id string) (Location, bool) {
	if idx, ok := c.byID[id]; ok {
		return c.locations[idx], true
	}
	if rest, ok := strings.CutPrefix(id, syntheticPrefix); ok {
		k, err := strconv.Atoi(rest)
		if err == nil && k >= 0 {
			return Synthetic(k), true
		}
	}
	return Location{}, false
}

// Synthetic builds the k-th infinite-mode location. The result depends only on k.
func Synthetic(k int) Location {
	bonus := syntheticBaseBonus + k/10
	if bonus > syntheticMaxBonus {
		bonus = syntheticMaxBonus
	}

	return Location{
		ID:               syntheticPrefix + strconv.Itoa(k),
		DisplayName:      InfiniteNames[k%len(InfiniteNames)],
		Category:         "infinite",
		RequiredIntimacy: InfiniteRequirement,
		IntimacyBonus:    bonus,
		DurationMinutes:  syntheticDuration,
		AvailableSeasons: []Season{AllSeasons},
		TimeOfDay:        Anytime,
		IsSpecial:        true,
		Synthetic:        true,
	}
}
