package catalog

import "time"

// Season is the time of year a location can be visited
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
	// AllSeasons marks a location that is open all year. As a query value it
	// disables season filtering.
	AllSeasons Season = "all"
)

// TimeOfDay is the part of the day a location fits
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
	Anytime   TimeOfDay = "anytime"
)

// Location is an immutable catalog entry a date can take place at
type Location struct {
	ID               string    `yaml:"id" validate:"required"`
	DisplayName      string    `yaml:"display_name" validate:"required"`
	Category         string    `yaml:"category" validate:"required"`
	RequiredIntimacy int       `yaml:"required_intimacy" validate:"gte=0"`
	IntimacyBonus    int       `yaml:"intimacy_bonus" validate:"gte=0"`
	DurationMinutes  int       `yaml:"duration_minutes" validate:"gte=0"`
	AvailableSeasons []Season  `yaml:"available_seasons" validate:"required,min=1,dive,oneof=spring summer autumn winter all"`
	TimeOfDay        TimeOfDay `yaml:"time_of_day" validate:"required,oneof=morning afternoon evening night anytime"`
	IsSpecial        bool      `yaml:"is_special"`
	// Synthetic is set on entries generated for infinite mode
	Synthetic bool `yaml:"-"`
}

// OpenIn reports whether the location can be visited in the given season
func (l Location) OpenIn(season Season) bool {
	if season == AllSeasons || season == "" {
		return true
	}
	for _, s := range l.AvailableSeasons {
		if s == season || s == AllSeasons {
			return true
		}
	}
	return false
}

// FitsTime reports whether the location can be visited at the given time of day
func (l Location) FitsTime(tod TimeOfDay) bool {
	return tod == Anytime || tod == "" || l.TimeOfDay == Anytime || l.TimeOfDay == tod
}

// SeasonAt returns the (northern hemisphere) season for t
func SeasonAt(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Autumn
	default:
		return Winter
	}
}

// TimeOfDayAt buckets the hour of t
func TimeOfDayAt(t time.Time) TimeOfDay {
	hour := t.Hour()
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}
