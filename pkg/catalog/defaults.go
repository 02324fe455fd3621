package catalog

import "log"

// DefaultLocations is the built-in static table, ordered by requirement
var DefaultLocations = []Location{
	{ID: "cafe", DisplayName: "Corner Cafe", Category: "casual", RequiredIntimacy: 0, IntimacyBonus: 3, DurationMinutes: 30, AvailableSeasons: []Season{AllSeasons}, TimeOfDay: Anytime},
	{ID: "park", DisplayName: "Riverside Park", Category: "outdoor", RequiredIntimacy: 0, IntimacyBonus: 3, DurationMinutes: 45, AvailableSeasons: []Season{Spring, Summer, Autumn}, TimeOfDay: Afternoon},
	{ID: "arcade", DisplayName: "Game Center", Category: "entertainment", RequiredIntimacy: 15, IntimacyBonus: 5, DurationMinutes: 60, AvailableSeasons: []Season{AllSeasons}, TimeOfDay: Anytime},
	{ID: "bookstore", DisplayName: "Used Bookstore", Category: "casual", RequiredIntimacy: 50, IntimacyBonus: 5, DurationMinutes: 40, AvailableSeasons: []Season{AllSeasons}, TimeOfDay: Afternoon},
	{ID: "karaoke", DisplayName: "Karaoke Box", Category: "entertainment", RequiredIntimacy: 120, IntimacyBonus: 8, DurationMinutes: 90, AvailableSeasons: []Season{AllSeasons}, TimeOfDay: Evening},
	{ID: "hanami", DisplayName: "Cherry Blossom Viewing", Category: "seasonal", RequiredIntimacy: 200, IntimacyBonus: 12, DurationMinutes: 120, AvailableSeasons: []Season{Spring}, TimeOfDay: Afternoon, IsSpecial: true},
	{ID: "beach", DisplayName: "Beach Day", Category: "outdoor", RequiredIntimacy: 320, IntimacyBonus: 12, DurationMinutes: 180, AvailableSeasons: []Season{Summer}, TimeOfDay: Morning},
	{ID: "fireworks", DisplayName: "Summer Fireworks", Category: "seasonal", RequiredIntimacy: 450, IntimacyBonus: 18, DurationMinutes: 120, AvailableSeasons: []Season{Summer}, TimeOfDay: Night, IsSpecial: true},
	{ID: "aquarium", DisplayName: "City Aquarium", Category: "entertainment", RequiredIntimacy: 600, IntimacyBonus: 15, DurationMinutes: 120, AvailableSeasons: []Season{AllSeasons}, TimeOfDay: Afternoon},
	{ID: "autumn-leaves", DisplayName: "Autumn Leaves Walk", Category: "seasonal", RequiredIntimacy: 800, IntimacyBonus: 20, DurationMinutes: 90, AvailableSeasons: []Season{Autumn}, TimeOfDay: Afternoon, IsSpecial: true},
	{ID: "amusement-park", DisplayName: "Amusement Park", Category: "entertainment", RequiredIntimacy: 1100, IntimacyBonus: 25, DurationMinutes: 240, AvailableSeasons: []Season{AllSeasons}, TimeOfDay: Anytime},
	{ID: "illumination", DisplayName: "Winter Illumination", Category: "seasonal", RequiredIntimacy: 1800, IntimacyBonus: 30, DurationMinutes: 90, AvailableSeasons: []Season{Winter}, TimeOfDay: Night, IsSpecial: true},
	{ID: "night-view", DisplayName: "Observation Deck Night View", Category: "romantic", RequiredIntimacy: 2500, IntimacyBonus: 35, DurationMinutes: 60, AvailableSeasons: []Season{AllSeasons}, TimeOfDay: Night},
	{ID: "onsen-trip", DisplayName: "Overnight Onsen Trip", Category: "romantic", RequiredIntimacy: 3500, IntimacyBonus: 45, DurationMinutes: 480, AvailableSeasons: []Season{Autumn, Winter}, TimeOfDay: Anytime, IsSpecial: true},
	{ID: "first-sunrise", DisplayName: "First Sunrise of the Year", Category: "romantic", RequiredIntimacy: 4500, IntimacyBonus: 50, DurationMinutes: 120, AvailableSeasons: []Season{Winter}, TimeOfDay: Morning, IsSpecial: true},
}

// Default returns a catalog over DefaultLocations
func Default() *Catalog {
	c, err := New(DefaultLocations)
	if err != nil {
		// The built-in table is covered by tests; this only trips on a bad edit.
		log.Fatalf("Invalid built-in catalog: %v", err)
	}
	return c
}
