package bonus

// Tier is the bonus paid from a streak length upwards
type Tier struct {
	MinStreak int
	Bonus     int
}

// Tiers is ordered by descending MinStreak
var Tiers = []Tier{
	{MinStreak: 30, Bonus: 100},
	{MinStreak: 14, Bonus: 60},
	{MinStreak: 7, Bonus: 40},
	{MinStreak: 4, Bonus: 25},
	{MinStreak: 3, Bonus: 20},
	{MinStreak: 2, Bonus: 15},
	{MinStreak: 1, Bonus: 10},
}

// BonusFor returns the login bonus for a streak length
func BonusFor(streak int) int {
	for _, t := range Tiers {
		if streak >= t.MinStreak {
			return t.Bonus
		}
	}
	return 0
}
