package chat

import (
	"strings"
	"unicode/utf8"
)

// EmotionMarkers are the tokens in a reply that count towards the emotion bonus
var EmotionMarkers = []string{
	"❤", "♡", "♥", "💕", "💖", "😊", "🥰", "😳", "♪", "~",
	"haha", "hehe", "love", "miss you", "happy", "glad", "yay",
}

const (
	maxLengthBonus  = 2
	maxEmotionBonus = 3
	charsPerPoint   = 20
)

// Reward scores a successful reply. A reply during a date earns one extra
// base point.
func Reward(reply string, dateActive bool) int {
	base := 1
	if dateActive {
		base = 2
	}
	return base + LengthBonus(reply) + EmotionBonus(reply)
}

// LengthBonus is one point per 20 characters, capped at 2
func LengthBonus(reply string) int {
	return min(utf8.RuneCountInString(reply)/charsPerPoint, maxLengthBonus)
}

// EmotionBonus counts marker occurrences, capped at 3
func EmotionBonus(reply string) int {
	lower := strings.ToLower(reply)
	count := 0
	for _, m := range EmotionMarkers {
		count += strings.Count(lower, m)
		if count >= maxEmotionBonus {
			return maxEmotionBonus
		}
	}
	return count
}
