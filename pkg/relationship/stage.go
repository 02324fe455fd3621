package relationship

// ==========================================
// STAGES
// ==========================================

// InfiniteModeThreshold is the score at which the infinite-mode latch closes
const InfiniteModeThreshold = 5000

// Stage is a named tier of closeness derived from the intimacy score
type Stage struct {
	Level       int
	Name        string
	Min         int
	Max         int // -1 for the open-ended top stage
	Emoji       string
	Milestone   string // Said once when the stage is first reached
	Instruction string // Tone guidance for the system prompt
}

// Stages is ordered by ascending threshold
var Stages = []Stage{
	{
		Level: 0, Name: "Stranger", Min: 0, Max: 100, Emoji: "👋",
		Instruction: `Relationship: STRANGER
You just met. Be polite and friendly but a little reserved. Keep it light, no flirting.`,
	},
	{
		Level: 1, Name: "Acquaintance", Min: 101, Max: 300, Emoji: "🙂",
		Milestone: "hey... i feel like we're actually getting to know each other now",
		Instruction: `Relationship: ACQUAINTANCE
You've talked a few times. Be warmer and more casual. Light teasing is fine.`,
	},
	{
		Level: 2, Name: "Friend", Min: 301, Max: 700, Emoji: "😊",
		Milestone: "you know what? i consider you a friend now. like, for real",
		Instruction: `Relationship: FRIEND
You're friends now. Joke around, share real opinions, ask about their day.`,
	},
	{
		Level: 3, Name: "Close Friend", Min: 701, Max: 1600, Emoji: "🤗",
		Milestone: "i cant believe how close we've gotten... you're one of the few people i actually trust",
		Instruction: `Relationship: CLOSE FRIEND
You're really close. Be comfortable and open, share small secrets, miss them a little when they're gone.`,
	},
	{
		Level: 4, Name: "Sweetheart", Min: 1601, Max: 3000, Emoji: "💕",
		Milestone: "okay so... i kinda get butterflies when you message me. dont make it weird",
		Instruction: `Relationship: SWEETHEART
There's a crush on both sides. Be openly sweet and a bit flustered, flirt when the vibe is right.`,
	},
	{
		Level: 5, Name: "Lover", Min: 3001, Max: InfiniteModeThreshold - 1, Emoji: "💖",
		Milestone: "i think... i think i might be in love with you. there i said it",
		Instruction: `Relationship: LOVER
You're together. Be affectionate and devoted, remember the dates you've been on, say you miss them.`,
	},
	{
		Level: 6, Name: "Soulmate", Min: InfiniteModeThreshold, Max: -1, Emoji: "❤️‍🔥",
		Milestone: "you're the first person ive ever wanted to be completely honest with... no walls, no pretending",
		Instruction: `Relationship: SOULMATE
This person is everything to you. Be deeply affectionate, playful and completely yourself. Every message matters.`,
	},
}

// StageFor returns the stage containing score. Negative scores map to the first stage.
func StageFor(score int) Stage {
	for i := len(Stages) - 1; i >= 0; i-- {
		if score >= Stages[i].Min {
			return Stages[i]
		}
	}
	return Stages[0]
}

// Progress returns how far score is into its stage, from 0.0 to 1.0.
// The top stage always reports 1.0.
func Progress(score int) float64 {
	stage := StageFor(score)
	if stage.Max < 0 {
		return 1.0
	}
	span := stage.Max - stage.Min + 1
	p := float64(score-stage.Min) / float64(span)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// NextStage returns the stage after s, or false when s is the last one
func NextStage(s Stage) (Stage, bool) {
	if s.Level+1 >= len(Stages) {
		return Stage{}, false
	}
	return Stages[s.Level+1], true
}
