package companion

import (
	"fmt"
	"strings"
	"time"

	"lovelink/pkg/bonus"
	"lovelink/pkg/date"
	"lovelink/pkg/relationship"

	"github.com/dustin/go-humanize"
)

// Status is a point-in-time view of one profile
type Status struct {
	Profile        relationship.Profile
	Stage          relationship.Stage
	Progress       float64             // 0.0 to 1.0 within the stage
	NextStage      *relationship.Stage // nil at the top stage
	ActiveDate     *date.Session
	Bonus          bonus.Entry
	BonusAvailable bool
	Streak         int
	Dirty          bool // A remote write is still outstanding
	LastSynced     time.Time
	At             time.Time
}

const barLength = 10

// ProgressBar renders p as a fixed-width bar
func ProgressBar(p float64) string {
	filled := int(p * barLength)
	if filled > barLength {
		filled = barLength
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled)
}

// FormatStatus renders the status card shown to the user
func FormatStatus(s Status) string {
	var sb strings.Builder
	score := s.Profile.IntimacyScore

	if s.NextStage == nil {
		fmt.Fprintf(&sb, "%s **%s** (MAX)\n%s\n`%s intimacy`", s.Stage.Emoji, s.Stage.Name, ProgressBar(1), humanize.Comma(int64(score)))
	} else {
		fmt.Fprintf(&sb, "%s **%s**\n%s\n`%s / %s` to %s",
			s.Stage.Emoji, s.Stage.Name, ProgressBar(s.Progress),
			humanize.Comma(int64(score)), humanize.Comma(int64(s.NextStage.Min)), s.NextStage.Name)
	}

	if s.Profile.InfiniteModeUnlocked {
		fmt.Fprintf(&sb, "\n♾️ Infinite mode unlocked (%d infinite dates)", s.Profile.InfiniteDateCount)
	}
	fmt.Fprintf(&sb, "\n📅 %s dates so far", humanize.Comma(int64(s.Profile.TotalDateCount)))

	if s.ActiveDate != nil {
		started := s.ActiveDate.StartTime
		at := s.At
		if at.IsZero() {
			at = time.Now()
		}
		fmt.Fprintf(&sb, "\n📍 On a date at %s since %s (%d messages, +%d so far)",
			s.ActiveDate.Location.DisplayName, humanize.RelTime(started, at, "ago", "from now"),
			s.ActiveDate.MessagesExchanged, s.ActiveDate.IntimacyGainedThisSession)
	}

	if s.Streak > 0 {
		flames := "🔥"
		if s.Streak >= 7 {
			flames = "🔥🔥"
		}
		if s.Streak >= 30 {
			flames = "🔥🔥🔥"
		}
		fmt.Fprintf(&sb, "\n%s **%d day streak!**", flames, s.Streak)
	}
	if s.BonusAvailable {
		fmt.Fprintf(&sb, "\n🎁 Login bonus ready: +%d (day %d)", s.Bonus.BonusAmount, s.Bonus.Day)
	}

	if s.Dirty {
		sb.WriteString("\n⚠️ Offline, progress saved on this device")
	}
	return sb.String()
}
