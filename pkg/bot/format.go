package bot

import (
	"fmt"
	"strings"
	"time"

	"lovelink/pkg/bonus"
	"lovelink/pkg/catalog"
	"lovelink/pkg/date"
	"lovelink/pkg/relationship"

	"github.com/dustin/go-humanize"
)

// formatChange describes what a score change unlocked, or "" when nothing did
func formatChange(c relationship.Change) string {
	var lines []string
	if c.StageChanged {
		lines = append(lines, fmt.Sprintf("%s **%s** reached!", c.Stage.Emoji, c.Stage.Name))
		if c.Milestone != "" {
			lines = append(lines, c.Milestone)
		}
	}
	if len(c.NewlyUnlocked) > 0 {
		names := make([]string, len(c.NewlyUnlocked))
		for i, loc := range c.NewlyUnlocked {
			names[i] = loc.DisplayName
		}
		lines = append(lines, "🔓 New places: "+strings.Join(names, ", "))
	}
	if c.InfiniteUnlocked {
		lines = append(lines, "♾️ Infinite mode unlocked! New places appear after every date.")
	}
	return strings.Join(lines, "\n")
}

func formatDateStarted(started date.Started) string {
	var sb strings.Builder
	if started.Replaced != nil {
		sb.WriteString(formatDateEnded(*started.Replaced))
		sb.WriteString("\n\n")
	}
	loc := started.Session.Location
	fmt.Fprintf(&sb, "📍 Date started at **%s** (about %d min). Talk to me here, `/enddate` when you're done!", loc.DisplayName, loc.DurationMinutes)
	return sb.String()
}

func formatDateEnded(r date.Result) string {
	s := fmt.Sprintf("💝 Our date at **%s** is over after %s: **+%d** intimacy (%d messages)",
		r.Session.Location.DisplayName, r.Duration.Round(time.Minute), r.Reward, r.Session.MessagesExchanged)
	if extra := formatChange(r.Change); extra != "" {
		s += "\n" + extra
	}
	return s
}

func formatGrant(g bonus.Grant) string {
	s := fmt.Sprintf("🎁 Day %d login bonus: **+%d** intimacy (%d day streak)", g.Entry.Day, g.IntimacyBonus, g.Entry.Streak)
	if extra := formatChange(g.Change); extra != "" {
		s += "\n" + extra
	}
	return s
}

func formatPlaces(places []catalog.Location) string {
	if len(places) == 0 {
		return "Nowhere to go right now... try again later?"
	}
	var sb strings.Builder
	sb.WriteString("**Where should we go?**\n")
	for _, loc := range places {
		marker := "•"
		if loc.IsSpecial {
			marker = "✨"
		}
		fmt.Fprintf(&sb, "%s `%s` %s (+%d, %s)\n", marker, loc.ID, loc.DisplayName, loc.IntimacyBonus, loc.Category)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatNextBonus(now time.Time, loc *time.Location) string {
	t := now.In(loc)
	tomorrow := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
	return "Already claimed today! Next bonus " + humanize.RelTime(tomorrow, now, "ago", "from now")
}
