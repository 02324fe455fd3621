package bot

import (
	"context"
	"log"
	"time"

	"lovelink/pkg/catalog"

	"github.com/bwmarrin/discordgo"
)

const presenceInterval = 15 * time.Minute

// presenceFor picks the custom status for the companion's time of day
func presenceFor(tod catalog.TimeOfDay) (text, emoji string) {
	switch tod {
	case catalog.Morning:
		return "Getting coffee before class", "☕"
	case catalog.Afternoon:
		return "Free this afternoon... /places?", "🌤️"
	case catalog.Evening:
		return "Wondering where to go tonight", "🌆"
	default:
		return "Up late, can't sleep", "🌙"
	}
}

func (h *Handler) updatePresence(s Session) {
	text, emoji := presenceFor(catalog.TimeOfDayAt(h.now().In(h.location)))
	err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name:  "Custom Status",
				Type:  discordgo.ActivityTypeCustom,
				State: text,
				Emoji: discordgo.Emoji{Name: emoji},
			},
		},
		Status: "online",
	})
	if err != nil {
		log.Printf("Error updating status: %v", err)
	}
}

// RunPresence keeps the custom status in step with the time of day until ctx is done
func (h *Handler) RunPresence(ctx context.Context) {
	if h.session == nil {
		return
	}
	h.updatePresence(h.session)

	ticker := time.NewTicker(presenceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.updatePresence(h.session)
		}
	}
}
