package bot

import (
	"testing"
	"time"

	"lovelink/pkg/catalog"
	"lovelink/pkg/date"
	"lovelink/pkg/relationship"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func command(userID, name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			User: &discordgo.User{ID: userID},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    name,
				Options: options,
			},
		},
	}
}

func placeOption(id string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "place",
		Type:  discordgo.ApplicationCommandOptionString,
		Value: id,
	}
}

func TestSlashCommandsHaveHandlers(t *testing.T) {
	for _, cmd := range SlashCommands {
		_, ok := SlashCommandHandlers[cmd.Name]
		assert.True(t, ok, cmd.Name)
	}
	assert.Len(t, SlashCommandHandlers, len(SlashCommands))
}

func TestDateCommands(t *testing.T) {
	h, _, comps := newTestHandler(t, "ok", 20)
	s := &MockSession{}

	h.HandleInteraction(s, command("user1", "date", placeOption("moon")))
	data := s.lastResponse(t)
	assert.Contains(t, data.Content, "/places")
	assert.Equal(t, discordgo.MessageFlagsEphemeral, data.Flags)

	h.HandleInteraction(s, command("user1", "date", placeOption("karaoke")))
	assert.Contains(t, s.lastResponse(t).Content, "not that close")

	h.HandleInteraction(s, command("user1", "enddate"))
	assert.Contains(t, s.lastResponse(t).Content, "not on a date")

	h.HandleInteraction(s, command("user1", "date", placeOption("arcade")))
	data = s.lastResponse(t)
	assert.Contains(t, data.Content, "Game Center")
	assert.Zero(t, data.Flags, "date announcements are public")

	c := comps.get(t, "user1")
	_, active := c.ActiveDate()
	assert.True(t, active)

	h.HandleInteraction(s, command("user1", "enddate"))
	assert.Contains(t, s.lastResponse(t).Content, "+5")
	assert.Equal(t, 25, c.Snapshot().IntimacyScore)
}

func TestBonusCommand(t *testing.T) {
	h, _, _ := newTestHandler(t, "ok", 0)
	s := &MockSession{}

	h.HandleInteraction(s, command("user1", "bonus"))
	assert.Contains(t, s.lastResponse(t).Content, "**+10**")

	h.HandleInteraction(s, command("user1", "bonus"))
	data := s.lastResponse(t)
	assert.Contains(t, data.Content, "Already claimed today")
	assert.Contains(t, data.Content, "12 hours from now")
	assert.Equal(t, discordgo.MessageFlagsEphemeral, data.Flags)
}

func TestStatusPlacesAndReset(t *testing.T) {
	h, _, comps := newTestHandler(t, "ok", 150)
	s := &MockSession{}

	h.HandleInteraction(s, command("user1", "status"))
	assert.Contains(t, s.lastResponse(t).Content, "**Acquaintance**")

	h.HandleInteraction(s, command("user1", "places"))
	places := s.lastResponse(t).Content
	assert.Contains(t, places, "`cafe`")
	assert.Contains(t, places, "`bookstore`")
	assert.NotContains(t, places, "`karaoke`", "evening only")

	h.HandleInteraction(s, command("user1", "reset"))
	c := comps.get(t, "user1")
	assert.Equal(t, 0, c.Snapshot().IntimacyScore)
	assert.Equal(t, 1, c.Snapshot().ResetEpoch)
	assert.True(t, comps.balanced(), "every lease is released")
}

func TestHandleInteraction_IgnoresOtherTypes(t *testing.T) {
	h, _, _ := newTestHandler(t, "ok", 0)
	s := &MockSession{}

	h.HandleInteraction(s, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}})
	h.HandleInteraction(s, command("user1", "nope"))
	assert.Empty(t, s.Responses)
}

func TestFormatChange(t *testing.T) {
	assert.Empty(t, formatChange(relationship.Change{Amount: 3, OldScore: 1, NewScore: 4}))

	c := relationship.Change{
		StageChanged:     true,
		Stage:            relationship.Stages[6],
		Milestone:        relationship.Stages[6].Milestone,
		NewlyUnlocked:    []catalog.Location{{DisplayName: "First Sunrise of the Year"}},
		InfiniteUnlocked: true,
	}
	out := formatChange(c)
	assert.Contains(t, out, "**Soulmate** reached!")
	assert.Contains(t, out, "First Sunrise of the Year")
	assert.Contains(t, out, "Infinite mode")
}

func TestFormatDateStarted_Replaced(t *testing.T) {
	cafe, _ := catalog.Default().Get("cafe")
	arcade, _ := catalog.Default().Get("arcade")
	out := formatDateStarted(date.Started{
		Session: date.Session{Location: arcade},
		Replaced: &date.Result{
			Session:  date.Session{Location: cafe, MessagesExchanged: 6},
			Duration: 31 * time.Minute,
			Reward:   11,
		},
	})
	assert.Contains(t, out, "Corner Cafe")
	assert.Contains(t, out, "**+11**")
	assert.Contains(t, out, "Game Center")
}

func TestFormatPlaces_Empty(t *testing.T) {
	assert.Contains(t, formatPlaces(nil), "Nowhere")
}
