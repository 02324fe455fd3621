package bot

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// userIDFromInteraction handles both guild (Member) and DM (User) contexts
func userIDFromInteraction(i *discordgo.InteractionCreate) (string, error) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID, nil
	}
	if i.User != nil {
		return i.User.ID, nil
	}
	return "", fmt.Errorf("could not determine user from interaction")
}

// stringOption returns the value of a named string option, or ""
func stringOption(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// respond answers an interaction. Ephemeral replies are only visible to the caller.
func respond(s Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("Error responding to /%s: %v", i.ApplicationCommandData().Name, err)
	}
}
