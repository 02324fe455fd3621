package bot

import (
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (h *Handler) sendSplitMessage(s Session, channelID, content string, reference *discordgo.MessageReference) {
	// Blank lines separate the parts of a multi-part reply
	parts := strings.Split(content, "\n\n")

	isFirstPart := true
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var err error
		switch {
		case reference == nil:
			_, err = s.ChannelMessageSend(channelID, part)
		case isFirstPart:
			_, err = s.ChannelMessageSendReply(channelID, part, reference)
			isFirstPart = false
		default:
			// Later parts reply without pinging again
			_, err = s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
				Content:   part,
				Reference: reference,
				AllowedMentions: &discordgo.MessageAllowedMentions{
					RepliedUser: false,
				},
			})
		}

		if err != nil {
			log.Printf("Error sending message part: %v", err)
		}
	}
}

// stripMention removes the bot's mention tokens from a guild message
func stripMention(content, botID string) string {
	if botID == "" {
		return strings.TrimSpace(content)
	}
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}
