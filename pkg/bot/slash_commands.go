package bot

import (
	"context"
	"errors"
	"log"
	"time"

	"lovelink/pkg/bonus"
	"lovelink/pkg/catalog"
	"lovelink/pkg/companion"
	"lovelink/pkg/date"

	"github.com/bwmarrin/discordgo"
)

const commandTimeout = 15 * time.Second

// SlashCommands defines all available slash commands
var SlashCommands = []*discordgo.ApplicationCommand{
	{
		Name:        "date",
		Description: "Go on a date somewhere (see /places)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "place",
				Description: "Place id, like cafe or arcade",
				Required:    true,
			},
		},
	},
	{
		Name:        "enddate",
		Description: "End the current date and collect the reward",
	},
	{
		Name:        "bonus",
		Description: "Claim today's login bonus",
	},
	{
		Name:        "status",
		Description: "See how close we are",
	},
	{
		Name:        "places",
		Description: "List the places we can go right now",
	},
	{
		Name:        "reset",
		Description: "Start the relationship over from zero (keeps your login streak)",
	},
}

type commandFunc func(h *Handler, s Session, i *discordgo.InteractionCreate, c *companion.Companion)

// SlashCommandHandlers maps command names to their handler functions
var SlashCommandHandlers = map[string]commandFunc{
	"date":    handleDateCommand,
	"enddate": handleEndDateCommand,
	"bonus":   handleBonusCommand,
	"status":  handleStatusCommand,
	"places":  handlePlacesCommand,
	"reset":   handleResetCommand,
}

func handleDateCommand(h *Handler, s Session, i *discordgo.InteractionCreate, c *companion.Companion) {
	place := stringOption(i, "place")
	started, err := c.StartDate(place)
	switch {
	case errors.Is(err, catalog.ErrUnknownLocation):
		respond(s, i, "I don't know that place... check `/places`?", true)
	case errors.Is(err, date.ErrInsufficientIntimacy):
		respond(s, i, "we're not that close yet... maybe somewhere else first? 👉👈", true)
	case err != nil:
		log.Printf("Error starting date for %s: %v", c.ID(), err)
		respond(s, i, "something went wrong, try again?", true)
	default:
		respond(s, i, formatDateStarted(started), false)
	}
}

func handleEndDateCommand(h *Handler, s Session, i *discordgo.InteractionCreate, c *companion.Companion) {
	result, err := c.EndDate()
	if errors.Is(err, date.ErrNoActiveDate) {
		respond(s, i, "we're not on a date right now!", true)
		return
	}
	if err != nil {
		log.Printf("Error ending date for %s: %v", c.ID(), err)
		respond(s, i, "something went wrong, try again?", true)
		return
	}
	respond(s, i, formatDateEnded(result), false)
}

func handleBonusCommand(h *Handler, s Session, i *discordgo.InteractionCreate, c *companion.Companion) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	now := h.now()
	grant, ok, err := c.ClaimBonus(ctx, now)
	switch {
	case errors.Is(err, bonus.ErrClaimInProgress):
		respond(s, i, "hold on, I'm already on it!", true)
	case err != nil:
		log.Printf("Error claiming bonus for %s: %v", c.ID(), err)
		respond(s, i, "something went wrong, try again?", true)
	case !ok:
		respond(s, i, formatNextBonus(now, h.location), true)
	default:
		respond(s, i, formatGrant(grant), false)
	}
}

func handleStatusCommand(h *Handler, s Session, i *discordgo.InteractionCreate, c *companion.Companion) {
	respond(s, i, companion.FormatStatus(c.Status()), true)
}

func handlePlacesCommand(h *Handler, s Session, i *discordgo.InteractionCreate, c *companion.Companion) {
	respond(s, i, formatPlaces(c.Available(h.now())), true)
}

func handleResetCommand(h *Handler, s Session, i *discordgo.InteractionCreate, c *companion.Companion) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	c.Reset(ctx)
	respond(s, i, "okay... starting over. nice to meet you! 👋", true)
}

// InteractionCreate handles all slash command interactions
func (h *Handler) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.HandleInteraction(&DiscordSession{s}, i)
}

func (h *Handler) HandleInteraction(s Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	commandName := i.ApplicationCommandData().Name
	handler, ok := SlashCommandHandlers[commandName]
	if !ok {
		log.Printf("Unknown slash command: %s", commandName)
		return
	}

	userID, err := userIDFromInteraction(i)
	if err != nil {
		log.Printf("Error handling /%s: %v", commandName, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	c, release, err := h.companions.Acquire(ctx, userID)
	if err != nil {
		log.Printf("Error loading companion for %s: %v", userID, err)
		respond(s, i, "ugh, something went wrong on my end... try again in a bit?", true)
		return
	}
	defer release()

	handler(h, s, i, c)
}

// RegisterSlashCommands registers all slash commands with Discord
func RegisterSlashCommands(s *discordgo.Session, guildID string) ([]*discordgo.ApplicationCommand, error) {
	log.Println("Registering slash commands...")

	registeredCommands := make([]*discordgo.ApplicationCommand, len(SlashCommands))

	for i, cmd := range SlashCommands {
		// Register globally (guildID = "") or for a specific guild
		registeredCmd, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, cmd)
		if err != nil {
			log.Printf("Cannot create '%s' command: %v", cmd.Name, err)
			return nil, err
		}
		registeredCommands[i] = registeredCmd
		log.Printf("Registered command: %s", cmd.Name)
	}

	return registeredCommands, nil
}

// UnregisterSlashCommands removes all registered slash commands
func UnregisterSlashCommands(s *discordgo.Session, guildID string, commands []*discordgo.ApplicationCommand) error {
	log.Println("Unregistering slash commands...")

	for _, cmd := range commands {
		err := s.ApplicationCommandDelete(s.State.User.ID, guildID, cmd.ID)
		if err != nil {
			log.Printf("Cannot delete '%s' command: %v", cmd.Name, err)
			return err
		}
		log.Printf("Unregistered command: %s", cmd.Name)
	}

	return nil
}
