package bot

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"lovelink/pkg/chat"

	"github.com/bwmarrin/discordgo"
)

// maxMessageLength rejects walls of text before they reach the generator
const maxMessageLength = 500

// turnTimeout bounds one message from load to reply
const turnTimeout = time.Minute

type Handler struct {
	companions      Companions
	botID           string
	location        *time.Location
	now             func() time.Time
	wg              sync.WaitGroup
	processingUsers map[string]bool
	processingMu    sync.Mutex
	session         Session
}

func NewHandler(c Companions, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		companions:      c,
		location:        loc,
		now:             time.Now,
		processingUsers: make(map[string]bool),
	}
}

func (h *Handler) SetBotID(id string) {
	h.botID = id
}

// SetSession gives background tasks a session to post with
func (h *Handler) SetSession(s Session) {
	h.session = s
}

func (h *Handler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.HandleMessage(&DiscordSession{s}, m)
}

// HandleMessage answers DMs and mentions. One message per user is processed
// at a time; extra messages that arrive meanwhile are dropped.
func (h *Handler) HandleMessage(s Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == h.botID || m.Author.Bot {
		return
	}

	channel, err := s.Channel(m.ChannelID)
	isDM := err == nil && channel.Type == discordgo.ChannelTypeDM

	isMentioned := false
	for _, user := range m.Mentions {
		if user.ID == h.botID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	if utf8.RuneCountInString(m.Content) > maxMessageLength {
		s.ChannelMessageSendReply(m.ChannelID, "that's a lot... can you keep it shorter?", m.Reference())
		return
	}

	h.processingMu.Lock()
	if h.processingUsers[m.Author.ID] {
		h.processingMu.Unlock()
		return
	}
	h.processingUsers[m.Author.ID] = true
	h.processingMu.Unlock()

	h.wg.Add(1)
	defer func() {
		h.processingMu.Lock()
		delete(h.processingUsers, m.Author.ID)
		h.processingMu.Unlock()
		h.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	c, release, err := h.companions.Acquire(ctx, m.Author.ID)
	if err != nil {
		log.Printf("Error loading companion for %s: %v", m.Author.ID, err)
		s.ChannelMessageSendReply(m.ChannelID, "ugh, something went wrong on my end... try again in a bit?", m.Reference())
		return
	}
	defer release()

	s.ChannelTyping(m.ChannelID)

	content := stripMention(m.Content, h.botID)
	res, err := c.Send(ctx, content)
	if errors.Is(err, chat.ErrEmptyMessage) {
		return
	}
	if err != nil {
		log.Printf("Error handling message from %s: %v", m.Author.ID, err)
		return
	}

	var reference *discordgo.MessageReference
	if !isDM {
		reference = m.Reference()
	}
	h.sendSplitMessage(s, m.ChannelID, res.Reply.Text, reference)

	if extra := formatChange(res.Change); extra != "" {
		if _, err := s.ChannelMessageSend(m.ChannelID, extra); err != nil {
			log.Printf("Error sending progress update: %v", err)
		}
	}
}

func (h *Handler) WaitForReady() {
	h.wg.Wait()
}
