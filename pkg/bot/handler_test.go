package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"lovelink/pkg/bonus"
	"lovelink/pkg/catalog"
	"lovelink/pkg/chat"
	"lovelink/pkg/companion"
	"lovelink/pkg/relationship"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSession implements Session for testing
type MockSession struct {
	mu           sync.Mutex
	SentMessages []string
	Replies      int
	TypingCalls  int
	ChannelType  discordgo.ChannelType
	Responses    []*discordgo.InteractionResponse
	Statuses     []discordgo.UpdateStatusData
}

func (m *MockSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, content)
	return &discordgo.Message{ID: "mock_msg_id", ChannelID: channelID, Content: content}, nil
}

func (m *MockSession) ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, content)
	m.Replies++
	return &discordgo.Message{ID: "mock_msg_id", ChannelID: channelID, Content: content}, nil
}

func (m *MockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, data.Content)
	return &discordgo.Message{ID: "mock_msg_id", ChannelID: channelID, Content: data.Content}, nil
}

func (m *MockSession) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	m.TypingCalls++
	m.mu.Unlock()
	return nil
}

func (m *MockSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	channelType := m.ChannelType
	if channelType == 0 {
		channelType = discordgo.ChannelTypeGuildText
	}
	return &discordgo.Channel{ID: channelID, Type: channelType}, nil
}

func (m *MockSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, resp)
	return nil
}

func (m *MockSession) UpdateStatusComplex(usd discordgo.UpdateStatusData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statuses = append(m.Statuses, usd)
	return nil
}

func (m *MockSession) lastResponse(t *testing.T) *discordgo.InteractionResponseData {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.Responses)
	return m.Responses[len(m.Responses)-1].Data
}

// recordingGenerator replies with a fixed text and remembers what it was asked
type recordingGenerator struct {
	mu    sync.Mutex
	reply string
	seen  []string
}

func (g *recordingGenerator) Generate(ctx context.Context, req chat.Request) (chat.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = append(g.seen, req.UserMessage)
	return chat.Response{Text: g.reply}, nil
}

// fakeCompanions builds companions on demand at a preset score
type fakeCompanions struct {
	mu       sync.Mutex
	gen      chat.Generator
	score    int
	now      func() time.Time
	byID     map[string]*companion.Companion
	leased   int
	released int
}

func (f *fakeCompanions) Acquire(ctx context.Context, id string) (*companion.Companion, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.getLocked(id)
	if err != nil {
		return nil, nil, err
	}
	f.leased++
	return c, func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}, nil
}

func (f *fakeCompanions) get(t *testing.T, id string) *companion.Companion {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.getLocked(id)
	require.NoError(t, err)
	return c
}

func (f *fakeCompanions) getLocked(id string) (*companion.Companion, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	p := relationship.NewProfile(id)
	p.IntimacyScore = f.score
	c, err := companion.New(p, bonus.Record{}, companion.Deps{
		Catalog:   catalog.Default(),
		Generator: f.gen,
		Location:  time.UTC,
		Now:       f.now,
	})
	if err != nil {
		return nil, err
	}
	f.byID[id] = c
	return c, nil
}

func (f *fakeCompanions) balanced() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leased == f.released
}

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, reply string, score int) (*Handler, *recordingGenerator, *fakeCompanions) {
	t.Helper()
	gen := &recordingGenerator{reply: reply}
	comps := &fakeCompanions{
		gen:   gen,
		score: score,
		now:   func() time.Time { return testNow },
		byID:  make(map[string]*companion.Companion),
	}
	h := NewHandler(comps, time.UTC)
	h.now = func() time.Time { return testNow }
	h.SetBotID("bot123")
	return h, gen, comps
}

func message(authorID, content string, mentions ...*discordgo.User) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "msg1",
			ChannelID: "chan1",
			Content:   content,
			Author:    &discordgo.User{ID: authorID, Username: "tester"},
			Mentions:  mentions,
		},
	}
}

func TestHandleMessage_DMGetsReply(t *testing.T) {
	h, gen, comps := newTestHandler(t, "hi there", 0)
	s := &MockSession{ChannelType: discordgo.ChannelTypeDM}

	h.HandleMessage(s, message("user1", "hello"))

	assert.Equal(t, []string{"hi there"}, s.SentMessages)
	assert.Equal(t, 0, s.Replies, "DMs are not threaded replies")
	assert.Equal(t, 1, s.TypingCalls)
	assert.Equal(t, []string{"hello"}, gen.seen)

	c := comps.get(t, "user1")
	assert.Equal(t, 1, c.Snapshot().IntimacyScore)
	assert.True(t, comps.balanced(), "every lease is released")
}

func TestHandleMessage_IgnoresSelfAndUnmentioned(t *testing.T) {
	h, gen, _ := newTestHandler(t, "hi", 0)
	s := &MockSession{}

	h.HandleMessage(s, message("bot123", "hello"))
	h.HandleMessage(s, message("user1", "just chatting"))

	assert.Empty(t, s.SentMessages)
	assert.Empty(t, gen.seen)
}

func TestHandleMessage_MentionIsStripped(t *testing.T) {
	h, gen, _ := newTestHandler(t, "hey!", 0)
	s := &MockSession{}

	h.HandleMessage(s, message("user1", "<@bot123> wanna hang out?", &discordgo.User{ID: "bot123"}))

	assert.Equal(t, []string{"wanna hang out?"}, gen.seen)
	assert.Equal(t, 1, s.Replies)
}

func TestHandleMessage_TooLong(t *testing.T) {
	h, gen, _ := newTestHandler(t, "hi", 0)
	s := &MockSession{ChannelType: discordgo.ChannelTypeDM}

	h.HandleMessage(s, message("user1", strings.Repeat("a", maxMessageLength+1)))

	require.Len(t, s.SentMessages, 1)
	assert.Contains(t, s.SentMessages[0], "shorter")
	assert.Empty(t, gen.seen)
}

func TestHandleMessage_AnnouncesStageChange(t *testing.T) {
	h, _, _ := newTestHandler(t, "ok", 100)
	s := &MockSession{ChannelType: discordgo.ChannelTypeDM}

	h.HandleMessage(s, message("user1", "hello"))

	require.Len(t, s.SentMessages, 2)
	assert.Contains(t, s.SentMessages[1], "**Acquaintance** reached!")
	assert.Contains(t, s.SentMessages[1], relationship.Stages[1].Milestone)
}

func TestSendSplitMessage(t *testing.T) {
	h, _, _ := newTestHandler(t, "", 0)
	s := &MockSession{}
	ref := &discordgo.MessageReference{MessageID: "msg1"}

	h.sendSplitMessage(s, "chan1", "first\n\nsecond\n\n\n\nthird", ref)

	assert.Equal(t, []string{"first", "second", "third"}, s.SentMessages)
	assert.Equal(t, 1, s.Replies)
}

func TestStripMention(t *testing.T) {
	assert.Equal(t, "hi", stripMention("<@bot> hi", "bot"))
	assert.Equal(t, "hi", stripMention("hi <@!bot>", "bot"))
	assert.Equal(t, "hi", stripMention(" hi ", ""))
}

func TestUpdatePresence(t *testing.T) {
	h, _, _ := newTestHandler(t, "", 0)
	s := &MockSession{}

	h.updatePresence(s)

	require.Len(t, s.Statuses, 1)
	act := s.Statuses[0].Activities[0]
	text, emoji := presenceFor(catalog.Afternoon)
	assert.Equal(t, text, act.State)
	assert.Equal(t, emoji, act.Emoji.Name)
}
