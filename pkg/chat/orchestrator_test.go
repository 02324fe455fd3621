package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"lovelink/pkg/catalog"
	"lovelink/pkg/date"
	"lovelink/pkg/relationship"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Response), args.Error(1)
}

// funcGenerator adapts a function for tests that need to block or observe ctx
type funcGenerator func(ctx context.Context, req Request) (Response, error)

func (f funcGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

type fixture struct {
	ledger  *relationship.Ledger
	dates   *date.Machine
	history *MemoryHistory
}

func newFixture(t *testing.T, score int) fixture {
	t.Helper()
	p := relationship.NewProfile("user1")
	p.IntimacyScore = score
	l, err := relationship.NewLedger(p, catalog.Default(), nil)
	require.NoError(t, err)
	return fixture{
		ledger:  l,
		dates:   date.NewMachine(l),
		history: NewMemoryHistory(0),
	}
}

func (f fixture) orchestrator(gen Generator, opts ...Option) *Orchestrator {
	return NewOrchestrator("user1", gen, f.history, f.dates, f.ledger, opts...)
}

func (f fixture) startDate(t *testing.T, id string) date.Session {
	t.Helper()
	loc, ok := catalog.Default().Get(id)
	require.True(t, ok)
	started, err := f.dates.Start(loc)
	require.NoError(t, err)
	return started.Session
}

func TestSend_EmptyMessage(t *testing.T) {
	f := newFixture(t, 0)
	gen := &mockGenerator{}
	o := f.orchestrator(gen)

	_, err := o.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	turns, _ := f.history.Recent(context.Background(), 10)
	assert.Empty(t, turns)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestSend_RewardsReply(t *testing.T) {
	f := newFixture(t, 10)
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(Response{Text: strings.Repeat("a", 45)}, nil)
	o := f.orchestrator(gen)

	res, err := o.Send(context.Background(), "hello!")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, 3, res.Reward, "base 1 + length 2")
	assert.Equal(t, 13, f.ledger.Score())
	assert.Equal(t, 3, res.Reply.IntimacyDelta)
	assert.Equal(t, 0, res.User.IntimacyDelta)

	turns, _ := f.history.Recent(context.Background(), 10)
	require.Len(t, turns, 2)
	assert.Equal(t, SenderUser, turns[0].Sender)
	assert.Equal(t, SenderCompanion, turns[1].Sender)
}

func TestSend_OnDate(t *testing.T) {
	f := newFixture(t, 20)
	session := f.startDate(t, "arcade")

	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req Request) bool {
		return strings.Contains(req.SystemPrompt, session.Location.DisplayName)
	})).Return(Response{Text: "haha love it ~"}, nil)
	o := f.orchestrator(gen)

	res, err := o.Send(context.Background(), "this place is great")
	require.NoError(t, err)
	assert.Equal(t, 2+0+3, res.Reward)
	assert.Equal(t, "arcade", res.User.LocationContext)
	assert.Equal(t, "arcade", res.Reply.LocationContext)

	active, ok := f.dates.Active()
	require.True(t, ok)
	assert.Equal(t, 2, active.MessagesExchanged)
	assert.Equal(t, res.Reward+1, active.IntimacyGainedThisSession)
	gen.AssertExpectations(t)
}

func TestSend_GenerationFailureFallsBack(t *testing.T) {
	f := newFixture(t, 10)
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(Response{}, errors.New("503"))
	o := f.orchestrator(gen)

	res, err := o.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Contains(t, FallbackReplies, res.Reply.Text)
	assert.Equal(t, 0, res.Reward)
	assert.Equal(t, 0, res.Reply.IntimacyDelta)
	assert.Equal(t, 10, f.ledger.Score())

	turns, _ := f.history.Recent(context.Background(), 10)
	assert.Len(t, turns, 2)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestSend_EmptyReplyFallsBack(t *testing.T) {
	f := newFixture(t, 0)
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(Response{Text: "  "}, nil)

	res, err := f.orchestrator(gen).Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
}

func TestSend_TimeoutFallsBack(t *testing.T) {
	f := newFixture(t, 0)
	gen := funcGenerator(func(ctx context.Context, req Request) (Response, error) {
		<-ctx.Done()
		return Response{}, ctx.Err()
	})
	o := f.orchestrator(gen, WithTimeout(20*time.Millisecond))

	start := time.Now()
	res, err := o.Send(context.Background(), "hello?")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 0, f.ledger.Score())
}

func TestSend_HistoryWindowExcludesNewMessage(t *testing.T) {
	f := newFixture(t, 0)
	var seen []Request
	gen := funcGenerator(func(ctx context.Context, req Request) (Response, error) {
		seen = append(seen, req)
		return Response{Text: "ok"}, nil
	})
	o := f.orchestrator(gen)

	for i := 0; i < 4; i++ {
		_, err := o.Send(context.Background(), "msg")
		require.NoError(t, err)
	}
	_, err := o.Send(context.Background(), "latest")
	require.NoError(t, err)

	last := seen[len(seen)-1]
	assert.Len(t, last.History, HistoryWindow)
	assert.Equal(t, "latest", last.UserMessage)
	for _, turn := range last.History {
		assert.NotEqual(t, "latest", turn.Text)
	}
	assert.Empty(t, seen[0].History)
}

func TestSend_DateEndedDuringGeneration(t *testing.T) {
	f := newFixture(t, 20)
	f.startDate(t, "arcade")

	var ended date.Result
	gen := funcGenerator(func(ctx context.Context, req Request) (Response, error) {
		var err error
		ended, err = f.dates.End()
		require.NoError(t, err)
		return Response{Text: "hi"}, nil
	})

	res, err := f.orchestrator(gen).Send(context.Background(), "hey")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Reward)
	assert.Equal(t, 20+ended.Reward+res.Reward, f.ledger.Score())
	assert.Equal(t, 1, ended.Session.MessagesExchanged, "tally stopped at the user message")

	_, active := f.dates.Active()
	assert.False(t, active)
}

func TestSend_TurnsAreSerialized(t *testing.T) {
	f := newFixture(t, 0)
	gen := funcGenerator(func(ctx context.Context, req Request) (Response, error) {
		time.Sleep(5 * time.Millisecond)
		return Response{Text: "re: " + req.UserMessage}, nil
	})
	o := f.orchestrator(gen)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.Send(context.Background(), "ping")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	turns, _ := f.history.Recent(context.Background(), 100)
	require.Len(t, turns, 10)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, SenderUser, turns[i].Sender)
		assert.Equal(t, SenderCompanion, turns[i+1].Sender)
	}
	assert.Equal(t, 5, f.ledger.Score())
}

func TestMemoryHistory_Caps(t *testing.T) {
	h := NewMemoryHistory(3)
	ctx := context.Background()
	for _, text := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.Append(ctx, Turn{Text: text}))
	}

	turns, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "b", turns[0].Text)

	turns, _ = h.Recent(ctx, 2)
	assert.Equal(t, "c", turns[0].Text)
	assert.Equal(t, "d", turns[1].Text)

	turns, _ = h.Recent(ctx, 0)
	assert.Empty(t, turns)
}
