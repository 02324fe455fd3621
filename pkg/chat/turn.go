package chat

import (
	"context"
	"sync"
	"time"
)

// Sender of a turn
type Sender string

const (
	SenderUser      Sender = "user"
	SenderCompanion Sender = "companion"
)

// Turn is one message in the conversation history
type Turn struct {
	ID              string    `json:"id"`
	Sender          Sender    `json:"sender"`
	Text            string    `json:"text"`
	Timestamp       time.Time `json:"timestamp"`
	LocationContext string    `json:"location_context,omitempty"` // Location id of the date running when the turn was sent
	IntimacyDelta   int       `json:"intimacy_delta"`
}

// Request is what the generator receives for one reply
type Request struct {
	SystemPrompt string
	History      []Turn // Oldest first, at most HistoryWindow turns
	UserMessage  string
}

// Response is the generated reply
type Response struct {
	Text string
}

// Generator produces the companion's reply
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// History stores the turns of one conversation
type History interface {
	Append(ctx context.Context, t Turn) error
	// Recent returns up to n of the latest turns, oldest first
	Recent(ctx context.Context, n int) ([]Turn, error)
}

// MemoryHistory keeps the latest turns in a slice
type MemoryHistory struct {
	mu    sync.Mutex
	turns []Turn
	max   int
}

// NewMemoryHistory keeps at most max turns (100 when max <= 0)
func NewMemoryHistory(max int) *MemoryHistory {
	if max <= 0 {
		max = 100
	}
	return &MemoryHistory{max: max}
}

func (h *MemoryHistory) Append(ctx context.Context, t Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, t)
	if len(h.turns) > h.max {
		h.turns = h.turns[len(h.turns)-h.max:]
	}
	return nil
}

func (h *MemoryHistory) Recent(ctx context.Context, n int) ([]Turn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 {
		return nil, nil
	}
	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(h.turns)-start)
	copy(out, h.turns[start:])
	return out, nil
}
