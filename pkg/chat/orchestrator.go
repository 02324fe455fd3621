package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"lovelink/pkg/catalog"
	"lovelink/pkg/date"
	"lovelink/pkg/relationship"

	"github.com/google/uuid"
)

// ErrEmptyMessage is returned for a blank user message
var ErrEmptyMessage = errors.New("message is empty")

const (
	// HistoryWindow is how many earlier turns the generator sees
	HistoryWindow = 5
	// DefaultTimeout bounds one generation call
	DefaultTimeout = 30 * time.Second
)

// FallbackReplies is the canned set used when generation fails
var FallbackReplies = []string{
	"sorry, my phone is acting up... can you say that again?",
	"wait, i zoned out for a sec. what did you say?",
	"ugh my signal just died. tell me again?",
	"hold on, something glitched on my end. one more time?",
}

// Dates is the part of the date machine a turn touches
type Dates interface {
	Active() (date.Session, bool)
	OnMessage(fromUser bool) bool
	AddSessionIntimacy(sessionID string, n int) bool
}

// Rewarder credits the ledger. Implementations serialize with the profile's
// other mutations.
type Rewarder interface {
	ApplyDelta(amount int, reason string) relationship.Change
	Stage() relationship.Stage
}

// Result is the outcome of one turn
type Result struct {
	User     Turn
	Reply    Turn
	Reward   int
	Change   relationship.Change
	Fallback bool // The reply is a canned line because generation failed
}

// Orchestrator runs conversation turns for one profile
type Orchestrator struct {
	turnMu    sync.Mutex
	profileID string
	gen       Generator
	history   History
	dates     Dates
	rewarder  Rewarder
	persona   Persona
	timeout   time.Duration
	window    int
	now       func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTimeout bounds each generation call
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHistoryWindow sets how many earlier turns are sent to the generator
func WithHistoryWindow(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.window = n
		}
	}
}

// WithPersona replaces the default persona
func WithPersona(p Persona) Option {
	return func(o *Orchestrator) {
		o.persona = p
	}
}

// WithClock overrides the time source for turn timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func NewOrchestrator(profileID string, gen Generator, history History, dates Dates, rewarder Rewarder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		profileID: profileID,
		gen:       gen,
		history:   history,
		dates:     dates,
		rewarder:  rewarder,
		persona:   DefaultPersona,
		timeout:   DefaultTimeout,
		window:    HistoryWindow,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Send runs one turn: record the user's message, generate a reply, and
// reward it. Generation failures produce a fallback reply and no reward;
// they are not returned as errors.
func (o *Orchestrator) Send(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyMessage
	}

	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	previous, err := o.history.Recent(ctx, o.window)
	if err != nil {
		log.Printf("Error reading history for %s: %v", o.profileID, err)
		previous = nil
	}

	session, onDate := o.dates.Active()
	userTurn := Turn{
		ID:        uuid.NewString(),
		Sender:    SenderUser,
		Text:      text,
		Timestamp: o.now(),
	}
	if onDate {
		userTurn.LocationContext = session.Location.ID
	}
	o.appendTurn(ctx, userTurn)
	if onDate {
		o.dates.OnMessage(true)
	}

	var loc *catalog.Location
	if onDate {
		l := session.Location
		loc = &l
	}
	req := Request{
		SystemPrompt: BuildSystemPrompt(o.persona, o.rewarder.Stage(), loc),
		History:      previous,
		UserMessage:  text,
	}

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	resp, err := o.gen.Generate(genCtx, req)
	cancel()

	reply := Turn{
		ID:              uuid.NewString(),
		Sender:          SenderCompanion,
		LocationContext: userTurn.LocationContext,
	}

	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err == nil {
			err = errors.New("empty reply")
		}
		log.Printf("Generation failed for %s: %v", o.profileID, err)
		reply.Text = FallbackReplies[rand.Intn(len(FallbackReplies))]
		reply.Timestamp = o.now()
		o.appendTurn(ctx, reply)
		return Result{User: userTurn, Reply: reply, Fallback: true}, nil
	}

	reply.Text = strings.TrimSpace(resp.Text)
	reward := Reward(reply.Text, onDate)
	change := o.rewarder.ApplyDelta(reward, fmt.Sprintf("chat:%s", reply.ID))

	// A date ended while generating keeps the ledger reward but not the tally
	if onDate && o.dates.AddSessionIntimacy(session.ID, reward) {
		o.dates.OnMessage(false)
	}

	reply.IntimacyDelta = change.Amount
	reply.Timestamp = o.now()
	o.appendTurn(ctx, reply)

	return Result{
		User:   userTurn,
		Reply:  reply,
		Reward: change.Amount,
		Change: change,
	}, nil
}

func (o *Orchestrator) appendTurn(ctx context.Context, t Turn) {
	if err := o.history.Append(ctx, t); err != nil {
		log.Printf("Error appending %s turn for %s: %v", t.Sender, o.profileID, err)
	}
}
