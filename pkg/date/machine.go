package date

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lovelink/pkg/catalog"
	"lovelink/pkg/relationship"

	"github.com/google/uuid"
)

var (
	// ErrInsufficientIntimacy is returned when the location needs a higher score
	ErrInsufficientIntimacy = errors.New("insufficient intimacy")
	// ErrNoActiveDate is returned when ending or touching a date that is not running
	ErrNoActiveDate = errors.New("no active date")
)

// State of a date session
type State int

const (
	Idle State = iota
	Active
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one date at a catalog location
type Session struct {
	ID                        string
	Location                  catalog.Location
	StartTime                 time.Time
	State                     State
	MessagesExchanged         int
	IntimacyGainedThisSession int
}

// Ledger is the part of the intimacy ledger the machine needs
type Ledger interface {
	Score() int
	ApplyDelta(amount int, reason string) relationship.Change
	RecordDateStart(synthetic bool)
}

// Started is the result of Start
type Started struct {
	Session  Session
	Replaced *Result // Set when a running date was ended to make room
}

// Result is the outcome of ending a date
type Result struct {
	Session       Session
	Duration      time.Duration
	DurationBonus int
	Reward        int
	Change        relationship.Change
}

// durationStep maps a minimum duration to its bonus
type durationStep struct {
	Min   time.Duration
	Bonus int
}

// DurationBonuses is ordered by descending minimum
var DurationBonuses = []durationStep{
	{Min: 7200 * time.Second, Bonus: 15},
	{Min: 3600 * time.Second, Bonus: 12},
	{Min: 1800 * time.Second, Bonus: 8},
	{Min: 1200 * time.Second, Bonus: 6},
	{Min: 600 * time.Second, Bonus: 4},
	{Min: 300 * time.Second, Bonus: 2},
}

// DurationBonus returns the stepped reward for how long a date lasted
func DurationBonus(d time.Duration) int {
	for _, step := range DurationBonuses {
		if d >= step.Min {
			return step.Bonus
		}
	}
	return 0
}

// Machine runs at most one date at a time for a profile
type Machine struct {
	mu     sync.Mutex
	ledger Ledger
	active *Session
	now    func() time.Time
}

// NewMachine creates an idle machine over the ledger
func NewMachine(l Ledger) *Machine {
	return &Machine{
		ledger: l,
		now:    time.Now,
	}
}

// SetClock overrides the time source
func (m *Machine) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Start begins a date at loc. A date that is already running is ended first
// and its reward applied.
func (m *Machine) Start(loc catalog.Location) (Started, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	score := m.ledger.Score()
	if loc.RequiredIntimacy > score {
		return Started{}, fmt.Errorf("%w: %s needs %d, have %d", ErrInsufficientIntimacy, loc.DisplayName, loc.RequiredIntimacy, score)
	}

	var started Started
	if m.active != nil {
		replaced := m.endLocked()
		started.Replaced = &replaced
		log.Printf("Date at %s auto-ended to start %s", replaced.Session.Location.ID, loc.ID)
	}

	m.active = &Session{
		ID:        uuid.NewString(),
		Location:  loc,
		StartTime: m.now(),
		State:     Active,
	}
	m.ledger.RecordDateStart(loc.Synthetic)
	started.Session = *m.active

	return started, nil
}

// OnMessage counts a message in the running date. Companion messages also add
// one point to the session tally. Returns false when no date is running.
func (m *Machine) OnMessage(fromUser bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return false
	}
	m.active.MessagesExchanged++
	if !fromUser {
		m.active.IntimacyGainedThisSession++
	}
	return true
}

// AddSessionIntimacy adds n to the tally of the session with the given id.
// It returns false if that session is no longer running.
func (m *Machine) AddSessionIntimacy(sessionID string, n int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || m.active.ID != sessionID || n <= 0 {
		return false
	}
	m.active.IntimacyGainedThisSession += n
	return true
}

// End finishes the running date and applies its reward to the ledger
func (m *Machine) End() (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Result{}, ErrNoActiveDate
	}
	return m.endLocked(), nil
}

// Abandon drops the running date without a reward. Used when the
// relationship is reset.
func (m *Machine) Abandon() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Session{}, false
	}
	s := *m.active
	s.State = Ended
	m.active = nil
	return s, true
}

// Active returns a copy of the running session
func (m *Machine) Active() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return Session{}, false
	}
	return *m.active, true
}

func (m *Machine) endLocked() Result {
	s := *m.active
	m.active = nil

	elapsed := m.now().Sub(s.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}
	bonus := DurationBonus(elapsed)
	reward := bonus + s.Location.IntimacyBonus
	s.State = Ended

	change := m.ledger.ApplyDelta(reward, "date:"+s.Location.ID)
	log.Printf("Date at %s ended after %s: +%d (duration bonus %d, %d messages)",
		s.Location.ID, elapsed.Round(time.Second), reward, bonus, s.MessagesExchanged)

	return Result{
		Session:       s,
		Duration:      elapsed,
		DurationBonus: bonus,
		Reward:        reward,
		Change:        change,
	}
}
