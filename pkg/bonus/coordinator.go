package bonus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lovelink/pkg/relationship"
)

// ErrClaimInProgress rejects a claim while another one for the same profile is in flight
var ErrClaimInProgress = errors.New("login bonus claim already in progress")

// State of today's bonus
type State int

const (
	NotClaimedToday State = iota
	Claiming
	ClaimedToday
)

func (s State) String() string {
	switch s {
	case NotClaimedToday:
		return "not_claimed_today"
	case Claiming:
		return "claiming"
	case ClaimedToday:
		return "claimed_today"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Record is the persisted streak state of a profile
type Record struct {
	Day           int       `json:"day"`
	Streak        int       `json:"streak"`
	LastLoginDate time.Time `json:"last_login_date"`
}

// Entry is the bonus on offer for one calendar day
type Entry struct {
	Day           int
	Streak        int
	BonusAmount   int
	Claimed       bool
	LastLoginDate time.Time
}

// Grant is the result of a successful claim
type Grant struct {
	Entry         Entry
	IntimacyBonus int
	Reason        string
	Change        relationship.Change
}

// ApplyFunc credits the ledger
type ApplyFunc func(amount int, reason string) relationship.Change

// Saver persists the streak record
type Saver interface {
	SaveLoginRecord(ctx context.Context, profileID string, r Record) error
}

// Coordinator hands out at most one login bonus per calendar day
type Coordinator struct {
	mu        sync.Mutex
	profileID string
	record    Record
	claiming  bool
	loc       *time.Location
	apply     ApplyFunc
	saver     Saver
}

// NewCoordinator restores a coordinator from its last saved record. Calendar
// days are evaluated in loc (UTC when nil). saver may be nil.
func NewCoordinator(profileID string, r Record, loc *time.Location, apply ApplyFunc, saver Saver) *Coordinator {
	if loc == nil {
		loc = time.UTC
	}
	return &Coordinator{
		profileID: profileID,
		record:    r,
		loc:       loc,
		apply:     apply,
		saver:     saver,
	}
}

// Record returns the current streak record
func (c *Coordinator) Record() Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// State reports the claim state for the day containing now
func (c *Coordinator) State(now time.Time) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.claiming {
		return Claiming
	}
	if _, ok := c.checkLocked(now); !ok {
		return ClaimedToday
	}
	return NotClaimedToday
}

// CheckAvailability previews today's bonus without claiming it. It returns
// false once today's bonus has been claimed.
func (c *Coordinator) CheckAvailability(now time.Time) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checkLocked(now)
}

// Claim applies today's bonus exactly once. A repeat claim on the same day
// returns false with no error.
func (c *Coordinator) Claim(ctx context.Context, now time.Time) (Grant, bool, error) {
	c.mu.Lock()
	if c.claiming {
		c.mu.Unlock()
		return Grant{}, false, ErrClaimInProgress
	}
	entry, ok := c.checkLocked(now)
	if !ok {
		c.mu.Unlock()
		return Grant{}, false, nil
	}
	c.claiming = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.claiming = false
		c.mu.Unlock()
	}()

	reason := fmt.Sprintf("login bonus day %d (streak %d)", entry.Day, entry.Streak)
	if entry.Streak%7 == 0 {
		reason += " weekly"
	}

	var change relationship.Change
	if c.apply != nil {
		change = c.apply(entry.BonusAmount, reason)
	}

	rec := Record{Day: entry.Day, Streak: entry.Streak, LastLoginDate: now}
	c.mu.Lock()
	c.record = rec
	c.mu.Unlock()

	if c.saver != nil {
		if err := c.saver.SaveLoginRecord(ctx, c.profileID, rec); err != nil {
			// The grant stands and the in-memory record still blocks a repeat claim today.
			log.Printf("Error saving login record for %s: %v", c.profileID, err)
		}
	}

	entry.Claimed = true
	entry.LastLoginDate = now
	log.Printf("Login bonus for %s: +%d (day %d, streak %d)", c.profileID, entry.BonusAmount, entry.Day, entry.Streak)

	return Grant{
		Entry:         entry,
		IntimacyBonus: entry.BonusAmount,
		Reason:        reason,
		Change:        change,
	}, true, nil
}

func (c *Coordinator) checkLocked(now time.Time) (Entry, bool) {
	today := c.dayStart(now)
	streak := 1

	if !c.record.LastLoginDate.IsZero() {
		last := c.dayStart(c.record.LastLoginDate)
		if !today.After(last) {
			return Entry{}, false
		}
		if last.AddDate(0, 0, 1).Equal(today) {
			streak = c.record.Streak + 1
		}
	}

	return Entry{
		Day:           c.record.Day + 1,
		Streak:        streak,
		BonusAmount:   BonusFor(streak),
		LastLoginDate: c.record.LastLoginDate,
	}, true
}

func (c *Coordinator) dayStart(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}
