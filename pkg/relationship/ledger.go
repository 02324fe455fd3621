package relationship

import (
	"fmt"
	"log"
	"sync"
	"time"

	"lovelink/pkg/catalog"
)

// maxEntries bounds the in-memory audit tail
const maxEntries = 200

// Persister receives a snapshot after every successful mutation. Implementations
// must not block; the ledger calls it while holding its lock.
type Persister interface {
	Persist(p Profile)
}

// Entry is one audited movement of the score
type Entry struct {
	Amount  int
	Reason  string
	Balance int
	Epoch   int
	At      time.Time
}

// Change describes the outcome of ApplyDelta
type Change struct {
	Amount           int
	Reason           string
	OldScore         int
	NewScore         int
	Stage            Stage
	StageChanged     bool
	NewlyUnlocked    []catalog.Location
	InfiniteUnlocked bool   // The infinite-mode latch closed with this change
	Milestone        string // Milestone line of the new stage, if it changed
}

// Applied reports whether the change moved the score
func (c Change) Applied() bool {
	return c.NewScore != c.OldScore
}

// Ledger is the single writer of a profile's progression score
type Ledger struct {
	mu        sync.RWMutex
	profile   Profile
	catalog   *catalog.Catalog
	persister Persister
	entries   []Entry
	now       func() time.Time
}

// NewLedger wraps a validated profile. The persister may be nil.
func NewLedger(p Profile, c *catalog.Catalog, persister Persister) (*Ledger, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = catalog.Default()
	}
	return &Ledger{
		profile:   p,
		catalog:   c,
		persister: persister,
		now:       time.Now,
	}, nil
}

// SetPersister swaps the persistence sink
func (l *Ledger) SetPersister(p Persister) {
	l.mu.Lock()
	l.persister = p
	l.mu.Unlock()
}

// SetClock overrides the time source used for audit entries
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// ApplyDelta adds amount to the score. Non-positive amounts are a no-op.
func (l *Ledger) ApplyDelta(amount int, reason string) Change {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.profile.IntimacyScore
	oldStage := StageFor(old)
	change := Change{
		Amount:   amount,
		Reason:   reason,
		OldScore: old,
		NewScore: old,
		Stage:    oldStage,
	}
	if amount <= 0 {
		change.Amount = 0
		return change
	}

	l.profile.IntimacyScore = old + amount
	l.profile.UpdatedAt = l.now()
	change.NewScore = l.profile.IntimacyScore

	newStage := StageFor(change.NewScore)
	if newStage.Level != oldStage.Level {
		change.Stage = newStage
		change.StageChanged = true
		change.Milestone = newStage.Milestone
		change.NewlyUnlocked = l.catalog.UnlockedBetween(old, change.NewScore)
	}

	if !l.profile.InfiniteModeUnlocked && change.NewScore >= InfiniteModeThreshold {
		l.profile.InfiniteModeUnlocked = true
		change.InfiniteUnlocked = true
		log.Printf("Infinite mode unlocked for %s at %d", l.profile.ID, change.NewScore)
	}

	l.record(amount, reason)
	if change.StageChanged {
		log.Printf("Stage change for %s: %s -> %s (%d -> %d)", l.profile.ID, oldStage.Name, newStage.Name, old, change.NewScore)
	}
	l.persist()

	return change
}

// Reset zeroes the progression and starts a new reset epoch, so that
// reconciliation can tell an intentional reset from a stale remote copy.
func (l *Ledger) Reset(reason string) Profile {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := l.profile.IntimacyScore
	l.profile.IntimacyScore = 0
	l.profile.TotalDateCount = 0
	l.profile.InfiniteDateCount = 0
	l.profile.InfiniteModeUnlocked = false
	l.profile.ResetEpoch++
	l.profile.UpdatedAt = l.now()

	l.record(-prev, "reset: "+reason)
	log.Printf("Relationship %s reset (was %d, epoch now %d): %s", l.profile.ID, prev, l.profile.ResetEpoch, reason)
	l.persist()

	return l.profile
}

// RecordDateStart bumps the date counters
func (l *Ledger) RecordDateStart(synthetic bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.profile.TotalDateCount++
	if synthetic {
		l.profile.InfiniteDateCount++
	}
	l.profile.UpdatedAt = l.now()
	l.persist()
}

// Adopt replaces the local state with a reconciled profile. It refuses a
// profile for another id or one that would lower the score within the same epoch.
func (l *Ledger) Adopt(p Profile) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.ID != l.profile.ID {
		return fmt.Errorf("%w: adopt %q into ledger for %q", ErrInvalidProfile, p.ID, l.profile.ID)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ResetEpoch < l.profile.ResetEpoch {
		return fmt.Errorf("refusing to adopt epoch %d over %d", p.ResetEpoch, l.profile.ResetEpoch)
	}
	if p.ResetEpoch == l.profile.ResetEpoch && p.IntimacyScore < l.profile.IntimacyScore {
		return fmt.Errorf("refusing to lower score %d to %d", l.profile.IntimacyScore, p.IntimacyScore)
	}
	if p.SameProgress(l.profile) {
		return nil
	}

	delta := p.IntimacyScore - l.profile.IntimacyScore
	epochChanged := p.ResetEpoch != l.profile.ResetEpoch
	l.profile = p
	if delta != 0 || epochChanged {
		l.record(delta, "sync")
	}
	return nil
}

// Snapshot returns a copy of the profile
func (l *Ledger) Snapshot() Profile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.profile
}

// Score returns the current intimacy score
func (l *Ledger) Score() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.profile.IntimacyScore
}

// Stage returns the derived stage
func (l *Ledger) Stage() Stage {
	return StageFor(l.Score())
}

// View returns the catalog-facing slice of state
func (l *Ledger) View() catalog.View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return catalog.View{
		Score:                l.profile.IntimacyScore,
		InfiniteModeUnlocked: l.profile.InfiniteModeUnlocked,
		InfiniteDateCount:    l.profile.InfiniteDateCount,
	}
}

// Entries returns the audit tail, oldest first
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) record(amount int, reason string) {
	l.entries = append(l.entries, Entry{
		Amount:  amount,
		Reason:  reason,
		Balance: l.profile.IntimacyScore,
		Epoch:   l.profile.ResetEpoch,
		At:      l.now(),
	})
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}
}

func (l *Ledger) persist() {
	if l.persister != nil {
		l.persister.Persist(l.profile)
	}
}
