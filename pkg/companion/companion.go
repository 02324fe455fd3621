package companion

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"lovelink/pkg/bonus"
	"lovelink/pkg/catalog"
	"lovelink/pkg/chat"
	"lovelink/pkg/date"
	"lovelink/pkg/reconcile"
	"lovelink/pkg/relationship"
	"lovelink/pkg/store"
)

// Local is the on-device store a companion reads at load and writes through
type Local interface {
	LoadProfile(ctx context.Context, id string) (relationship.Profile, bool, error)
	SaveProfile(ctx context.Context, p relationship.Profile) error
	LoadLoginRecord(ctx context.Context, profileID string) (bonus.Record, error)
	SaveLoginRecord(ctx context.Context, profileID string, r bonus.Record) error
}

// Deps are shared by every companion a Manager builds. Only Catalog and
// Generator are required.
type Deps struct {
	Catalog   *catalog.Catalog
	Generator chat.Generator
	Local     Local
	Remote    store.Store
	// History returns the conversation store for a profile. In-memory when nil.
	History func(profileID string) chat.History

	Location          *time.Location // Calendar for login days, seasons and time of day
	Persona           chat.Persona
	GenerationTimeout time.Duration
	HistoryWindow     int
	SyncInterval      time.Duration
	Now               func() time.Time
}

// Companion owns the whole progression state of one profile. Mutations of the
// ledger go through writeMu; the generation call in Send never holds it.
type Companion struct {
	writeMu sync.Mutex

	id      string
	catalog *catalog.Catalog
	ledger  *relationship.Ledger
	dates   *date.Machine
	bonus   *bonus.Coordinator
	syncer  *reconcile.Syncer
	chat    *chat.Orchestrator
	loc     *time.Location
	now     func() time.Time
}

// New wires a companion around a loaded profile and login record. The
// syncer is not running until Start.
func New(p relationship.Profile, rec bonus.Record, deps Deps) (*Companion, error) {
	if deps.Generator == nil {
		return nil, fmt.Errorf("companion %s: generator is required", p.ID)
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ledger, err := relationship.NewLedger(p, deps.Catalog, nil)
	if err != nil {
		return nil, err
	}
	ledger.SetClock(deps.Now)

	c := &Companion{
		id:      p.ID,
		catalog: deps.Catalog,
		ledger:  ledger,
		loc:     deps.Location,
		now:     deps.Now,
	}

	var local reconcile.Local
	var saver bonus.Saver
	if deps.Local != nil {
		local = deps.Local
		saver = deps.Local
	}

	c.syncer = reconcile.NewSyncer(p.ID, ledger, local, deps.Remote, deps.SyncInterval)
	c.syncer.SetLocker(&c.writeMu)
	ledger.SetPersister(c.syncer)

	c.dates = date.NewMachine(ledger)
	c.dates.SetClock(deps.Now)

	c.bonus = bonus.NewCoordinator(p.ID, rec, deps.Location, c.ApplyDelta, saver)

	var history chat.History
	if deps.History != nil {
		history = deps.History(p.ID)
	}
	if history == nil {
		history = chat.NewMemoryHistory(0)
	}

	opts := []chat.Option{
		chat.WithTimeout(deps.GenerationTimeout),
		chat.WithHistoryWindow(deps.HistoryWindow),
		chat.WithClock(deps.Now),
	}
	if deps.Persona.Name != "" {
		opts = append(opts, chat.WithPersona(deps.Persona))
	}
	c.chat = chat.NewOrchestrator(p.ID, deps.Generator, history, c.dates, c, opts...)

	return c, nil
}

// ID returns the profile id
func (c *Companion) ID() string {
	return c.id
}

// Start runs the background sync
func (c *Companion) Start(ctx context.Context) {
	c.syncer.Start(ctx)
}

// Close stops the background sync and flushes what is queued
func (c *Companion) Close() {
	c.syncer.Stop()
}

// ApplyDelta credits the ledger under the write lock
func (c *Companion) ApplyDelta(amount int, reason string) relationship.Change {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ledger.ApplyDelta(amount, reason)
}

// Stage returns the current stage
func (c *Companion) Stage() relationship.Stage {
	return c.ledger.Stage()
}

// Snapshot returns a copy of the profile
func (c *Companion) Snapshot() relationship.Profile {
	return c.ledger.Snapshot()
}

// Entries returns the audit tail of the ledger
func (c *Companion) Entries() []relationship.Entry {
	return c.ledger.Entries()
}

// StartDate begins a date at the location with the given id
func (c *Companion) StartDate(locationID string) (date.Started, error) {
	loc, ok := c.catalog.Get(locationID)
	if !ok {
		return date.Started{}, fmt.Errorf("%w: %s", catalog.ErrUnknownLocation, locationID)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.dates.Start(loc)
}

// EndDate finishes the running date and applies its reward
func (c *Companion) EndDate() (date.Result, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.dates.End()
}

// ActiveDate returns the running date, if any
func (c *Companion) ActiveDate() (date.Session, bool) {
	return c.dates.Active()
}

// Send runs one conversation turn
func (c *Companion) Send(ctx context.Context, text string) (chat.Result, error) {
	return c.chat.Send(ctx, text)
}

// CheckBonus previews the login bonus for the day containing now
func (c *Companion) CheckBonus(now time.Time) (bonus.Entry, bool) {
	return c.bonus.CheckAvailability(now)
}

// ClaimBonus claims the login bonus for the day containing now
func (c *Companion) ClaimBonus(ctx context.Context, now time.Time) (bonus.Grant, bool, error) {
	return c.bonus.Claim(ctx, now)
}

// Available lists the locations open right now for this relationship
func (c *Companion) Available(now time.Time) []catalog.Location {
	t := now.In(c.loc)
	return c.catalog.Available(c.ledger.View(), catalog.SeasonAt(t), catalog.TimeOfDayAt(t))
}

// Reset starts the relationship over. A running date is dropped without a
// reward and the login streak is kept. Both stores have been written when
// Reset returns.
func (c *Companion) Reset(ctx context.Context) relationship.Profile {
	c.writeMu.Lock()
	if s, ok := c.dates.Abandon(); ok {
		log.Printf("Date at %s dropped by reset of %s", s.Location.ID, c.id)
	}
	p := c.ledger.Reset("requested by user")
	c.writeMu.Unlock()

	c.syncer.Save(ctx)
	return p
}

// Sync reconciles with the remote store now. It must not be called with
// writeMu held; the syncer takes it for the merge.
func (c *Companion) Sync(ctx context.Context) relationship.Profile {
	return c.syncer.Sync(ctx)
}

// Status gathers a read-only view of the profile
func (c *Companion) Status() Status {
	now := c.now()
	p := c.ledger.Snapshot()
	stage := p.Stage()

	rec := c.bonus.Record()
	st := Status{
		Profile:    p,
		Stage:      stage,
		Progress:   relationship.Progress(p.IntimacyScore),
		Streak:     rec.Streak,
		Dirty:      c.syncer.Dirty(),
		LastSynced: c.syncer.LastSynced(),
		At:         now,
	}
	if next, ok := relationship.NextStage(stage); ok {
		st.NextStage = &next
	}
	if s, ok := c.dates.Active(); ok {
		st.ActiveDate = &s
	}
	st.Bonus, st.BonusAvailable = c.bonus.CheckAvailability(now)
	// A skipped day breaks the streak before the next claim resets it
	if st.BonusAvailable && st.Bonus.Streak != rec.Streak+1 {
		st.Streak = 0
	}
	return st
}
