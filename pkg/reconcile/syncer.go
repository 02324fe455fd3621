package reconcile

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"lovelink/pkg/relationship"
	"lovelink/pkg/store"
)

// DefaultInterval is how often the syncer pulls the remote copy
const DefaultInterval = 5 * time.Minute

const flushTimeout = 10 * time.Second

// Local is the on-device profile store
type Local interface {
	SaveProfile(ctx context.Context, p relationship.Profile) error
}

// Ledger is what the syncer reads from and merges into
type Ledger interface {
	Snapshot() relationship.Profile
	Adopt(p relationship.Profile) error
}

// Syncer keeps one profile's local and remote copies converging. Writes are
// queued by Persist and flushed in the background; the latest snapshot wins.
type Syncer struct {
	id       string
	ledger   Ledger
	local    Local
	remote   store.Store
	interval time.Duration
	locker   sync.Locker

	// flushMu orders writes so an older snapshot never lands after a newer one
	flushMu sync.Mutex

	mu      sync.Mutex
	pending *relationship.Profile
	dirty   bool
	lastOK  time.Time
	wake    chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSyncer builds a syncer. local and remote may be nil when that side is not
// configured; an interval <= 0 means DefaultInterval.
func NewSyncer(id string, ledger Ledger, local Local, remote store.Store, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Syncer{
		id:       id,
		ledger:   ledger,
		local:    local,
		remote:   remote,
		interval: interval,
		locker:   &sync.Mutex{},
		wake:     make(chan struct{}, 1),
	}
}

// SetLocker makes merges take the owner's write lock, so a merge cannot
// interleave with a ledger mutation
func (s *Syncer) SetLocker(l sync.Locker) {
	s.locker = l
}

// Persist queues p for writing. It never blocks.
func (s *Syncer) Persist(p relationship.Profile) {
	s.mu.Lock()
	s.pending = &p
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Dirty reports whether a write to the remote store is still outstanding
func (s *Syncer) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty || s.pending != nil
}

// LastSynced returns the time of the last successful remote write or fetch
func (s *Syncer) LastSynced() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOK
}

// Flush writes the ledger's current snapshot to the local store and then the
// remote store if anything was queued. Failures are logged and leave the
// syncer dirty.
func (s *Syncer) Flush(ctx context.Context) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	queued := s.pending != nil
	s.pending = nil
	s.mu.Unlock()

	if !queued {
		return
	}
	s.write(ctx, s.ledger.Snapshot(), true)
}

// Save writes the ledger's current snapshot to both stores whether or not a
// write was queued. It returns once the write has been attempted.
func (s *Syncer) Save(ctx context.Context) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	s.write(ctx, s.ledger.Snapshot(), true)
}

// write must be called with flushMu held
func (s *Syncer) write(ctx context.Context, p relationship.Profile, toRemote bool) {
	if s.local != nil {
		if err := s.local.SaveProfile(ctx, p); err != nil {
			log.Printf("Error saving profile %s locally: %v", s.id, err)
		}
	}
	if s.remote == nil || !toRemote {
		return
	}
	if err := s.remote.Update(ctx, p); err != nil {
		log.Printf("Error writing profile %s to remote: %v", s.id, err)
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return
	}
	s.markSynced()
}

// Sync fetches the remote copy, merges it into the ledger and writes the merge
// back if the remote is behind. Remote failures are logged; the local copy
// stays authoritative. It returns the ledger snapshot after the merge.
func (s *Syncer) Sync(ctx context.Context) relationship.Profile {
	if s.remote == nil {
		return s.ledger.Snapshot()
	}

	remote, err := s.remote.Fetch(ctx, s.id)
	if errors.Is(err, store.ErrNotFound) {
		remote = relationship.Profile{}
	} else if err != nil {
		log.Printf("Error fetching profile %s from remote: %v", s.id, err)
		return s.ledger.Snapshot()
	}

	return s.apply(ctx, remote)
}

func (s *Syncer) apply(ctx context.Context, remote relationship.Profile) relationship.Profile {
	s.locker.Lock()
	local := s.ledger.Snapshot()
	merged, writeBack := Merge(local, remote)
	adopted := !merged.SameProgress(local)
	if adopted {
		if err := s.ledger.Adopt(merged); err != nil {
			log.Printf("Error adopting merged profile %s: %v", s.id, err)
			merged = local
			adopted = false
			writeBack = !local.SameProgress(remote)
		}
	}
	s.locker.Unlock()

	if adopted {
		log.Printf("Profile %s reconciled: %d -> %d (epoch %d)", s.id, local.IntimacyScore, merged.IntimacyScore, merged.ResetEpoch)
	}
	if !adopted && !writeBack {
		s.markSynced()
		return merged
	}

	// Write what the ledger holds now, which is never behind merged. Anything
	// queued before the merge is covered by this write.
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	latest := s.ledger.Snapshot()
	toRemote := writeBack || !latest.SameProgress(merged)
	s.write(ctx, latest, toRemote)
	if !toRemote {
		s.markSynced()
	}
	return latest
}

// Start runs the write-behind worker, the periodic sync, and the remote
// subscription when the store supports one
func (s *Syncer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	var updates <-chan relationship.Profile
	if w, ok := s.remote.(store.Watcher); ok {
		ch, err := w.Watch(ctx, s.id)
		if err != nil {
			log.Printf("Error subscribing to profile %s: %v", s.id, err)
		} else {
			updates = ch
		}
	}

	s.wg.Add(1)
	go s.run(ctx, updates)
}

// Stop ends the background work and flushes whatever is still queued
func (s *Syncer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()

	ctx, done := context.WithTimeout(context.Background(), flushTimeout)
	defer done()
	s.Flush(ctx)
}

func (s *Syncer) run(ctx context.Context, updates <-chan relationship.Profile) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.Flush(ctx)
		case <-ticker.C:
			s.Flush(ctx)
			s.Sync(ctx)
		case p, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			s.apply(ctx, p)
		}
	}
}

func (s *Syncer) markSynced() {
	s.mu.Lock()
	s.dirty = false
	s.lastOK = time.Now()
	s.mu.Unlock()
}
