package companion

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"lovelink/pkg/bonus"
	"lovelink/pkg/relationship"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is how many companions stay loaded at once
const DefaultCapacity = 256

// initialSyncTimeout bounds the reconcile that runs after a profile is loaded
const initialSyncTimeout = 15 * time.Second

// Manager keeps the recently used companions loaded and hands out at most one
// companion per profile. The least recently used one is unloaded when the
// registry is full; if it is still leased it stays the profile's owner until
// the last lease is released, and only then is it closed and flushed.
type Manager struct {
	mu     sync.Mutex
	deps   Deps
	cache  *lru.Cache[string, *Companion]
	leases map[*Companion]int
	// retired holds companions evicted from the cache while leased
	retired map[string]*Companion
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(capacity int, deps Deps) (*Manager, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	m := &Manager{
		deps:    deps,
		leases:  make(map[*Companion]int),
		retired: make(map[string]*Companion),
	}
	// Evictions only happen inside cache calls made with m.mu held
	cache, err := lru.NewWithEvict(capacity, m.evicted)
	if err != nil {
		return nil, fmt.Errorf("create companion registry: %w", err)
	}
	m.cache = cache
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m, nil
}

func (m *Manager) evicted(id string, c *Companion) {
	if m.leases[c] > 0 {
		m.retired[id] = c
		return
	}
	log.Printf("Unloading companion %s", id)
	c.Close()
}

// Acquire returns the companion for profileID, loading it on first use, and
// a release func the caller must call when done with it. A fresh profile is
// created when none is stored; the remote copy is merged in the background.
func (m *Manager) Acquire(ctx context.Context, profileID string) (*Companion, func(), error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, nil, fmt.Errorf("%w: empty profile id", relationship.ErrInvalidProfile)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.lookupLocked(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}
	m.leases[c]++

	var once sync.Once
	release := func() {
		once.Do(func() { m.release(profileID, c) })
	}
	return c, release, nil
}

func (m *Manager) lookupLocked(ctx context.Context, profileID string) (*Companion, error) {
	if c, ok := m.cache.Get(profileID); ok {
		return c, nil
	}
	// Still leased after eviction, so it remains the owner
	if c, ok := m.retired[profileID]; ok {
		delete(m.retired, profileID)
		m.cache.Add(profileID, c)
		return c, nil
	}

	p := relationship.NewProfile(profileID)
	var rec bonus.Record
	if m.deps.Local != nil {
		saved, found, err := m.deps.Local.LoadProfile(ctx, profileID)
		if err != nil {
			return nil, err
		}
		if found {
			p = saved
		}
		rec, err = m.deps.Local.LoadLoginRecord(ctx, profileID)
		if err != nil {
			return nil, err
		}
	}

	c, err := New(p, rec, m.deps)
	if err != nil {
		return nil, err
	}
	c.Start(m.ctx)
	m.cache.Add(profileID, c)
	log.Printf("Loaded companion %s (score %d)", profileID, p.IntimacyScore)

	if m.deps.Remote != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			syncCtx, cancel := context.WithTimeout(m.ctx, initialSyncTimeout)
			defer cancel()
			c.Sync(syncCtx)
		}()
	}
	return c, nil
}

func (m *Manager) release(profileID string, c *Companion) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.leases[c]--
	if m.leases[c] > 0 {
		return
	}
	delete(m.leases, c)
	if m.retired[profileID] == c {
		delete(m.retired, profileID)
		log.Printf("Unloading companion %s", profileID)
		c.Close()
	}
}

// Len returns how many companions are loaded, leased ones past eviction included
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len() + len(m.retired)
}

// Remove unloads one companion, flushing its state once it is no longer leased
func (m *Manager) Remove(profileID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Remove(profileID)
}

// Close unloads every companion, leased or not
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Purge()
	for id, c := range m.retired {
		log.Printf("Unloading companion %s", id)
		c.Close()
		delete(m.retired, id)
	}
}
