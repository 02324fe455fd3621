package store

import (
	"context"
	"sync"

	"lovelink/pkg/relationship"
)

// MemoryStore keeps profiles in a map and fans updates out to watchers
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]relationship.Profile
	watchers map[string][]chan relationship.Profile
	err      error
	updates  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]relationship.Profile),
		watchers: make(map[string][]chan relationship.Profile),
	}
}

// SetError makes every call fail with err until it is cleared with nil
func (s *MemoryStore) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Updates returns how many writes succeeded
func (s *MemoryStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func (s *MemoryStore) Fetch(ctx context.Context, id string) (relationship.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return relationship.Profile{}, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return relationship.Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Update(ctx context.Context, p relationship.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.profiles[p.ID] = p
	s.updates++
	return nil
}

// Put replaces the stored profile and notifies watchers, simulating a write
// from another device
func (s *MemoryStore) Put(p relationship.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.ID] = p
	for _, ch := range s.watchers[p.ID] {
		select {
		case ch <- p:
		default:
		}
	}
}

func (s *MemoryStore) Watch(ctx context.Context, id string) (<-chan relationship.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan relationship.Profile, 8)
	s.watchers[id] = append(s.watchers[id], ch)

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.watchers[id]
		for i, c := range list {
			if c == ch {
				s.watchers[id] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}
