package session

import (
	"context"
	"sync"
	"time"
)

type memoryProfile struct {
	values    map[Key]string
	touchedAt time.Time
}

// MemoryStore keeps profiles in process memory. Used in development and tests.
// Reads and writes both count as activity for SweepIdle.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]*memoryProfile
	now      func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		profiles: make(map[string]*memoryProfile),
		now:      now,
	}
}

func (s *MemoryStore) Get(_ context.Context, profileID string, key Key) (string, bool, error) {
	if profileID == "" {
		return "", false, ErrEmptyProfileID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[profileID]
	if !ok {
		return "", false, nil
	}
	p.touchedAt = s.now()
	v, ok := p.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, profileID string, key Key, value string) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[profileID]
	if !ok {
		p = &memoryProfile{values: make(map[Key]string)}
		s.profiles[profileID] = p
	}
	p.values[key] = value
	p.touchedAt = s.now()
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, profileID string, key Key) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[profileID]; ok {
		delete(p.values, key)
		p.touchedAt = s.now()
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, profileID string) error {
	if profileID == "" {
		return ErrEmptyProfileID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, profileID)
	return nil
}

func (s *MemoryStore) All(_ context.Context, profileID string) (map[Key]string, error) {
	if profileID == "" {
		return nil, ErrEmptyProfileID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := make(map[Key]string)
	if p, ok := s.profiles[profileID]; ok {
		p.touchedAt = s.now()
		for k, v := range p.values {
			res[k] = v
		}
	}
	return res, nil
}

func (s *MemoryStore) SweepIdle(_ context.Context, idleFor time.Duration) (int, error) {
	cutoff := s.now().Add(-idleFor)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, p := range s.profiles {
		if p.touchedAt.Before(cutoff) {
			delete(s.profiles, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
