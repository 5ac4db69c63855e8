package mockserver

import (
	"errors"
	"sync"
	"time"
)

var errSetFull = errors.New("revocation set is full")

// expiringSet is a bounded set whose members expire. Live members are never
// evicted; Add fails once the set is full of unexpired members.
type expiringSet struct {
	mu      sync.Mutex
	items   map[string]time.Time
	maxSize int
	now     func() time.Time
}

func newExpiringSet(maxSize int) *expiringSet {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &expiringSet{
		items:   make(map[string]time.Time),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (s *expiringSet) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containsLocked(key)
}

// Add inserts key or refreshes its expiry. A non-positive ttl never expires.
func (s *expiringSet) Add(key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.containsLocked(key) {
		s.items[key] = s.expiry(ttl)
		return nil
	}
	return s.insertLocked(key, ttl)
}

// AddIfAbsent inserts key unless it is already a live member. It reports
// whether the key was inserted.
func (s *expiringSet) AddIfAbsent(key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.containsLocked(key) {
		return false, nil
	}
	if err := s.insertLocked(key, ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (s *expiringSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *expiringSet) containsLocked(key string) bool {
	exp, ok := s.items[key]
	if !ok {
		return false
	}
	if !exp.IsZero() && s.now().After(exp) {
		delete(s.items, key)
		return false
	}
	return true
}

func (s *expiringSet) insertLocked(key string, ttl time.Duration) error {
	if len(s.items) >= s.maxSize {
		s.pruneLocked()
		if len(s.items) >= s.maxSize {
			return errSetFull
		}
	}
	s.items[key] = s.expiry(ttl)
	return nil
}

func (s *expiringSet) pruneLocked() {
	now := s.now()
	for key, exp := range s.items {
		if !exp.IsZero() && now.After(exp) {
			delete(s.items, key)
		}
	}
}

func (s *expiringSet) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}
