package otp

import (
	"sync"
	"time"

	"github.com/joescharf/shiplog/internal/models"
)

// Store holds at most one pending code per identity in process memory.
// It is not shared between processes; running more than one instance
// requires sticky routing of the whole login flow.
type Store struct {
	mu      sync.Mutex
	entries map[string]models.PendingOTP
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]models.PendingOTP)}
}

// Put stores p, replacing any pending code for the same identity.
func (s *Store) Put(p models.PendingOTP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[p.Identity] = p
}

// Get returns the pending code for identity, expired or not.
func (s *Store) Get(identity string) (models.PendingOTP, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[identity]
	return p, ok
}

// Len returns the number of pending entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Consume checks code against the pending entry for identity and removes the
// entry when it matched and was still valid. A mismatch leaves the entry in
// place; an expired entry is removed and reported as ErrExpired.
func (s *Store) Consume(identity, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.entries[identity]
	if !ok {
		return ErrNotFound
	}
	if p.Code != code {
		return ErrInvalidCode
	}
	if p.Expired(now) {
		delete(s.entries, identity)
		return ErrExpired
	}
	delete(s.entries, identity)
	return nil
}

// Sweep removes every entry that has expired at now and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, p := range s.entries {
		if p.Expired(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
