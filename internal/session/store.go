package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidSession is returned by Update when the session is missing its
// phone-number key. This is a programming-contract violation, not user error.
var ErrInvalidSession = errors.New("session has no phone number")

// Store defines the TTL session cache contract.
type Store interface {
	// GetOrCreate returns the live session for a phone number, creating a
	// fresh one when none exists or the existing one has expired. The
	// returned session's expiry is always advanced.
	GetOrCreate(phoneNumber string) *Session

	// Update persists the session by phone-number key, refreshing
	// UpdatedAt and ExpiresAt. Last writer wins.
	Update(s *Session) (*Session, error)

	// Clear removes the session and reports whether one existed.
	Clear(phoneNumber string) bool

	// SweepExpired removes every expired session and returns how many.
	SweepExpired() int
}

// MemoryStore is an in-memory Store for single-instance deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore with the given session TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetOrCreate returns the live session for phoneNumber, replacing any
// expired one with a fresh session in the initial state.
func (m *MemoryStore) GetOrCreate(phoneNumber string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if s, ok := m.sessions[phoneNumber]; ok && !s.Expired(now) {
		s.UpdatedAt = now
		s.ExpiresAt = now.Add(m.ttl)
		return s
	}

	s := &Session{
		ID:           uuid.NewString(),
		PhoneNumber:  phoneNumber,
		CurrentState: StateStart,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
	}
	m.sessions[phoneNumber] = s
	return s
}

// Update stores the session by phone-number key and refreshes its expiry.
func (m *MemoryStore) Update(s *Session) (*Session, error) {
	if s == nil || s.PhoneNumber == "" {
		return nil, ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(m.ttl)
	m.sessions[s.PhoneNumber] = s
	return s, nil
}

// Clear removes the session for phoneNumber.
func (m *MemoryStore) Clear(phoneNumber string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[phoneNumber]
	delete(m.sessions, phoneNumber)
	return ok
}

// SweepExpired removes all expired sessions and returns the count removed.
func (m *MemoryStore) SweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for phone, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, phone)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions currently held, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartSweeper runs a background goroutine that periodically removes
// expired sessions until ctx is canceled.
func StartSweeper(ctx context.Context, store Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				if removed := store.SweepExpired(); removed > 0 {
					slog.Info("Session sweeper removed expired sessions", "count", removed)
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
