package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when a session is missing or expired
var ErrSessionNotFound = errors.New("session not found")

// Session is one logged-in back-office user
type Session struct {
	ID        string    `json:"id"`
	UID       int       `json:"uid"`
	CompanyID int       `json:"companyId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore keeps active sessions and login attempt counters.
// It is created at process start and passed explicitly to its users;
// entries go away only by Revoke/ResetAttempts or TTL expiry.
type SessionStore interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Revoke(ctx context.Context, id string) error
	// IncrAttempts bumps the counter for key; the window starts at the first attempt.
	IncrAttempts(ctx context.Context, key string, window time.Duration) (int, error)
	// Attempts returns the counter for key inside its current window.
	Attempts(ctx context.Context, key string) (int, error)
	ResetAttempts(ctx context.Context, key string) error
}

type attemptEntry struct {
	count     int
	expiresAt time.Time
}

// MemorySessionStore is an in-process SessionStore for tests and single-instance deployments
type MemorySessionStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]Session
	attempts map[string]attemptEntry
}

// NewMemorySessionStore creates a store; now may be nil to use time.Now
func NewMemorySessionStore(now func() time.Time) *MemorySessionStore {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionStore{
		now:      now,
		sessions: make(map[string]Session),
		attempts: make(map[string]attemptEntry),
	}
}

// Create stores a session until its ExpiresAt
func (m *MemorySessionStore) Create(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Get returns the session, ErrSessionNotFound when missing or expired
func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		delete(m.sessions, id)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// Revoke removes a session
func (m *MemorySessionStore) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// IncrAttempts increments the attempt counter for key
func (m *MemorySessionStore) IncrAttempts(_ context.Context, key string, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.attempts[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = attemptEntry{expiresAt: now.Add(window)}
	}
	entry.count++
	m.attempts[key] = entry
	return entry.count, nil
}

// Attempts returns the live counter for key, 0 once its window has passed
func (m *MemorySessionStore) Attempts(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.attempts[key]
	if !ok || !m.now().Before(entry.expiresAt) {
		return 0, nil
	}
	return entry.count, nil
}

// ResetAttempts clears the counter for key
func (m *MemorySessionStore) ResetAttempts(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, key)
	return nil
}

// Sweep evicts expired sessions and counters, returning how many were removed
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	for key, a := range m.attempts {
		if !now.Before(a.expiresAt) {
			delete(m.attempts, key)
			removed++
		}
	}
	return removed
}

// DefaultSweepInterval is used when RunSweeper gets a non-positive interval
const DefaultSweepInterval = time.Minute

// RunSweeper calls Sweep every interval until ctx is done
func (m *MemorySessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
