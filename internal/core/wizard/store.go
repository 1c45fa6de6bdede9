package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps live sessions in memory. Sessions are short lived and are
// dropped on submission, cancel, or after ttl without activity.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
	}
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID()] = s
}

// Get returns the session if owner may use it. Sessions started anonymously
// are reachable by id alone.
func (st *Store) Get(id uuid.UUID, owner string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Owner() != "" && s.Owner() != owner {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *Store) Delete(id uuid.UUID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle since before now-ttl and returns how many were
// removed. A zero ttl disables expiry.
func (st *Store) Sweep(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.UpdatedAt().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Janitor sweeps every interval until ctx is done.
func (st *Store) Janitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Sweep(now); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
