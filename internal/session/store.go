package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Snapshot is the serializable state of a session.
type Snapshot struct {
	SessionID     string `json:"session_id"`
	CurrentPoolID string `json:"current_pool_id"`
	PityCounter   int    `json:"pity_counter"`
	Stats         Stats  `json:"stats"`
}

// Snapshot deep-copies the session state.
func (s *Session) Snapshot() Snapshot {
	st := s.Stats
	st.FeaturedSSRCounts = s.FeaturedCounts()
	st.PullHistory = s.History(0)
	return Snapshot{
		SessionID:     s.ID,
		CurrentPoolID: s.CurrentPoolID,
		PityCounter:   s.PityCounter,
		Stats:         st,
	}
}

// FromSnapshot rebuilds a session. Missing maps and slices are replaced by
// empty ones and the history is trimmed to historyCap.
func FromSnapshot(snap Snapshot, historyCap int) *Session {
	s := &Session{
		ID:            snap.SessionID,
		CurrentPoolID: snap.CurrentPoolID,
		PityCounter:   snap.PityCounter,
		Stats:         snap.Stats,
		historyCap:    historyCap,
	}
	if s.Stats.FeaturedSSRCounts == nil {
		s.Stats.FeaturedSSRCounts = make(map[string]int)
	}
	if s.Stats.PullHistory == nil {
		s.Stats.PullHistory = []PullRecord{}
	}
	if historyCap > 0 && len(s.Stats.PullHistory) > historyCap {
		s.Stats.PullHistory = s.Stats.PullHistory[len(s.Stats.PullHistory)-historyCap:]
	}
	return s
}

// Store maps session ids to sessions. Only the map is guarded: creation is
// atomic per id, pulls on existing sessions never take the store lock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// NewID mints a session id.
func NewID() string { return uuid.NewString() }

// GetOrCreate returns the session for id, calling create under the store lock
// when it does not exist yet. Exactly one session is created per id even
// under concurrent first access. An empty id is replaced by a fresh one.
func (st *Store) GetOrCreate(id string, create func(id string) *Session) (*Session, bool) {
	if id == "" {
		id = NewID()
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s, false
	}
	s := create(id)
	st.sessions[id] = s
	return s, true
}

// Get returns an existing session.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// PutIfAbsent stores s unless a session with the same id exists, and returns
// the session that ends up stored.
func (st *Store) PutIfAbsent(s *Session) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if cur, ok := st.sessions[s.ID]; ok {
		return cur
	}
	st.sessions[s.ID] = s
	return s
}

// Delete drops a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// SnapshotStore persists snapshots between process runs.
type SnapshotStore interface {
	Load(ctx context.Context, id string) (Snapshot, bool, error)
	Save(ctx context.Context, snap Snapshot) error
}
