package room

import (
	"sync"
	"time"
)

// Registry maps room identifiers to their sessions. Sessions are
// created lazily on first join and evicted once idle; see Sweep.
type Registry struct {
	mu         sync.RWMutex
	rooms      map[string]*Session
	historyCap int
}

// NewRegistry returns an empty registry whose sessions cap their chat
// history at historyCap entries (DefaultHistoryCap if non-positive).
func NewRegistry(historyCap int) *Registry {
	return &Registry{
		rooms:      make(map[string]*Session),
		historyCap: historyCap,
	}
}

// Get returns the session for roomID if one exists.
func (r *Registry) Get(roomID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rooms[roomID]
	return s, ok
}

// GetOrCreate returns the session for roomID, creating an empty one on
// first use.
func (r *Registry) GetOrCreate(roomID string) *Session {
	r.mu.RLock()
	s, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check; another goroutine may have created it between locks.
	if s, ok := r.rooms[roomID]; ok {
		return s
	}
	s = newSession(roomID, r.historyCap)
	r.rooms[roomID] = s
	return s
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Sweep drops rooms that have had zero members for at least grace and
// returns the evicted room ids. The source design never removed rooms;
// without this, a long-running process accretes one session per room id
// it has ever seen.
func (r *Registry) Sweep(now time.Time, grace time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for roomID, s := range r.rooms {
		if s.Idle(now, grace) {
			delete(r.rooms, roomID)
			evicted = append(evicted, roomID)
		}
	}
	return evicted
}

// ExpireTyping sweeps stale typing entries in every room and returns
// the expired display names keyed by room id. Rooms with nothing
// expired are omitted.
func (r *Registry) ExpireTyping(now time.Time, ttl time.Duration) map[string][]string {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.rooms))
	for _, s := range r.rooms {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	expired := make(map[string][]string)
	for _, s := range sessions {
		if users := s.ExpireTyping(now, ttl); len(users) > 0 {
			expired[s.RoomID()] = users
		}
	}
	return expired
}
