// Package room holds per-room ephemeral state: bounded chat history,
// typing indicators and reaction aggregation. A Session is safe for
// concurrent use; all operations on the same room serialize on the
// session mutex, while different rooms never contend.
package room

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/johndosdos/watchparty/internal/model"
)

// DefaultHistoryCap bounds a room's chat history.
const DefaultHistoryCap = 100

// Session is the mutable state of a single room.
type Session struct {
	roomID     string
	historyCap int

	mu         sync.Mutex
	history    []model.ChatMessage
	typing     map[string]time.Time
	members    int
	lastActive time.Time
}

func newSession(roomID string, historyCap int) *Session {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Session{
		roomID:     roomID,
		historyCap: historyCap,
		typing:     make(map[string]time.Time),
		lastActive: time.Now(),
	}
}

// RoomID returns the externally assigned room identifier.
func (s *Session) RoomID() string { return s.roomID }

// AppendMessage adds msg to the history, evicting the single oldest
// entry when the history would exceed its capacity.
func (s *Session) AppendMessage(msg model.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, msg)
	if len(s.history) > s.historyCap {
		// Shift in place so the backing array stays at capacity.
		n := copy(s.history, s.history[1:])
		s.history = s.history[:n]
	}
	s.lastActive = time.Now()
}

// History returns a snapshot of the room's chat history, oldest first.
// The snapshot does not alias session state, so later reactions or
// evictions cannot mutate a slice already handed to a caller.
func (s *Session) History() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Map(s.history, func(msg model.ChatMessage, _ int) model.ChatMessage {
		return cloneMessage(msg)
	})
}

func cloneMessage(msg model.ChatMessage) model.ChatMessage {
	clone := msg
	clone.Reactions = lo.Map(msg.Reactions, func(r model.Reaction, _ int) model.Reaction {
		rc := r
		rc.Users = append([]string(nil), r.Users...)
		return rc
	})
	return clone
}

// AddReaction applies userID's emoji reaction to the message with the
// given id. Reactions are idempotent per (user, emoji, message): a
// repeat from the same user is a no-op, and there is no toggle-off.
// An unknown message id is also a no-op. It reports whether state
// changed, i.e. whether the caller should broadcast.
func (s *Session) AddReaction(messageID, emoji, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.history {
		if s.history[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	msg := &s.history[idx]
	for i := range msg.Reactions {
		r := &msg.Reactions[i]
		if r.Emoji != emoji {
			continue
		}
		if lo.Contains(r.Users, userID) {
			return false
		}
		r.Users = append(r.Users, userID)
		r.Count = len(r.Users)
		s.lastActive = time.Now()
		return true
	}

	msg.Reactions = append(msg.Reactions, model.Reaction{
		Emoji: emoji,
		Count: 1,
		Users: []string{userID},
	})
	s.lastActive = time.Now()
	return true
}

// SetTyping marks username as currently typing and refreshes its expiry
// stamp. It reports whether the user was newly marked, so redundant
// typing events don't trigger redundant broadcasts.
func (s *Session) SetTyping(username string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, already := s.typing[username]
	s.typing[username] = now
	s.lastActive = now
	return !already
}

// ClearTyping removes username from the typing set, reporting whether
// it was present.
func (s *Session) ClearTyping(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.typing[username]
	if ok {
		delete(s.typing, username)
		s.lastActive = time.Now()
	}
	return ok
}

// TypingUsers returns the display names currently marked typing, sorted
// for stable output.
func (s *Session) TypingUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := lo.Keys(s.typing)
	sort.Strings(users)
	return users
}

// ExpireTyping removes typing entries whose last typing event is older
// than ttl and returns the affected display names. The server cannot
// rely on every client sending stopTyping, so stale entries are swept
// out defensively.
func (s *Session) ExpireTyping(now time.Time, ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for username, last := range s.typing {
		if now.Sub(last) > ttl {
			delete(s.typing, username)
			expired = append(expired, username)
		}
	}
	sort.Strings(expired)
	return expired
}

// AddMember records a connection joining the room.
func (s *Session) AddMember() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members++
	s.lastActive = time.Now()
}

// RemoveMember records a connection leaving the room.
func (s *Session) RemoveMember() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members > 0 {
		s.members--
	}
	s.lastActive = time.Now()
}

// Members returns the current number of joined connections.
func (s *Session) Members() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members
}

// Idle reports whether the room has no members and has seen no activity
// for at least grace. Idle rooms are eligible for registry eviction.
func (s *Session) Idle(now time.Time, grace time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members == 0 && now.Sub(s.lastActive) >= grace
}
