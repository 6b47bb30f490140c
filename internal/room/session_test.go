package room

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johndosdos/watchparty/internal/model"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return newSession("room-1", DefaultHistoryCap)
}

func message(id string) model.ChatMessage {
	return model.ChatMessage{
		ID:        id,
		UserID:    "u1",
		Username:  "alice",
		Content:   "hello from " + id,
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestHistoryCapacity(t *testing.T) {
	s := newTestSession(t)

	// Append 101 messages; the oldest must be evicted, leaving exactly
	// the most recent 100 in arrival order.
	for i := 0; i <= 100; i++ {
		s.AppendMessage(message(fmt.Sprintf("m%d", i)))
	}

	history := s.History()
	require.Len(t, history, 100)
	assert.Equal(t, "m1", history[0].ID)
	assert.Equal(t, "m100", history[99].ID)
}

func TestHistoryOrderPreserved(t *testing.T) {
	s := newTestSession(t)

	for i := range 10 {
		s.AppendMessage(message(fmt.Sprintf("m%d", i)))
	}

	history := s.History()
	require.Len(t, history, 10)
	for i, msg := range history {
		assert.Equal(t, fmt.Sprintf("m%d", i), msg.ID)
	}
}

func TestHistoryRetrievalIsReadOnly(t *testing.T) {
	s := newTestSession(t)
	s.AppendMessage(message("m0"))
	s.AppendMessage(message("m1"))

	first := s.History()
	second := s.History()
	assert.Equal(t, first, second)

	// Mutating a snapshot must not leak back into session state.
	first[0].Content = "tampered"
	assert.Equal(t, second, s.History())
}

func TestHistorySnapshotUnaffectedByLaterReactions(t *testing.T) {
	s := newTestSession(t)
	s.AppendMessage(message("m0"))

	require.True(t, s.AddReaction("m0", "👍", "u1"))
	snapshot := s.History()
	require.Len(t, snapshot[0].Reactions, 1)

	require.True(t, s.AddReaction("m0", "👍", "u2"))
	assert.Equal(t, 1, snapshot[0].Reactions[0].Count)
	assert.Equal(t, 2, s.History()[0].Reactions[0].Count)
}

func TestReactionIdempotence(t *testing.T) {
	s := newTestSession(t)
	s.AppendMessage(message("m5"))

	assert.True(t, s.AddReaction("m5", "👍", "u1"))
	assert.False(t, s.AddReaction("m5", "👍", "u1"))

	reactions := s.History()[0].Reactions
	require.Len(t, reactions, 1)
	assert.Equal(t, "👍", reactions[0].Emoji)
	assert.Equal(t, 1, reactions[0].Count)
	assert.Equal(t, []string{"u1"}, reactions[0].Users)
}

func TestReactionAccumulation(t *testing.T) {
	s := newTestSession(t)
	s.AppendMessage(message("m5"))

	assert.True(t, s.AddReaction("m5", "👍", "u1"))
	assert.True(t, s.AddReaction("m5", "👍", "u2"))

	reactions := s.History()[0].Reactions
	require.Len(t, reactions, 1)
	assert.Equal(t, 2, reactions[0].Count)
	assert.ElementsMatch(t, []string{"u1", "u2"}, reactions[0].Users)
}

func TestReactionEmojiOrderIsFirstSeen(t *testing.T) {
	s := newTestSession(t)
	s.AppendMessage(message("m0"))

	s.AddReaction("m0", "👍", "u1")
	s.AddReaction("m0", "❤️", "u2")
	s.AddReaction("m0", "👍", "u3")

	reactions := s.History()[0].Reactions
	require.Len(t, reactions, 2)
	assert.Equal(t, "👍", reactions[0].Emoji)
	assert.Equal(t, "❤️", reactions[1].Emoji)
}

func TestReactionUnknownMessageIsNoop(t *testing.T) {
	s := newTestSession(t)
	s.AppendMessage(message("m0"))

	assert.False(t, s.AddReaction("missing", "👍", "u1"))
	assert.Empty(t, s.History()[0].Reactions)
}

func TestTypingSetMembership(t *testing.T) {
	s := newTestSession(t)
	now := time.Now()

	assert.True(t, s.SetTyping("alice", now))
	assert.Equal(t, []string{"alice"}, s.TypingUsers())

	// A duplicate typing event leaves the set unchanged.
	assert.False(t, s.SetTyping("alice", now))
	assert.Equal(t, []string{"alice"}, s.TypingUsers())

	assert.True(t, s.ClearTyping("alice"))
	assert.Empty(t, s.TypingUsers())

	assert.False(t, s.ClearTyping("alice"))
}

func TestTypingExpiry(t *testing.T) {
	s := newTestSession(t)
	start := time.Now()

	s.SetTyping("alice", start)
	s.SetTyping("bob", start.Add(5*time.Second))

	expired := s.ExpireTyping(start.Add(12*time.Second), 10*time.Second)
	assert.Equal(t, []string{"alice"}, expired)
	assert.Equal(t, []string{"bob"}, s.TypingUsers())
}

func TestTypingRefreshDelaysExpiry(t *testing.T) {
	s := newTestSession(t)
	start := time.Now()

	s.SetTyping("alice", start)
	// A repeat typing event refreshes the stamp even though it is not
	// a membership change.
	s.SetTyping("alice", start.Add(8*time.Second))

	assert.Empty(t, s.ExpireTyping(start.Add(12*time.Second), 10*time.Second))
	assert.Equal(t, []string{"alice"}, s.TypingUsers())
}

func TestMemberCountAndIdle(t *testing.T) {
	s := newTestSession(t)

	s.AddMember()
	s.AddMember()
	assert.Equal(t, 2, s.Members())
	assert.False(t, s.Idle(time.Now().Add(time.Hour), 0))

	s.RemoveMember()
	s.RemoveMember()
	assert.Equal(t, 0, s.Members())
	assert.True(t, s.Idle(time.Now().Add(time.Hour), time.Minute))
	assert.False(t, s.Idle(time.Now(), time.Minute))

	// Never go negative on spurious removes.
	s.RemoveMember()
	assert.Equal(t, 0, s.Members())
}
