package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLazyCreate(t *testing.T) {
	r := NewRegistry(DefaultHistoryCap)

	_, ok := r.Get("movie-night")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	s := r.GetOrCreate("movie-night")
	require.NotNil(t, s)
	assert.Equal(t, 1, r.Len())

	again, ok := r.Get("movie-night")
	require.True(t, ok)
	assert.Same(t, s, again)
	assert.Same(t, s, r.GetOrCreate("movie-night"))
}

func TestRegistryRoomIsolation(t *testing.T) {
	r := NewRegistry(DefaultHistoryCap)

	a := r.GetOrCreate("room-a")
	b := r.GetOrCreate("room-b")
	require.NotSame(t, a, b)

	a.AppendMessage(message("m0"))
	a.SetTyping("alice", time.Now())

	assert.Empty(t, b.History())
	assert.Empty(t, b.TypingUsers())
	assert.Len(t, a.History(), 1)
}

func TestRegistrySweepEvictsIdleRooms(t *testing.T) {
	r := NewRegistry(DefaultHistoryCap)

	idle := r.GetOrCreate("idle-room")
	occupied := r.GetOrCreate("occupied-room")
	occupied.AddMember()

	evicted := r.Sweep(time.Now().Add(time.Hour), 5*time.Minute)
	assert.Equal(t, []string{"idle-room"}, evicted)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get("idle-room")
	assert.False(t, ok)
	_, ok = r.Get("occupied-room")
	assert.True(t, ok)
	_ = idle
}

func TestRegistrySweepHonorsGracePeriod(t *testing.T) {
	r := NewRegistry(DefaultHistoryCap)
	r.GetOrCreate("just-emptied")

	// Still inside the grace window; the room must survive.
	evicted := r.Sweep(time.Now().Add(time.Minute), 5*time.Minute)
	assert.Empty(t, evicted)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryExpireTyping(t *testing.T) {
	r := NewRegistry(DefaultHistoryCap)
	start := time.Now()

	a := r.GetOrCreate("room-a")
	b := r.GetOrCreate("room-b")
	a.SetTyping("alice", start)
	a.SetTyping("bob", start)
	b.SetTyping("carol", start.Add(8*time.Second))

	expired := r.ExpireTyping(start.Add(12*time.Second), 10*time.Second)
	require.Len(t, expired, 1)
	assert.ElementsMatch(t, []string{"alice", "bob"}, expired["room-a"])
	assert.Equal(t, []string{"carol"}, b.TypingUsers())
}
