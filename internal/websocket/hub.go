// Package websocket implements the room session engine: connection
// management, per-room broadcast groups and the inbound event relay.
package websocket

import (
	"context"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johndosdos/watchparty/internal/model"
	"github.com/johndosdos/watchparty/internal/room"
)

type Registration struct {
	Client *Client
	Done   chan struct{}
}

// Hub binds connections to room broadcast groups and delivers outbound
// events to group members. Room state itself lives in the registry;
// the hub only tracks who is connected where.
type Hub struct {
	registry *room.Registry

	mu    sync.RWMutex
	rooms map[string]map[uuid.UUID]*Client

	Register   chan Registration
	Unregister chan *Client

	typingTTL     time.Duration
	roomGrace     time.Duration
	sweepInterval time.Duration
}

// NewHub returns a new instance of Hub.
func NewHub(registry *room.Registry, typingTTL, roomGrace, sweepInterval time.Duration) *Hub {
	return &Hub{
		registry:      registry,
		rooms:         make(map[string]map[uuid.UUID]*Client),
		Register:      make(chan Registration),
		Unregister:    make(chan *Client),
		typingTTL:     typingTTL,
		roomGrace:     roomGrace,
		sweepInterval: sweepInterval,
	}
}

// Run manages membership changes and the periodic sweep. Joins and
// leaves serialize here, the same way client registration works in a
// single hub goroutine.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case reg := <-h.Register:
			client := reg.Client
			client.Hub = h
			h.join(client)
			close(reg.Done)

		case client := <-h.Unregister:
			h.leave(client)

		case <-ticker.C:
			h.sweep(time.Now())

		case <-ctx.Done():
			log.Printf("context cancelled: %v", ctx.Err())
			return
		}
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	group, ok := h.rooms[c.RoomID]
	if !ok {
		group = make(map[uuid.UUID]*Client)
		h.rooms[c.RoomID] = group
	}
	group[c.ID] = c
	h.mu.Unlock()

	// First join to an unseen room id creates its session lazily.
	sess := h.registry.GetOrCreate(c.RoomID)
	sess.AddMember()
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	group, ok := h.rooms[c.RoomID]
	if ok {
		if _, member := group[c.ID]; !member {
			ok = false
		}
		delete(group, c.ID)
		if len(group) == 0 {
			delete(h.rooms, c.RoomID)
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	close(c.MessageCh)

	sess, found := h.registry.Get(c.RoomID)
	if !found {
		return
	}
	sess.RemoveMember()

	// The source left a disconnecting user's typing flag dangling
	// forever; clear it and tell the remaining members.
	if c.Username != "" && sess.ClearTyping(c.Username) {
		h.Broadcast(c.RoomID, model.EventUserStoppedTyping, model.TypingBroadcast{Username: c.Username}, uuid.Nil)
	}
}

// Broadcast delivers event/data to every member of roomID's group,
// skipping the connection whose id equals exclude (uuid.Nil excludes
// nobody). Delivery is best-effort: a slow or closing client is
// silently skipped rather than blocking the room.
func (h *Hub) Broadcast(roomID, event string, data any, exclude uuid.UUID) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, client := range h.rooms[roomID] {
		if id == exclude {
			continue
		}
		select {
		case client.MessageCh <- model.ServerEvent{Event: event, Data: data}:
		default:
			log.Println("skipping event payload - channel full or client slow")
		}
	}
}

// RoomSize returns the number of connections currently in roomID's
// broadcast group.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) sweep(now time.Time) {
	for roomID, users := range h.registry.ExpireTyping(now, h.typingTTL) {
		for _, username := range users {
			h.Broadcast(roomID, model.EventUserStoppedTyping, model.TypingBroadcast{Username: username}, uuid.Nil)
		}
	}

	if evicted := h.registry.Sweep(now, h.roomGrace); len(evicted) > 0 {
		slog.Info("evicted idle rooms",
			"count", len(evicted),
			"live_rooms", h.registry.Len())
	}
}
