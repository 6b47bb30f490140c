package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/johndosdos/watchparty/internal/model"
	"github.com/johndosdos/watchparty/internal/room"
)

type sanitizer interface {
	Sanitize(s string) string
	SanitizeBytes(p []byte) []byte
}

// Relay dispatches inbound client events to their handlers. The event
// set is closed: anything outside it is dropped and logged, never
// fatal to the connection or the room.
type Relay struct {
	hub      *Hub
	registry *room.Registry
	validate *validator.Validate
	strict   sanitizer
	rich     sanitizer
}

// NewRelay returns a new instance of Relay.
func NewRelay(hub *Hub, registry *room.Registry) *Relay {
	return &Relay{
		hub:      hub,
		registry: registry,
		validate: validator.New(),
		strict:   bluemonday.StrictPolicy(),
		rich:     bluemonday.UGCPolicy(),
	}
}

// Dispatch decodes one inbound frame and routes it to the matching
// handler.
func (r *Relay) Dispatch(ctx context.Context, c *Client, raw []byte) {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.WarnContext(ctx, "dropping malformed frame",
			"error", err,
			"room_id", c.RoomID,
			"user_id", c.UserID)
		return
	}

	switch env.Event {
	case model.EventSendChatMessage:
		r.handleChatMessage(ctx, c, env.Data)
	case model.EventTyping:
		r.handleTyping(ctx, c, env.Data)
	case model.EventStopTyping:
		r.handleStopTyping(ctx, c, env.Data)
	case model.EventAddReaction:
		r.handleReaction(ctx, c, env.Data)
	case model.EventGetChatHistory:
		r.handleHistoryRequest(ctx, c, env.Data)
	default:
		if model.IsPassthrough(env.Event) {
			r.handlePassthrough(c, env)
			return
		}
		slog.WarnContext(ctx, "dropping unknown event",
			"event", env.Event,
			"room_id", c.RoomID)
	}
}

// decode unmarshals and validates an event payload, logging and
// reporting false on anything malformed.
func (r *Relay) decode(ctx context.Context, event string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		slog.WarnContext(ctx, "dropping malformed payload",
			"event", event,
			"error", err)
		return false
	}
	if err := r.validate.Struct(v); err != nil {
		slog.WarnContext(ctx, "dropping invalid payload",
			"event", event,
			"error", err)
		return false
	}
	return true
}

func (r *Relay) handleChatMessage(ctx context.Context, c *Client, data []byte) {
	if !c.allowMessage() {
		slog.WarnContext(ctx, "message rate limit exceeded",
			"room_id", c.RoomID,
			"user_id", c.UserID)
		return
	}

	var p model.ChatMessagePayload
	if !r.decode(ctx, model.EventSendChatMessage, data, &p) {
		return
	}

	// We need to sanitize incoming messages to prevent XSS. GIF
	// messages carry an empty content and pass through untouched.
	msg := p.Message
	if msg.IsRichText {
		msg.Content = r.rich.Sanitize(msg.Content)
	} else {
		msg.Content = r.strict.Sanitize(msg.Content)
	}

	// Reactions accrete server-side only; a client can't seed them.
	msg.Reactions = nil

	sess := r.registry.GetOrCreate(p.RoomID)
	sess.AppendMessage(msg)

	// The sender gets its own echo back for optimistic-UI reconciliation.
	r.hub.Broadcast(p.RoomID, model.EventChatMessage, msg, uuid.Nil)
}

func (r *Relay) handleTyping(ctx context.Context, c *Client, data []byte) {
	if !c.allowTyping() {
		return
	}

	var p model.TypingPayload
	if !r.decode(ctx, model.EventTyping, data, &p) {
		return
	}

	// Clients re-emit typing on every keystroke; only the transition
	// into the typing set is broadcast.
	sess := r.registry.GetOrCreate(p.RoomID)
	if sess.SetTyping(p.Username, time.Now()) {
		r.hub.Broadcast(p.RoomID, model.EventUserTyping, model.TypingBroadcast{Username: p.Username}, c.ID)
	}
}

func (r *Relay) handleStopTyping(ctx context.Context, c *Client, data []byte) {
	var p model.TypingPayload
	if !r.decode(ctx, model.EventStopTyping, data, &p) {
		return
	}

	sess, ok := r.registry.Get(p.RoomID)
	if !ok {
		return
	}
	if sess.ClearTyping(p.Username) {
		r.hub.Broadcast(p.RoomID, model.EventUserStoppedTyping, model.TypingBroadcast{Username: p.Username}, c.ID)
	}
}

func (r *Relay) handleReaction(ctx context.Context, c *Client, data []byte) {
	var p model.ReactionPayload
	if !r.decode(ctx, model.EventAddReaction, data, &p) {
		return
	}

	sess, ok := r.registry.Get(p.RoomID)
	if !ok {
		return
	}

	// Reactor identity comes from the connection, not the payload. An
	// unknown message id is a silent no-op.
	if !sess.AddReaction(p.MessageID, p.Emoji, c.UserID) {
		return
	}

	r.hub.Broadcast(p.RoomID, model.EventMessageReaction, model.ReactionBroadcast{
		MessageID: p.MessageID,
		Emoji:     p.Emoji,
		UserID:    c.UserID,
	}, uuid.Nil)
}

func (r *Relay) handleHistoryRequest(ctx context.Context, c *Client, data []byte) {
	var p model.HistoryRequestPayload
	if !r.decode(ctx, model.EventGetChatHistory, data, &p) {
		return
	}

	// Always succeeds: a room with no history yet yields an empty
	// sequence. The reply goes to the requester only, not the group.
	messages := []model.ChatMessage{}
	if sess, ok := r.registry.Get(p.RoomID); ok {
		messages = sess.History()
	}

	reply := model.ServerEvent{
		Event: model.EventChatHistory,
		Data:  model.HistoryPayload{RoomID: p.RoomID, Messages: messages},
	}
	select {
	case c.MessageCh <- reply:
	default:
		slog.WarnContext(ctx, "dropping history reply - channel full or client slow",
			"room_id", c.RoomID,
			"user_id", c.UserID)
	}
}

// handlePassthrough relays a playback/playlist control event verbatim
// to everyone else in the room. The engine holds no state for these.
func (r *Relay) handlePassthrough(c *Client, env model.Envelope) {
	roomID := c.RoomID
	if len(env.Data) > 0 {
		var scoped model.RoomScoped
		if err := json.Unmarshal(env.Data, &scoped); err == nil && scoped.RoomID != "" {
			roomID = scoped.RoomID
		}
	}

	r.hub.Broadcast(roomID, env.Event, env.Data, c.ID)
}
