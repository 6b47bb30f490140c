package model

import "encoding/json"

// Server-bound event names.
const (
	EventSendChatMessage = "sendChatMessage"
	EventTyping          = "typing"
	EventStopTyping      = "stopTyping"
	EventAddReaction     = "addReaction"
	EventGetChatHistory  = "getChatHistory"
)

// Client-bound event names.
const (
	EventChatMessage       = "chatMessage"
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventMessageReaction   = "messageReaction"
	EventChatHistory       = "chatHistory"
)

// Playback and playlist control events are relayed verbatim between
// clients; the engine never inspects or stores their payloads.
var passthroughEvents = map[string]struct{}{
	"fetch":              {},
	"setProgress":        {},
	"setPaused":          {},
	"setPlaybackRate":    {},
	"setLoop":            {},
	"playUrl":            {},
	"playItem":           {},
	"addToPlaylist":      {},
	"removeFromPlaylist": {},
}

// IsPassthrough reports whether event is one of the opaque
// playback/playlist control events.
func IsPassthrough(event string) bool {
	_, ok := passthroughEvents[event]
	return ok
}

// Envelope is the inbound wire frame. Data is decoded into the
// event-specific payload type once the event name is known.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the outbound wire frame.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ChatMessagePayload carries a new chat message into a room.
type ChatMessagePayload struct {
	RoomID  string      `json:"roomId" validate:"required"`
	Message ChatMessage `json:"message"`
}

// TypingPayload is shared by the typing and stopTyping events.
type TypingPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// ReactionPayload identifies the message and emoji a user reacted with.
// The reactor identity comes from the connection, not the payload.
type ReactionPayload struct {
	RoomID    string `json:"roomId" validate:"required"`
	MessageID string `json:"messageId" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

// HistoryRequestPayload asks for a room's current chat history.
type HistoryRequestPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

// HistoryPayload is the direct reply to getChatHistory.
type HistoryPayload struct {
	RoomID   string        `json:"roomId"`
	Messages []ChatMessage `json:"messages"`
}

// ReactionBroadcast lets every client reapply the same aggregation
// rule locally for optimistic rendering.
type ReactionBroadcast struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"userId"`
}

// TypingBroadcast carries the display name for userTyping and
// userStoppedTyping events.
type TypingBroadcast struct {
	Username string `json:"username"`
}

// RoomScoped extracts just the room id from a passthrough payload, when
// the client includes one.
type RoomScoped struct {
	RoomID string `json:"roomId"`
}
