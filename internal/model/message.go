// Package model defines data structure.
package model

// Reaction aggregates all users who reacted to a message with the same
// emoji. Count always equals the number of entries in Users.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// ChatMessage represents a single message in a room's chat history,
// used for both storage and WebSocket communication. IDs and timestamps
// are client-assigned.
type ChatMessage struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Username   string     `json:"username"`
	UserAvatar string     `json:"userAvatar,omitempty"`
	Content    string     `json:"content"`
	Timestamp  int64      `json:"timestamp"`
	IsRichText bool       `json:"isRichText"`
	GifURL     string     `json:"gifUrl,omitempty"`
	Reactions  []Reaction `json:"reactions,omitempty"`
}
