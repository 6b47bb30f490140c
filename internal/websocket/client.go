package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/johndosdos/watchparty/internal/model"
)

// Client is one websocket connection, bound to exactly one room for
// its whole lifetime.
type Client struct {
	ID         uuid.UUID
	RoomID     string
	UserID     string
	Username   string
	UserAvatar string
	conn       *websocket.Conn
	Hub        *Hub
	MessageCh  chan model.ServerEvent
	messageLim *rate.Limiter
	typingLim  *rate.Limiter
}

// NewClient returns a new instance of Client. Identity fields are
// client-asserted; an empty userID falls back to the connection id so
// reactions always have a distinct reactor.
func NewClient(conn *websocket.Conn, roomID, userID, username, avatar string) *Client {
	id := uuid.New()
	if userID == "" {
		userID = id.String()
	}
	return &Client{
		ID:         id,
		RoomID:     roomID,
		UserID:     userID,
		Username:   username,
		UserAvatar: avatar,
		conn:       conn,
		MessageCh:  make(chan model.ServerEvent, 64),
	}
}

func (c *Client) SetMessageLimiter(requests int, window time.Duration) {
	l := rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
	c.messageLim = l
}

func (c *Client) SetTypingLimiter(requests int, window time.Duration) {
	l := rate.NewLimiter(rate.Every(window/time.Duration(requests)), requests)
	c.typingLim = l
}

func (c *Client) allowMessage() bool {
	return c.messageLim == nil || c.messageLim.Allow()
}

func (c *Client) allowTyping() bool {
	return c.typingLim == nil || c.typingLim.Allow()
}

// WriteMessage writes outbound events to the websocket stream.
func (c *Client) WriteMessage(ctx context.Context) {
	for {
		select {
		case evt, ok := <-c.MessageCh:
			// We don't want to continue processing when the channel has
			// already been closed.
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := wsjson.Write(writeCtx, c.conn, evt); err != nil {
				slog.WarnContext(ctx, "failed to write event",
					"error", err,
					"event", evt.Event,
					"room_id", c.RoomID,
					"user_id", c.UserID)
				cancel()
				continue
			}
			cancel()

		case <-ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "context cancelled")
			return
		}
	}
}
