// Package handler wires HTTP endpoints to the room session engine.
package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/johndosdos/watchparty/internal/config"
	ws "github.com/johndosdos/watchparty/internal/websocket"
)

// ServeWs handles the client's websocket connection upgrade. The room
// id arrives as a query parameter; identity fields (userId, username,
// avatar) are client-asserted and accepted at face value.
func ServeWs(h *ws.Hub, relay *ws.Relay, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("failed to upgrade connection to websocket: %v", err)
			return
		}

		q := r.URL.Query()
		roomID := q.Get("roomId")
		if roomID == "" {
			conn.Close(websocket.StatusPolicyViolation, "roomId is required")
			return
		}

		c := ws.NewClient(conn, roomID, q.Get("userId"), q.Get("username"), q.Get("avatar"))
		c.SetMessageLimiter(cfg.MessageLimit, cfg.MessageWindow)
		c.SetTypingLimiter(cfg.TypingLimit, cfg.TypingWindow)

		log.Printf("upgraded connection for user %s in room %s", c.UserID, roomID)

		// We'll register our new client to the central hub.
		reg := ws.Registration{
			Client: c,
			Done:   make(chan struct{}),
		}

		h.Register <- reg

		// Wait for registration to complete
		<-reg.Done

		// Try to keep the connection alive.
		go keepaliveConn(ctx, conn)

		// Run these goroutines to listen and process messages from other
		// clients.
		//
		// We block on c.ReadMessage() because the request context will be
		// canceled as soon we return from the ServeWs() handler.
		go c.WriteMessage(ctx)
		c.ReadMessage(ctx, relay)
	}
}

func keepaliveConn(ctx context.Context, conn *websocket.Conn) {
	// Ping client every 60s. Firewalls, proxies, and other services
	// have their own system to invalidate a stale connection, so we
	// simulate traffic within a set deadline.
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
