package websocket

import (
	"context"
	"log"

	"github.com/coder/websocket"
)

// ReadMessage reads the incoming data from the websocket stream and
// hands each frame to the relay. Dispatch happens synchronously on
// this goroutine, which is what preserves per-connection event order.
func (c *Client) ReadMessage(ctx context.Context, relay *Relay) {
	defer func() {
		c.Hub.Unregister <- c
		c.conn.CloseNow()
	}()

	for {
		msgType, p, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != -1 {
				log.Printf("%v", err)
			}
			return
		}

		// The protocol is JSON text frames only.
		if msgType != websocket.MessageText {
			continue
		}

		relay.Dispatch(ctx, c, p)
	}
}
