//nolint:all
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/johndosdos/watchparty/internal/model"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "websocket endpoint")
	rooms := flag.Int("rooms", 4, "number of rooms")
	clients := flag.Int("clients", 20, "clients per room")
	messages := flag.Int("messages", 10, "chat messages per client")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var sent, received atomic.Int64
	var wg sync.WaitGroup

	for roomNum := range *rooms {
		roomID := fmt.Sprintf("loadtest-%d", roomNum)
		for clientNum := range *clients {
			wg.Add(1)
			go func() {
				defer wg.Done()
				runClient(ctx, *addr, roomID, clientNum, *messages, &sent, &received)
			}()
		}
	}

	wg.Wait()
	log.Printf("done: sent %d, received %d", sent.Load(), received.Load())
}

func runClient(ctx context.Context, addr, roomID string, clientNum, messages int, sent, received *atomic.Int64) {
	userID := uuid.NewString()
	url := fmt.Sprintf("%s?roomId=%s&userId=%s&username=load-%d", addr, roomID, userID, clientNum)

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		log.Printf("failed to dial [%s]: %v", url, err)
		return
	}
	defer conn.CloseNow()

	// Drain broadcasts from the rest of the room.
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	go func() {
		for {
			var env model.Envelope
			if err := wsjson.Read(readCtx, conn, &env); err != nil {
				return
			}
			received.Add(1)
		}
	}()

	for i := range messages {
		payload := model.ChatMessagePayload{
			RoomID: roomID,
			Message: model.ChatMessage{
				ID:        uuid.NewString(),
				UserID:    userID,
				Username:  fmt.Sprintf("load-%d", clientNum),
				Content:   fmt.Sprintf("message %d from client %d", i, clientNum),
				Timestamp: time.Now().UnixMilli(),
			},
		}
		err := wsjson.Write(ctx, conn, model.ServerEvent{
			Event: model.EventSendChatMessage,
			Data:  payload,
		})
		if err != nil {
			log.Printf("failed to send message: %v", err)
			return
		}
		sent.Add(1)
		time.Sleep(100 * time.Millisecond)
	}

	// Give stragglers a moment to arrive before hanging up.
	time.Sleep(time.Second)
	conn.Close(websocket.StatusNormalClosure, "loadtest complete")
}
