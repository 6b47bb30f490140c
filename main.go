// Package main our entry point.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/johndosdos/watchparty/internal/config"
	"github.com/johndosdos/watchparty/internal/handler"
	ratelimiter "github.com/johndosdos/watchparty/internal/rate_limiter"
	"github.com/johndosdos/watchparty/internal/room"
	ws "github.com/johndosdos/watchparty/internal/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %+v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	log.Println("Starting application...")

	// hub.Run is our central hub that is always listening for client
	// related events. Room state lives in the registry; the hub owns
	// membership and the periodic typing/room sweep.
	registry := room.NewRegistry(cfg.HistoryCap)
	hub := ws.NewHub(registry, cfg.TypingTTL, cfg.RoomGrace, cfg.SweepInterval)
	relay := ws.NewRelay(hub, registry)
	go hub.Run(ctx)

	ipLimiter := ratelimiter.NewIPRateLimiter(cfg.ConnLimit, cfg.ConnWindow, ratelimiter.CleanupOpts{
		TTL:      10 * time.Minute,
		Interval: time.Minute,
	})
	defer ipLimiter.Cancel()

	r := chi.NewRouter()
	r.Get("/healthz", handler.ServeHealth())
	r.With(ipLimiter.Middleware).Get("/ws", handler.ServeWs(hub, relay, cfg))

	server.Handler = r

	go func() {
		log.Printf("Server starting at 0.0.0.0:%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println(err)
	}

	log.Println("Server stopped")
}
