// Package config loads engine settings from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries every tunable of the room session engine. Defaults
// match the behavior of the original deployment.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	// Chat history entries kept per room before FIFO eviction.
	HistoryCap int `envconfig:"CHAT_HISTORY_CAP" default:"100"`

	// TYPING_TTL expires a typing indicator whose client never sent
	// stopTyping. ROOM_GRACE keeps an empty room's state around long
	// enough for everyone to rejoin after a blip.
	TypingTTL     time.Duration `envconfig:"TYPING_TTL" default:"10s"`
	RoomGrace     time.Duration `envconfig:"ROOM_GRACE" default:"5m"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"15s"`

	// Per-connection event limits.
	MessageLimit  int           `envconfig:"MESSAGE_LIMIT" default:"30"`
	MessageWindow time.Duration `envconfig:"MESSAGE_WINDOW" default:"1m"`
	TypingLimit   int           `envconfig:"TYPING_LIMIT" default:"120"`
	TypingWindow  time.Duration `envconfig:"TYPING_WINDOW" default:"1m"`

	// Per-IP limit on the upgrade endpoint.
	ConnLimit  int           `envconfig:"CONN_LIMIT" default:"20"`
	ConnWindow time.Duration `envconfig:"CONN_WINDOW" default:"1m"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
