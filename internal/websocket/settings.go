package websocket

import (
	"time"

	"carviz/internal/config"
)

// Settings holds the per-connection limits and keepalive timings.
type Settings struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	SendBuffer      int
}

// SettingsFromConfig converts the configuration section.
func SettingsFromConfig(cfg config.WebSocketConfig) Settings {
	return Settings{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		MaxMessageSize:  cfg.MaxMessageSize,
		PingPeriod:      cfg.PingPeriod,
		PongWait:        cfg.PongWait,
		WriteWait:       cfg.WriteWait,
		SendBuffer:      256,
	}
}

// DefaultSettings matches config.Default.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default().WebSocket)
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = d.MaxMessageSize
	}
	if s.PongWait <= 0 {
		s.PongWait = d.PongWait
	}
	if s.PingPeriod <= 0 || s.PingPeriod >= s.PongWait {
		s.PingPeriod = s.PongWait * 9 / 10
	}
	if s.WriteWait <= 0 {
		s.WriteWait = d.WriteWait
	}
	if s.SendBuffer <= 0 {
		s.SendBuffer = d.SendBuffer
	}
	return s
}
