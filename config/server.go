package config

import (
	"errors"
	"time"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
	// LogsToken protects GET /api/dispatch/logs when set.
	LogsToken           string `json:"logs_token"`
	ReadTimeoutSeconds  int    `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `json:"write_timeout_seconds"`
	// WSQueueSize is the number of events buffered per websocket client.
	WSQueueSize            int `json:"ws_queue_size"`
	JanitorIntervalSeconds int `json:"janitor_interval_seconds"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 15
	}
	if c.WriteTimeoutSeconds <= 0 {
		c.WriteTimeoutSeconds = 60
	}
	if c.WSQueueSize <= 0 {
		c.WSQueueSize = 64
	}
	if c.JanitorIntervalSeconds <= 0 {
		c.JanitorIntervalSeconds = 60
	}
}

func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	return nil
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func (c ServerConfig) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSeconds) * time.Second
}
