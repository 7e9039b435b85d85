package main

import (
	"encoding/json"
	"os"
	"time"
)

// Config describes the simulated console's topology and ACK-timeout
// policy: a JSON-in, defaults-applied config for this transport's link
// table.
type Config struct {
	QueueCapacity    int           `json:"queue_capacity"`
	AckTimeout       time.Duration `json:"ack_timeout"`
	UseCallbackRouter bool         `json:"use_callback_router"`
	RedisAddr        string        `json:"redis_addr"`
	TelemetryPeriod  time.Duration `json:"telemetry_period"`
}

// LoadConfig parses a JSON config file and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = 8
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = 250 * time.Millisecond
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.TelemetryPeriod == 0 {
		cfg.TelemetryPeriod = 2 * time.Second
	}
}
