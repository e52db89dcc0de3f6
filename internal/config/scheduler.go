package config

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/sethvargo/go-envconfig"
)

type SchedulerConfig struct {
	Timezone        string        `env:"SCHEDULER_TIMEZONE, default=Asia/Jerusalem"`
	Calendar        string        `env:"SCHEDULER_CALENDAR, default=hebrew"`
	CallbackTimeout time.Duration `env:"SCHEDULER_CALLBACK_TIMEOUT, default=10m"`
	LedgerTTL       time.Duration `env:"SCHEDULER_LEDGER_TTL, default=48h"`

	location *time.Location
}

func NewSchedulerConfigFromEnv() (*SchedulerConfig, error) {
	var cfg SchedulerConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc
	if cfg.CallbackTimeout < 0 {
		return nil, fmt.Errorf("SCHEDULER_CALLBACK_TIMEOUT must not be negative")
	}
	return &cfg, nil
}

// Location is the time zone event times are expressed in.
func (c *SchedulerConfig) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}
