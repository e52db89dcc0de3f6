package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Format string `env:"LOG_FORMAT, default=text"`
}

func NewLoggingConfigFromEnv() (*LoggingConfig, error) {
	var cfg LoggingConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
