package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// ChannelsConfig names the Discord channels and categories the bot manages.
type ChannelsConfig struct {
	CourseCategoryID  string `env:"COURSE_CATEGORY_ID"`
	ArchiveCategoryID string `env:"ARCHIVE_CATEGORY_ID"`
	AnnounceChannelID string `env:"ANNOUNCE_CHANNEL_ID"`
}

func NewChannelsConfigFromEnv() (*ChannelsConfig, error) {
	var cfg ChannelsConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
