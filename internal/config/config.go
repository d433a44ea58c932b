// Package config loads the bot configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the complete runtime configuration of the bot.
type Config struct {
	DiscordToken string
	Prefix       string

	QueueChannelId       string
	QueueMasterChannelId string
	SubscriberRoleId     string

	DataDir          string
	QueueDbDriver    string
	QueueDbDsn       string
	SelfHealInterval time.Duration
	ConfirmTimeout   time.Duration

	HttpAddr  string
	LogLevel  string
	LogFormat string

	Twitch     Twitch
	Moderation Moderation
}

// Twitch configures the live-stream notifier.
type Twitch struct {
	StreamerName       string
	ClientId           string
	ClientSecret       string
	GoingLiveChannelId string
	PollInterval       time.Duration
}

// Moderation configures the audit trail.
type Moderation struct {
	LogsChannelId     string
	NewUserJoinRoleId string
	Timezone          string
	IgnoredMessageIds []string
	// Edits of these message ids are logged to the mapped channel instead of the logs channel
	AlternateLogChannels map[string]string
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Prefix:           "$",
		DataDir:          "data",
		QueueDbDriver:    "sqlite",
		SelfHealInterval: time.Minute,
		ConfirmTimeout:   30 * time.Second,
		LogLevel:         "info",
		LogFormat:        "console",
		Twitch: Twitch{
			PollInterval: 3 * time.Minute,
		},
		Moderation: Moderation{
			Timezone:             "UTC",
			AlternateLogChannels: map[string]string{},
		},
	}
}

// Load reads envFile into the process environment (if it exists) and
// overlays the environment onto the defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("could not load %s: %w", envFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	cfg := Default()
	if err := FromEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// QueueDsn is the data source name of the queue store, defaulting to a
// sqlite file inside the data directory.
func (cfg *Config) QueueDsn() string {
	if cfg.QueueDbDsn != "" {
		return cfg.QueueDbDsn
	}
	return filepath.Join(cfg.DataDir, "queue_system.db")
}

// StateDir is where the key-value state lives.
func (cfg *Config) StateDir() string {
	return filepath.Join(cfg.DataDir, "state")
}

func (cfg *Config) StreamNotifierEnabled() bool {
	return cfg.Twitch.StreamerName != "" && cfg.Twitch.ClientId != "" && cfg.Twitch.GoingLiveChannelId != ""
}

func (cfg *Config) ModerationEnabled() bool {
	return cfg.Moderation.LogsChannelId != ""
}

// Validate checks the settings the bot cannot start without.
func (cfg *Config) Validate() error {
	var problems []string
	if cfg.DiscordToken == "" {
		problems = append(problems, "CLIENT_TOKEN is required")
	}
	if cfg.QueueChannelId == "" {
		problems = append(problems, "QUEUE_CHANNEL_ID is required")
	}
	if cfg.QueueMasterChannelId == "" {
		problems = append(problems, "QUEUE_MASTER_CHANNEL_ID is required")
	}
	if cfg.SelfHealInterval <= 0 {
		problems = append(problems, "SELF_HEAL_INTERVAL must be positive")
	}
	if cfg.ConfirmTimeout <= 0 {
		problems = append(problems, "CONFIRM_TIMEOUT must be positive")
	}
	switch cfg.QueueDbDriver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("QUEUE_DB_DRIVER %q is not one of sqlite, postgres", cfg.QueueDbDriver))
	}
	if cfg.StreamNotifierEnabled() && cfg.Twitch.PollInterval <= 0 {
		problems = append(problems, "STREAM_POLL_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(cfg.Moderation.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("TIMEZONE %q is not a known location", cfg.Moderation.Timezone))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
