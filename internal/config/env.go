package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// FromEnv overlays environment variables onto cfg.
func FromEnv(cfg *Config) error {
	setString(&cfg.DiscordToken, "CLIENT_TOKEN")
	setString(&cfg.Prefix, "BOT_PREFIX")
	setString(&cfg.QueueChannelId, "QUEUE_CHANNEL_ID")
	setString(&cfg.QueueMasterChannelId, "QUEUE_MASTER_CHANNEL_ID")
	setString(&cfg.SubscriberRoleId, "TWITCH_SUB_ROLE_ID")
	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.QueueDbDriver, "QUEUE_DB_DRIVER")
	setString(&cfg.QueueDbDsn, "QUEUE_DB_DSN")
	setString(&cfg.HttpAddr, "HTTP_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")

	setString(&cfg.Twitch.StreamerName, "STREAMER_NAME")
	setString(&cfg.Twitch.ClientId, "TWITCH_CLIENT_ID")
	setString(&cfg.Twitch.ClientSecret, "TWITCH_CLIENT_SECRET")
	setString(&cfg.Twitch.GoingLiveChannelId, "GOING_LIVE_CHANNEL_ID")

	setString(&cfg.Moderation.LogsChannelId, "LOGS_CHANNEL_ID")
	setString(&cfg.Moderation.NewUserJoinRoleId, "NEW_USER_JOIN_ROLE_ID")
	setString(&cfg.Moderation.Timezone, "TIMEZONE")
	if v := os.Getenv("IGNORED_MESSAGE_IDS"); v != "" {
		cfg.Moderation.IgnoredMessageIds = splitList(v, ",")
	}
	if v := os.Getenv("ALTERNATE_LOG_CHANNEL"); v != "" {
		alternates, err := ParseAlternateLogChannels(v)
		if err != nil {
			return err
		}
		cfg.Moderation.AlternateLogChannels = alternates
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SELF_HEAL_INTERVAL", &cfg.SelfHealInterval},
		{"CONFIRM_TIMEOUT", &cfg.ConfirmTimeout},
		{"STREAM_POLL_INTERVAL", &cfg.Twitch.PollInterval},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.target = parsed
	}
	return nil
}

// ParseAlternateLogChannels parses "channel:msg,msg;channel:msg" into a
// message id -> channel id map.
func ParseAlternateLogChannels(value string) (map[string]string, error) {
	alternates := map[string]string{}
	for _, mapping := range splitList(value, ";") {
		channelId, messageIds, found := strings.Cut(mapping, ":")
		channelId = strings.TrimSpace(channelId)
		if !found || channelId == "" {
			return nil, fmt.Errorf("ALTERNATE_LOG_CHANNEL entry %q is not of the form channel:message,message", mapping)
		}
		for _, messageId := range splitList(messageIds, ",") {
			alternates[messageId] = channelId
		}
	}
	return alternates, nil
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func splitList(value string, separator string) []string {
	var result []string
	for _, part := range strings.Split(value, separator) {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
