package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"feedbackbot/model"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FEEDBACKBOT_TOKEN.
const EnvPrefix = "FEEDBACKBOT"

var (
	ErrMissingToken     = errors.New("config: token is required")
	ErrNoModerators     = errors.New("config: at least one moderator is required")
	ErrNoPublishChannel = errors.New("config: moderation.publish_channel is required")
	ErrInvalidDuration  = errors.New("config: durations must be positive")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("token", "")
	v.SetDefault("feedback.cooldown", 60*time.Second)
	v.SetDefault("feedback.album_debounce", 500*time.Millisecond)
	v.SetDefault("feedback.inactivity_timeout", 10*time.Minute)
	v.SetDefault("moderation.moderators", []string{})
	v.SetDefault("moderation.admin_roles", []string{})
	v.SetDefault("moderation.publish_channel", "")
	v.SetDefault("moderation.publish_tag", "#feedback")
	v.SetDefault("watermark.text", "#feedback")
	v.SetDefault("watermark.ffmpeg_path", "ffmpeg")
	v.SetDefault("watermark.photo_timeout", 15*time.Second)
	v.SetDefault("watermark.video_timeout", 2*time.Minute)
	v.SetDefault("watermark.max_fetch_bytes", int64(50<<20))
	v.SetDefault("database.path", "./data/feedback.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "feedback.moderation")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// LoadConfig reads config.yaml from path (a file or a directory) and
// applies FEEDBACKBOT_* environment overrides.
func LoadConfig(path string) (*model.Config, error) {
	v := viper.New()
	setDefaults(v)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg model.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the bot cannot start without.
func Validate(cfg *model.Config) error {
	if cfg.Token == "" {
		return ErrMissingToken
	}
	if len(cfg.Moderation.Moderators) == 0 {
		return ErrNoModerators
	}
	if cfg.Moderation.PublishChannel == "" {
		return ErrNoPublishChannel
	}
	f := cfg.Feedback
	if f.Cooldown < 0 || f.AlbumDebounce <= 0 || f.InactivityTimeout <= 0 {
		return ErrInvalidDuration
	}
	return nil
}
