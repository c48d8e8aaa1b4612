package model

import "time"

// Config mirrors the top level of config.yaml.
type Config struct {
	Token      string     `mapstructure:"token"`
	Commands   Commands   `mapstructure:"commands"`
	Feedback   Feedback   `mapstructure:"feedback"`
	Moderation Moderation `mapstructure:"moderation"`
	Watermark  Watermark  `mapstructure:"watermark"`
	Database   Database   `mapstructure:"database"`
	Redis      Redis      `mapstructure:"redis"`
	Kafka      Kafka      `mapstructure:"kafka"`
	Log        Log        `mapstructure:"log"`
}

// Commands lists the guilds slash commands are registered in.
// An empty list registers them globally.
type Commands struct {
	AllowGuilds []string `mapstructure:"allow_guilds"`
}

// Feedback holds the submitter side policy.
type Feedback struct {
	Cooldown          time.Duration `mapstructure:"cooldown"`
	AlbumDebounce     time.Duration `mapstructure:"album_debounce"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
}

// Moderation holds the moderator side settings.
type Moderation struct {
	Moderators     []string `mapstructure:"moderators"`
	AdminRoles     []string `mapstructure:"admin_roles"`
	PublishChannel string   `mapstructure:"publish_channel"`
	PublishTag     string   `mapstructure:"publish_tag"`
}

// Watermark configures the media transform pipeline.
type Watermark struct {
	Text          string        `mapstructure:"text"`
	FFmpegPath    string        `mapstructure:"ffmpeg_path"`
	FontFile      string        `mapstructure:"font_file"`
	PhotoTimeout  time.Duration `mapstructure:"photo_timeout"`
	VideoTimeout  time.Duration `mapstructure:"video_timeout"`
	MaxFetchBytes int64         `mapstructure:"max_fetch_bytes"`
}

// Database points at the sqlite file.
type Database struct {
	Path string `mapstructure:"path"`
}

// Redis enables the shared rate limit store when Addr is set.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Kafka enables moderation audit events when Brokers is set.
type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Log configures the zap logger.
type Log struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}
