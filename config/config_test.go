package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
token: "bot-token"
moderation:
  moderators: ["100", "200"]
  publish_channel: "999"
feedback:
  cooldown: 10s
  album_debounce: 300ms
watermark:
  text: "#news"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "bot-token", cfg.Token)
	assert.Equal(t, []string{"100", "200"}, cfg.Moderation.Moderators)
	assert.Equal(t, "999", cfg.Moderation.PublishChannel)
	assert.Equal(t, 10*time.Second, cfg.Feedback.Cooldown)
	assert.Equal(t, 300*time.Millisecond, cfg.Feedback.AlbumDebounce)
	assert.Equal(t, 10*time.Minute, cfg.Feedback.InactivityTimeout)
	assert.Equal(t, "#news", cfg.Watermark.Text)
	assert.Equal(t, 2*time.Minute, cfg.Watermark.VideoTimeout)
	assert.Equal(t, "./data/feedback.db", cfg.Database.Path)
	assert.Equal(t, "#feedback", cfg.Moderation.PublishTag)
}

func TestLoadConfig_Directory(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := LoadConfig(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, "bot-token", cfg.Token)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("FEEDBACKBOT_TOKEN", "from-env")
	t.Setenv("FEEDBACKBOT_FEEDBACK_COOLDOWN", "45s")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, 45*time.Second, cfg.Feedback.Cooldown)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "missing token",
			body: "moderation:\n  moderators: [\"1\"]\n  publish_channel: \"2\"\n",
			want: ErrMissingToken,
		},
		{
			name: "no moderators",
			body: "token: t\nmoderation:\n  publish_channel: \"2\"\n",
			want: ErrNoModerators,
		},
		{
			name: "no publish channel",
			body: "token: t\nmoderation:\n  moderators: [\"1\"]\n",
			want: ErrNoPublishChannel,
		},
		{
			name: "valid with extra section",
			body: sampleConfig + "\n" + "database:\n  path: x\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
