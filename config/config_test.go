package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	t.Setenv("GRADING_DB_DSN", "reader:pw@tcp(db:3306)/grading?parseTime=true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("HEYGEN_API_KEY", "hg-test")
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.ListenAddr)
		assert.Equal(t, "development", cfg.Environment)
		assert.Equal(t, "https://api.openai.com", cfg.OpenAIBaseURL)
		assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
		assert.Equal(t, "https://api.heygen.com", cfg.HeyGenBaseURL)
		assert.True(t, cfg.VideoTestMode)
		assert.True(t, cfg.VideoCaptions)
		assert.Empty(t, cfg.WebhookSecret)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("reads overrides", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("LISTEN_ADDR", ":9090")
		t.Setenv("VIDEO_TEST_MODE", "false")
		t.Setenv("HEYGEN_WEBHOOK_SECRET", "whsec-test")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.ListenAddr)
		assert.False(t, cfg.VideoTestMode)
		assert.Equal(t, "whsec-test", cfg.WebhookSecret)
		assert.True(t, cfg.IsProduction())
	})
}
