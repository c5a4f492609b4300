package config

import (
	"fmt"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Config holds every setting the service reads from the environment.
// Nothing outside this package calls os.Getenv; components receive the
// values they need at construction time.
type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	SupabaseURL string `env:"SUPABASE_URL,required"`
	SupabaseKey string `env:"SUPABASE_SERVICE_KEY,required"`

	// Read-only grading database (MySQL).
	GradingDSN string `env:"GRADING_DB_DSN,required"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY,required"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`

	HeyGenAPIKey  string `env:"HEYGEN_API_KEY,required"`
	HeyGenBaseURL string `env:"HEYGEN_BASE_URL" envDefault:"https://api.heygen.com"`

	// Shared secret for verifying webhook signatures. Empty disables
	// verification, which matches the provider's sandbox behaviour.
	WebhookSecret string `env:"HEYGEN_WEBHOOK_SECRET"`

	// Submission defaults passed through to the provider.
	VideoTestMode      bool   `env:"VIDEO_TEST_MODE" envDefault:"true"`
	VideoCaptions      bool   `env:"VIDEO_CAPTIONS" envDefault:"true"`
	HeyGenFolderID     string `env:"HEYGEN_FOLDER_ID"`
	HeyGenBrandVoiceID string `env:"HEYGEN_BRAND_VOICE_ID"`
}

// Load reads .env when present, then parses the environment into a Config.
func Load() (*Config, error) {
	// .env is optional; in deployed environments variables come from the
	// process environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
// Production output is rendered at 1080p, everything else at 720p.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
