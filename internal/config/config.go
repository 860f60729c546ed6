package config

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// DebugHost and DebugPort locate the Chrome instance started with
	// --remote-debugging-port. The browser process itself is not ours to manage.
	DebugHost string `envconfig:"DEBUG_HOST" default:"localhost"`
	DebugPort int    `envconfig:"DEBUG_PORT" default:"9222"`

	// OutputDir is the root for the screenshots/ and data/ subdirectories.
	OutputDir string `envconfig:"OUTPUT_DIR" default:"output"`

	// TabIndex selects a specific open tab by position; -1 means pick the
	// first real page (not about:blank). TabURL, when set, selects the first
	// tab whose URL contains it and takes precedence over TabIndex.
	TabIndex int    `envconfig:"TAB_INDEX" default:"-1"`
	TabURL   string `envconfig:"TAB_URL" default:""`

	// DatabaseURL maps to DB_URL. When empty the Postgres sink stays off.
	DatabaseURL string `envconfig:"DB_URL"`

	// NavigateDelay is the pause between link visits during a sweep.
	NavigateDelay time.Duration `envconfig:"NAV_DELAY" default:"1s"`

	// WaitTimeout bounds selector waits.
	WaitTimeout time.Duration `envconfig:"WAIT_TIMEOUT" default:"30s"`

	UserAgent string `envconfig:"USER_AGENT" default:"chromesnap/1.0"`
}

// Load processes environment variables and populates the Config struct.
func Load() (*Config, error) {
	// Load .env when present. Its absence is normal: in deployed
	// environments the variables are injected directly.
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			log.Warn(".env file found but could not be loaded", "err", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
