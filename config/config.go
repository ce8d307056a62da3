package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server struct {
		Port string `env:"PORT" envDefault:"5250"`

		// Path to the SQLite database file
		DatabasePath string `env:"DATABASE_PATH" envDefault:"database/estatehub.db"`

		// Optional JSON catalog used to seed an empty database
		CatalogPath string `env:"CATALOG_PATH" envDefault:"config/catalog.json"`

		// Directory holding the bundled property images served under /assets
		AssetsDir string `env:"ASSETS_DIR" envDefault:"public/assets"`

		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	}

	Admin struct {
		Username string `env:"ADMIN_USERNAME" envDefault:"admin"`

		// bcrypt hash of the admin password; ADMIN_PASSWORD is hashed at startup when empty
		PasswordHash string `env:"ADMIN_PASSWORD_HASH"`
		Password     string `env:"ADMIN_PASSWORD"`

		JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me-in-production-please-32b"`
		TokenTTL  time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`
	}

	Recommendations struct {
		// Number of recommendations returned when the client does not ask for a limit
		DefaultLimit int `env:"RECOMMENDATION_LIMIT" envDefault:"6"`
		MaxLimit     int `env:"RECOMMENDATION_MAX_LIMIT" envDefault:"24"`
	}

	AI struct {
		APIKey  string        `env:"OPENAI_API_KEY"`
		BaseURL string        `env:"OPENAI_BASE_URL"`
		Model   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
		Timeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"15s"`

		// Requests per second allowed towards the LLM API
		RateLimit float64 `env:"OPENAI_RATE_LIMIT" envDefault:"2"`
		RateBurst int     `env:"OPENAI_RATE_BURST" envDefault:"4"`
	}

	Geocoding struct {
		Country      string `env:"GEOCODE_COUNTRY" envDefault:"Uganda"`
		CountryCodes string `env:"GEOCODE_COUNTRY_CODES" envDefault:"ug"`
		CacheDir     string `env:"GEOCODE_CACHE_DIR"`
		Enabled      bool   `env:"GEOCODE_ENABLED" envDefault:"false"`
	}

	// Notifications configures delivery of inquiry notifications
	Notifications struct {
		// Size of the inquiry queue buffer
		QueueSize int `env:"NOTIFY_QUEUE_SIZE" envDefault:"100"`

		// Maximum number of retries for a failed delivery
		MaxRetries int `env:"NOTIFY_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"NOTIFY_RETRY_DELAY" envDefault:"5"`

		// Hour of day (server local time) at which the inquiry digest is sent
		DigestHour int `env:"NOTIFY_DIGEST_HOUR" envDefault:"8"`
	}

	Scheduler struct {
		ImageAuditInterval time.Duration `env:"IMAGE_AUDIT_INTERVAL" envDefault:"6h"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
