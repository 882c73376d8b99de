// Package config loads application settings from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// DataDir holds the device database, the session database and the JSON
	// registry fallback.
	DataDir string `env:"DATA_DIR" envDefault:"data"`

	// CountryCode is the default country code assumed for local numbers.
	CountryCode string `env:"COUNTRY_CODE" envDefault:"972"`

	// GoogleSheetID selects the spreadsheet used as the guest registry. When
	// empty the bot falls back to a JSON file under DataDir.
	GoogleSheetID string `env:"GOOGLE_SHEET_ID"`

	// GoogleCredentialsFile points at a service-account JSON key.
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"credentials.json"`

	// DuplicateCheck asks before replacing an already-listed phone number.
	DuplicateCheck bool `env:"DUPLICATE_CHECK" envDefault:"true"`

	// CollectPartySize enables the party-size question.
	CollectPartySize bool `env:"COLLECT_PARTY_SIZE" envDefault:"true"`

	// CollectLikelihood enables the likely-to-arrive question.
	CollectLikelihood bool `env:"COLLECT_LIKELIHOOD" envDefault:"true"`

	// MaxPartySize caps the party-size menu.
	MaxPartySize int `env:"MAX_PARTY_SIZE" envDefault:"6"`

	// LogLevel is a zerolog level name: trace, debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CountryCode == "" {
		return fmt.Errorf("COUNTRY_CODE must not be empty")
	}
	for _, r := range c.CountryCode {
		if r < '0' || r > '9' {
			return fmt.Errorf("COUNTRY_CODE must be digits only, got %q", c.CountryCode)
		}
	}
	if c.MaxPartySize < 1 {
		return fmt.Errorf("MAX_PARTY_SIZE must be at least 1, got %d", c.MaxPartySize)
	}
	return nil
}
