package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "STOCKMAILER"

type Config struct {
	Port        int           `envconfig:"PORT" default:"8080"`
	DBPath      string        `envconfig:"DB_PATH" default:"stockmailer.db"`
	Workers     int           `envconfig:"WORKERS" default:"5"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string        `envconfig:"LOG_FORMAT" default:"text"`

	Directory DirectoryConfig `envconfig:"DIRECTORY"`
	Provider  ProviderConfig  `envconfig:"PROVIDER"`
	SMTP      SMTPConfig      `envconfig:"SMTP"`
}

// DirectoryConfig locates the company listings document.
type DirectoryConfig struct {
	URL string `envconfig:"URL"`
}

// ProviderConfig holds the chart provider endpoint and credentials.
type ProviderConfig struct {
	URL     string `envconfig:"URL"`
	APIKey  string `envconfig:"API_KEY"`
	APIHost string `envconfig:"API_HOST" default:"yh-finance.p.rapidapi.com"`
}

type SMTPConfig struct {
	Host     string        `envconfig:"HOST"`
	Port     int           `envconfig:"PORT" default:"587"`
	Username string        `envconfig:"USERNAME"`
	Password string        `envconfig:"PASSWORD"`
	From     string        `envconfig:"FROM"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

// Load reads envFile into the environment when it exists, then decodes
// STOCKMAILER_* variables. Variables already set in the environment win over
// the file. Missing collaborator settings are not an error here; they are
// reported when the collaborator is first used.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}
	return nil
}
