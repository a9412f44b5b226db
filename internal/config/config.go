package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the API origin used when nothing else is configured.
const DefaultBaseURL = "https://task-manager-backend-1-ooep.onrender.com/api"

// Config defines client configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Session SessionConfig `yaml:"session"`
	Poll    PollConfig    `yaml:"poll"`
	Log     LogConfig     `yaml:"log"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Path string `yaml:"path"`
}

// PollConfig holds the dashboard refresh cadence.
type PollConfig struct {
	AdminInterval time.Duration `yaml:"admin_interval"`
	UserInterval  time.Duration `yaml:"user_interval"`
	BannerTTL     time.Duration `yaml:"banner_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			Path: defaultSessionPath(),
		},
		Poll: PollConfig{
			AdminInterval: 30 * time.Second,
			UserInterval:  5 * time.Minute,
			BannerTTL:     3 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// and environment variables, in that order of increasing precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("TASKDESK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the client cannot run with.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must be set")
	}
	if c.Session.Path == "" {
		return errors.New("session.path must be set")
	}
	if c.Poll.AdminInterval <= 0 || c.Poll.UserInterval <= 0 {
		return errors.New("poll intervals must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TASKDESK_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TASKDESK_SESSION_PATH"); v != "" {
		cfg.Session.Path = v
	}
	if v := os.Getenv("TASKDESK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TASKDESK_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"TASKDESK_API_TIMEOUT", &cfg.API.Timeout},
		{"TASKDESK_ADMIN_POLL", &cfg.Poll.AdminInterval},
		{"TASKDESK_USER_POLL", &cfg.Poll.UserInterval},
		{"TASKDESK_BANNER_TTL", &cfg.Poll.BannerTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.env, err)
		}
		*d.dst = parsed
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "taskdesk-session.db"
	}
	return filepath.Join(home, ".taskdesk", "session.db")
}
