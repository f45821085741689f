package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings loaded from YAML with environment
// overrides. Zero values are filled from Defaults before validation.
type Config struct {
	ListenAddr       string `yaml:"listenAddr"`
	DatabasePath     string `yaml:"databasePath"`
	ProviderURL      string `yaml:"providerURL"`
	ProviderToken    string `yaml:"providerToken"`
	LinkBase         string `yaml:"linkBase"`
	MaxGames         int    `yaml:"maxGames"`
	FetchTTLMinutes  int    `yaml:"fetchTTLMinutes"`
	FetchTimeoutSecs int    `yaml:"fetchTimeoutSecs"`
	BlunderThreshold int    `yaml:"blunderThreshold"`
	WinningClamp     int    `yaml:"winningClamp"`
	OwnColorOnly     bool   `yaml:"ownColorOnly"`
	DevMode          bool   `yaml:"devMode"`
}

// Defaults returns a runnable configuration pointed at lichess.
func Defaults() Config {
	return Config{
		ListenAddr:       ":8080",
		DatabasePath:     "puzzles.db",
		ProviderURL:      "https://lichess.org",
		LinkBase:         "https://lichess.org",
		MaxGames:         30,
		FetchTTLMinutes:  60,
		FetchTimeoutSecs: 120,
		BlunderThreshold: 250,
		WinningClamp:     800,
	}
}

// Load reads config from path. An empty path skips the file and uses
// defaults plus environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	// Override with environment variables
	if v := os.Getenv("PUZZLEFISH_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("PUZZLEFISH_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("PUZZLEFISH_PROVIDER_URL"); v != "" {
		cfg.ProviderURL = v
	}
	if v := os.Getenv("PUZZLEFISH_PROVIDER_TOKEN"); v != "" {
		cfg.ProviderToken = v
	}
	if v := os.Getenv("PUZZLEFISH_LINK_BASE"); v != "" {
		cfg.LinkBase = v
	}
	if v := os.Getenv("PUZZLEFISH_MAX_GAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxGames = n
		}
	}
	if v := os.Getenv("PUZZLEFISH_OWN_COLOR_ONLY"); v == "true" {
		cfg.OwnColorOnly = true
	}
	if v := os.Getenv("PUZZLEFISH_DEV_MODE"); v == "true" {
		cfg.DevMode = true
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.ListenAddr == "" {
		return errors.New("config: listenAddr is required")
	}
	if cfg.DatabasePath == "" {
		return errors.New("config: databasePath is required")
	}
	if cfg.ProviderURL == "" {
		return errors.New("config: providerURL is required")
	}
	if cfg.LinkBase == "" {
		return errors.New("config: linkBase is required")
	}
	if cfg.MaxGames < 1 {
		return errors.New("config: maxGames must be positive")
	}
	if cfg.FetchTTLMinutes < 1 {
		return errors.New("config: fetchTTLMinutes must be positive")
	}
	if cfg.FetchTimeoutSecs < 1 {
		return errors.New("config: fetchTimeoutSecs must be positive")
	}
	if cfg.BlunderThreshold < 1 {
		return errors.New("config: blunderThreshold must be positive")
	}
	if cfg.WinningClamp < cfg.BlunderThreshold {
		return errors.New("config: winningClamp must be at least blunderThreshold")
	}
	return nil
}

// FetchTTL returns the per-user fetch cooldown as a duration.
func (c Config) FetchTTL() time.Duration {
	return time.Duration(c.FetchTTLMinutes) * time.Minute
}

// FetchTimeout returns the provider round-trip budget as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}
