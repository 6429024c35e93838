// Package config loads the credentials and defaults errant needs to reach
// its external services. Secrets live in a YAML file; individual values can
// be overridden through the environment (a .env file is honored when
// present).
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RedditConfig is the script-app credential set for the board provider.
type RedditConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	Username     string `yaml:"username" validate:"required"`
	Password     string `yaml:"password" validate:"required"`
	UserAgent    string `yaml:"user_agent"`
}

// ImgurConfig is the credential set for the image host.
type ImgurConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
}

// Config is the full secrets file.
type Config struct {
	Reddit RedditConfig `yaml:"reddit"`
	Imgur  ImgurConfig  `yaml:"imgur"`
}

// DefaultUserAgent identifies the bot to the board provider when the
// secrets file doesn't set one.
const DefaultUserAgent = "errant (cross-posting bot)"

// envOverrides maps environment variable names onto config fields.
// Set values win over the YAML file.
func (c *Config) envOverrides() map[string]*string {
	return map[string]*string{
		"ERRANT_REDDIT_CLIENT_ID":     &c.Reddit.ClientID,
		"ERRANT_REDDIT_CLIENT_SECRET": &c.Reddit.ClientSecret,
		"ERRANT_REDDIT_USERNAME":      &c.Reddit.Username,
		"ERRANT_REDDIT_PASSWORD":      &c.Reddit.Password,
		"ERRANT_REDDIT_USER_AGENT":    &c.Reddit.UserAgent,
		"ERRANT_IMGUR_CLIENT_ID":      &c.Imgur.ClientID,
		"ERRANT_IMGUR_CLIENT_SECRET":  &c.Imgur.ClientSecret,
		"ERRANT_IMGUR_REFRESH_TOKEN":  &c.Imgur.RefreshToken,
	}
}

// Load reads the secrets file, applies environment overrides, and validates
// that every required credential is present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; it only exists in dev setups.
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read secrets file %q: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse secrets file %q: %w", path, err)
		}
	}

	for name, field := range cfg.envOverrides() {
		if v, ok := os.LookupEnv(name); ok {
			*field = v
		}
	}

	if cfg.Reddit.UserAgent == "" {
		cfg.Reddit.UserAgent = DefaultUserAgent
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("secrets file %q incomplete: %w", path, err)
	}

	return &cfg, nil
}
