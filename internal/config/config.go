// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sehatlabs/sehat/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	DBPath          string
	SessionTimeout  time.Duration
	SweepInterval   time.Duration
	DefaultLanguage domain.Language
	WhatsApp        WhatsAppConfig
	OpenAI          OpenAIConfig
}

// WhatsAppConfig holds the outbound messaging provider settings.
type WhatsAppConfig struct {
	APIURL   string
	APIToken string
	Timeout  time.Duration
}

// OpenAIConfig holds the content generator settings.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./data/sehat.db"),
		SessionTimeout:  time.Duration(getEnvInt("SESSION_TIMEOUT_MINUTES", 30)) * time.Minute,
		SweepInterval:   time.Duration(getEnvInt("SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
		DefaultLanguage: domain.Language(getEnv("DEFAULT_LANGUAGE", "en")),
		WhatsApp: WhatsAppConfig{
			APIURL:   getEnv("WHATSAPP_API_URL", ""),
			APIToken: getEnv("WHATSAPP_API_TOKEN", ""),
			Timeout:  time.Duration(getEnvInt("WHATSAPP_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout: time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 20)) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_MINUTES must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL_MINUTES must be > 0")
	}
	if !c.DefaultLanguage.Valid() {
		return fmt.Errorf("DEFAULT_LANGUAGE must be one of: en, hi")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
