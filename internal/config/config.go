package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

type Config struct {
	BaseURL         string
	ChatSocketURL   string
	NotifySocketURL string
	StateFile       string
	TypingTimeout   time.Duration
}

func Load() (*Config, error) {
	typingTimeout, err := time.ParseDuration(getEnv("NEXUS_TYPING_TIMEOUT", "1s"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:         getEnv("NEXUS_BASE_URL", "http://localhost:8000/api/"),
		ChatSocketURL:   getEnv("NEXUS_CHAT_SOCKET_URL", "ws://localhost:8000/ws/chat/global/"),
		NotifySocketURL: getEnv("NEXUS_NOTIFY_SOCKET_URL", "ws://localhost:8000/ws/notifications/"),
		StateFile:       getEnv("NEXUS_STATE_FILE", "nexus.db"),
		TypingTimeout:   typingTimeout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("NEXUS_BASE_URL is not a valid URL: %w", err)
	}

	for name, raw := range map[string]string{
		"NEXUS_CHAT_SOCKET_URL":   c.ChatSocketURL,
		"NEXUS_NOTIFY_SOCKET_URL": c.NotifySocketURL,
	} {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("%s must use a ws or wss scheme", name)
		}
	}

	if c.StateFile == "" {
		return fmt.Errorf("NEXUS_STATE_FILE must not be empty")
	}

	if c.TypingTimeout <= 0 {
		return fmt.Errorf("NEXUS_TYPING_TIMEOUT must be greater than 0")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
