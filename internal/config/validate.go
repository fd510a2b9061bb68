package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validatePush(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorker() error {
	parsed, err := url.Parse(c.Worker.BaseURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("worker.base_url %q is not a valid URL", c.Worker.BaseURL)
	}
	ws, err := url.Parse(c.Worker.WebSocketURL)
	if err != nil || ws.Host == "" {
		return fmt.Errorf("worker.websocket_url %q is not a valid URL", c.Worker.WebSocketURL)
	}
	if ws.Scheme != "ws" && ws.Scheme != "wss" {
		return fmt.Errorf("worker.websocket_url scheme must be ws or wss, got %q", ws.Scheme)
	}
	return nil
}

func (c *Config) validatePush() error {
	if c.Push.MaxReconnectAttempts > 100 {
		return errors.New("push.max_reconnect_attempts must be 100 or fewer")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MinSimilarity < 0 || c.Subtitles.MinSimilarity > 100 {
		return errors.New("subtitles.min_similarity must be between 0 and 100")
	}
	for _, lang := range c.Subtitles.FallbackLanguages {
		if len(lang) < 2 || len(lang) > 3 {
			return fmt.Errorf("subtitles.fallback_languages entry %q is not a language code", lang)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
