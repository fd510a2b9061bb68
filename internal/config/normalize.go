package config

import (
	"fmt"
	"net/url"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeWorker(); err != nil {
		return err
	}
	c.normalizePush()
	c.normalizeSubtitles()
	c.normalizeUI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MediaRoot) == "" {
		c.Paths.MediaRoot = defaultMediaRoot
	}
	if c.Paths.MediaRoot, err = expandPath(c.Paths.MediaRoot); err != nil {
		return fmt.Errorf("paths.media_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorker() error {
	c.Worker.BaseURL = strings.TrimRight(strings.TrimSpace(c.Worker.BaseURL), "/")
	if c.Worker.BaseURL == "" {
		c.Worker.BaseURL = defaultWorkerBaseURL
	}
	c.Worker.WebSocketURL = strings.TrimRight(strings.TrimSpace(c.Worker.WebSocketURL), "/")
	if c.Worker.WebSocketURL == "" {
		derived, err := deriveWebSocketURL(c.Worker.BaseURL)
		if err != nil {
			return err
		}
		c.Worker.WebSocketURL = derived
	}
	c.Worker.ClientID = strings.TrimSpace(c.Worker.ClientID)
	c.Worker.ModelSize = strings.TrimSpace(c.Worker.ModelSize)
	if c.Worker.ModelSize == "" {
		c.Worker.ModelSize = defaultWorkerModelSize
	}
	c.Worker.Language = strings.ToLower(strings.TrimSpace(c.Worker.Language))
	if c.Worker.Language == "" {
		c.Worker.Language = defaultWorkerLanguage
	}
	if c.Worker.RequestTimeout <= 0 {
		c.Worker.RequestTimeout = defaultWorkerRequestTimeout
	}
	return nil
}

// deriveWebSocketURL maps the worker's HTTP base URL onto its push endpoint.
func deriveWebSocketURL(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("worker.base_url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("worker.base_url: unsupported scheme %q", parsed.Scheme)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

func (c *Config) normalizePush() {
	if c.Push.MaxReconnectAttempts <= 0 {
		c.Push.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if c.Push.ReconnectInterval <= 0 {
		c.Push.ReconnectInterval = defaultReconnectInterval
	}
	if c.Push.HandshakeTimeout <= 0 {
		c.Push.HandshakeTimeout = defaultHandshakeTimeout
	}
}

func (c *Config) normalizeSubtitles() {
	if len(c.Subtitles.FallbackLanguages) == 0 {
		c.Subtitles.FallbackLanguages = defaultFallbackLanguages()
	}
	cleaned := make([]string, 0, len(c.Subtitles.FallbackLanguages))
	for _, lang := range c.Subtitles.FallbackLanguages {
		trimmed := strings.ToLower(strings.TrimSpace(lang))
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	c.Subtitles.FallbackLanguages = cleaned
	if c.Subtitles.MinSimilarity <= 0 {
		c.Subtitles.MinSimilarity = defaultMinSimilarity
	}
	if c.Subtitles.SyncOffsetThresholdMs <= 0 {
		c.Subtitles.SyncOffsetThresholdMs = defaultSyncOffsetThresholdMs
	}
}

func (c *Config) normalizeUI() {
	c.UI.DefaultPanel = strings.ToLower(strings.TrimSpace(c.UI.DefaultPanel))
	if c.UI.DefaultPanel == "" {
		c.UI.DefaultPanel = defaultPanel
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
