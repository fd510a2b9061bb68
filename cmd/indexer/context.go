package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nodo1014/indexer/internal/config"
	"github.com/nodo1014/indexer/internal/logging"
	"github.com/nodo1014/indexer/internal/session"
	"github.com/nodo1014/indexer/internal/workerapi"
)

type commandContext struct {
	configFlag *string
	workerFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, workerFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		workerFlag: workerFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.workerFlag != nil && strings.TrimSpace(*c.workerFlag) != "" {
			cfg.Worker.BaseURL = strings.TrimSpace(*c.workerFlag)
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// ensureLogger builds the process logger lazily so commands that never log
// do not create the log directory.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) workerClient() (*workerapi.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return workerapi.New(cfg), nil
}

func (c *commandContext) withWorker(fn func(*workerapi.Client) error) error {
	client, err := c.workerClient()
	if err != nil {
		return err
	}
	return fn(client)
}

func (c *commandContext) withSession(fn func(*session.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := session.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// clientID resolves the stable push-channel identity, preferring the
// configured override.
func (c *commandContext) clientID(ctx context.Context, store *session.Store) (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return store.ClientID(ctx, cfg.Worker.ClientID)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
