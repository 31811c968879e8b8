package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"satchel/internal/assets"
	"satchel/internal/config"
	"satchel/internal/connection"
	"satchel/internal/filerepo"
	"satchel/internal/logging"
	"satchel/internal/store"
	"satchel/internal/transfer"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// environment bundles the long-lived pieces a command needs. Close
// releases the store and its data-directory lock.
type environment struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	assets *assets.Manager
	conn   *connection.ConfigManager
}

func (c *commandContext) openEnvironment() (*environment, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	repo := filerepo.NewOS(cfg.Paths.DataDir)
	var transferOpts []transfer.HTTPOption
	if cfg.Sync.DownloadTimeout > 0 {
		transferOpts = append(transferOpts, transfer.WithTimeout(time.Duration(cfg.Sync.DownloadTimeout)*time.Second))
	}
	transfers := transfer.NewHTTPManager(repo, logger, transferOpts...)
	assetManager := assets.NewManager(st, repo, transfers, logger)
	conn := connection.NewConfigManager(cfg, assetManager, logger)

	return &environment{
		cfg:    cfg,
		logger: logger,
		store:  st,
		assets: assetManager,
		conn:   conn,
	}, nil
}

func (e *environment) Close() error {
	return e.store.Close()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
