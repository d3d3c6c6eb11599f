package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelpipe/internal/config"
	"reelpipe/internal/logging"
	"reelpipe/internal/registry"
	"reelpipe/internal/schema"
)

type commandContext struct {
	configFlag    *string
	artifactsFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, artifactsFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		artifactsFlag: artifactsFlag,
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
		if c.artifactsFlag != nil && strings.TrimSpace(*c.artifactsFlag) != "" {
			cfg.Paths.ArtifactsDir = strings.TrimSpace(*c.artifactsFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		writer := io.Writer(os.Stderr)
		if cfg.Paths.LogDir != "" {
			logPath := filepath.Join(cfg.Paths.LogDir, "reelpipe.log")
			if err := logging.EnsureLogDir(logPath); err != nil {
				c.loggerErr = fmt.Errorf("create log directory: %w", err)
				return
			}
			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				c.loggerErr = fmt.Errorf("open log file: %w", err)
				return
			}
			// Left open for the process lifetime; the CLI is short-lived.
			writer = io.MultiWriter(os.Stderr, file)
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Writer: writer,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openStore builds the artifact registry with its schema validator.
func (c *commandContext) openStore() (*registry.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	validator, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return registry.NewStore(cfg.Paths.ArtifactsDir, validator, logger), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
