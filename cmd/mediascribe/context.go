package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediascribe/internal/config"
	"mediascribe/internal/logging"
	"mediascribe/internal/workspace"
)

// commandContext carries lazily initialized shared state between commands.
type commandContext struct {
	configFlag *string

	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	registry   *workspace.Registry
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolvedPath, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}

	c.cfg = cfg
	c.configPath = resolvedPath
	c.logger = logger
	c.registry = workspace.NewRegistry(c.storeOptions())
	return cfg, nil
}

func (c *commandContext) storeOptions() workspace.Options {
	return workspace.Options{
		Logger:          c.logger,
		LockTimeout:     time.Duration(c.cfg.Store.LockTimeoutSeconds) * time.Second,
		FallbackLocking: c.cfg.Store.FallbackLocking,
		Processing: workspace.ProcessingConfig{
			Provider:     c.cfg.Processing.Provider,
			Model:        c.cfg.Processing.Model,
			PromptStyle:  c.cfg.Processing.PromptStyle,
			CustomPrompt: c.cfg.Processing.CustomPrompt,
		},
	}
}

// resolveWorkspacePath turns a workspace argument into a document path. A
// bare name (no path separator) resolves inside the configured workspace
// directory; anything else is used as given.
func (c *commandContext) resolveWorkspacePath(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("workspace name or path is required")
	}
	if !strings.ContainsRune(arg, os.PathSeparator) && !filepath.IsAbs(arg) {
		if err := c.cfg.EnsureDirectories(); err != nil {
			return "", err
		}
		arg = filepath.Join(c.cfg.Paths.WorkspaceDir, arg)
	}
	return workspace.NormalizePath(arg)
}

// openStore opens (or creates) the store for a workspace argument.
func (c *commandContext) openStore(arg string) (*workspace.Store, error) {
	path, err := c.resolveWorkspacePath(arg)
	if err != nil {
		return nil, err
	}
	return c.registry.Get(path)
}

// openExistingStore opens the store only when the document already exists,
// so read-only commands do not silently create empty workspaces.
func (c *commandContext) openExistingStore(arg string) (*workspace.Store, error) {
	path, err := c.resolveWorkspacePath(arg)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workspace %s does not exist (create it with 'mediascribe init')", path)
		}
		return nil, err
	}
	return c.registry.Get(path)
}
