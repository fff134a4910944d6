package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/yaklabco/tethls/internal/configloader"
	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/analysis"
	"github.com/yaklabco/tethls/pkg/config"
	"github.com/yaklabco/tethls/pkg/module"
	"github.com/yaklabco/tethls/pkg/source"
	"github.com/yaklabco/tethls/pkg/workspace"
)

// session is the resolved environment of one command invocation.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	workDir string
	logger  *log.Logger

	// registry collects cache metrics when they are enabled.
	registry *prometheus.Registry
}

// newSession loads the configuration with cli layered on top and applies
// its log level. cli may be nil.
func newSession(cmd *cobra.Command, flags *globalFlags, cli *config.Config) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	if cli == nil {
		cli = &config.Config{}
	}
	if cmd.Flags().Changed("color") {
		cli.Color = flags.color
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: flags.configPath,
		CLIConfig:    cli,
	})
	if err != nil {
		return nil, errors.Join(errors.New("failed to load configuration"), err)
	}

	cfg := loadResult.Config
	if !flags.debug {
		logging.SetLevel(cfg.LogLevel)
	}

	logger := logging.Default()
	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}
	if len(loadResult.LoadedFrom) > 0 {
		logger.Debug("loaded configuration", logging.FieldConfig, loadResult.LoadedFrom)
	}
	logger.Debug("configuration resolved",
		logging.FieldJobs, cfg.Jobs,
		"format", cfg.Format,
		"use_index", cfg.Locator.UseIndex,
	)

	s := &session{
		ctx:     logging.WithLogger(ctx, logger),
		cfg:     cfg,
		workDir: workDir,
		logger:  logger,
	}
	if cfg.Cache.Metrics {
		s.registry = prometheus.NewRegistry()
	}
	return s, nil
}

// workspace creates a workspace over the host file system configured by
// the session.
func (s *session) workspace() *workspace.Workspace {
	cacheOpts := []analysis.Option{analysis.WithMaxEntries(s.cfg.Cache.MaxEntries)}
	if s.registry != nil {
		cacheOpts = append(cacheOpts, analysis.WithRegisterer(s.registry))
	}

	return workspace.New(module.OSFiles{},
		workspace.WithLogger(s.logger),
		workspace.WithDeclarationIndex(s.cfg.Locator.UseIndex),
		workspace.WithCacheOptions(cacheOpts...),
	)
}

// unitID resolves a command-line path to the identity of its unit.
func (s *session) unitID(path string) (source.ID, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.workDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return module.Normalize(path), nil
}

// loadUnit reads the unit at a command-line path through ws.
func (s *session) loadUnit(ws *workspace.Workspace, path string) (*source.Unit, error) {
	id, err := s.unitID(path)
	if err != nil {
		return nil, err
	}
	unit, ok, err := ws.Unit(s.ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, errUnreadable)
	}
	return unit, nil
}

// displayPath makes an absolute path relative to the working directory
// when it lies below it.
func (s *session) displayPath(path string) string {
	rel, err := filepath.Rel(s.workDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

var errUnreadable = errors.New("file cannot be read")
