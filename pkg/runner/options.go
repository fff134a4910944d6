// Package runner checks many teth source files concurrently.
package runner

import "github.com/yaklabco/tethls/pkg/config"

// Options controls a multi-file check.
type Options struct {
	// Paths are files or directories to check. Defaults to ".".
	Paths []string

	// WorkingDir resolves relative Paths and ignore patterns. Defaults to
	// the process working directory.
	WorkingDir string

	// Extensions are the file extensions (with leading dot) of teth
	// sources. Defaults to [".teth"].
	Extensions []string

	// ExcludeGlobs skip matching files and directories, relative to
	// WorkingDir.
	ExcludeGlobs []string

	// FollowSymlinks controls whether directory symlinks are traversed.
	FollowSymlinks bool

	// Jobs bounds concurrent analyses. 0 or negative means GOMAXPROCS.
	Jobs int
}

// OptionsFromConfig derives runner options from a resolved configuration.
func OptionsFromConfig(cfg *config.Config, paths []string) Options {
	opts := Options{Paths: paths}
	if cfg == nil {
		return opts
	}
	if cfg.Extension != "" {
		opts.Extensions = []string{cfg.Extension}
	}
	opts.ExcludeGlobs = cfg.Ignore
	opts.Jobs = cfg.Jobs
	return opts
}

func (o Options) effectiveExtensions() []string {
	if len(o.Extensions) == 0 {
		return []string{config.DefaultExtension}
	}
	return o.Extensions
}

func (o Options) effectivePaths() []string {
	if len(o.Paths) == 0 {
		return []string{"."}
	}
	return o.Paths
}
