package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// ConfigPaths represents discovered configuration file paths. Missing
// files are empty strings.
type ConfigPaths struct {
	// System is the system-wide config, e.g. /etc/tethls/config.yaml.
	System string

	// User is the per-user config, e.g. ~/.config/tethls/config.yaml.
	User string

	// Project is the nearest .tethls.yml above the working directory.
	Project string

	// Explicit is the --config path.
	Explicit string
}

// ProjectConfigName is the preferred project config file name.
const ProjectConfigName = ".tethls.yml"

// projectConfigNames are searched in order in each directory.
//
//nolint:gochecknoglobals // Read-only lookup table.
var projectConfigNames = []string{ProjectConfigName, ".tethls.yaml", "tethls.yml", "tethls.yaml"}

// vcsRootMarkers end the upward search for a project config.
//
//nolint:gochecknoglobals // Read-only lookup table.
var vcsRootMarkers = []string{".git", ".hg", ".svn"}

// DiscoverPaths finds the system, user, and project configuration files.
func DiscoverPaths(ctx context.Context, workDir string) (*ConfigPaths, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	project, err := FindProjectConfig(ctx, workDir)
	if err != nil {
		return nil, err
	}

	return &ConfigPaths{
		System:  firstConfigIn(systemConfigDir()),
		User:    firstConfigIn(userConfigDir()),
		Project: project,
	}, nil
}

func systemConfigDir() string {
	if runtime.GOOS == "windows" {
		programData := os.Getenv("ProgramData")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, "tethls")
	}
	return "/etc/tethls"
}

func userConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "tethls")
}

func firstConfigIn(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.yml"} {
		if path := filepath.Join(dir, name); isFile(path) {
			return path
		}
	}
	return ""
}

// FindProjectConfig searches upward from startDir for a project config
// file. The search stops at a VCS root, the home directory, or the file
// system root. An empty result means no config was found.
func FindProjectConfig(ctx context.Context, startDir string) (string, error) {
	if startDir == "" {
		var err error
		if startDir, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	home, _ := os.UserHomeDir()

	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("context cancelled: %w", err)
		}

		for _, name := range projectConfigNames {
			if path := filepath.Join(dir, name); isFile(path) {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if isVCSRoot(dir) || (home != "" && dir == home) || parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func isVCSRoot(dir string) bool {
	for _, marker := range vcsRootMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
