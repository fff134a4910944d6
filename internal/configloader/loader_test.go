package configloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/tethls/pkg/config"
)

func isolated(dir string) LoadOptions {
	return LoadOptions{
		WorkingDir:         dir,
		IgnoreSystemConfig: true,
		IgnoreUserConfig:   true,
		IgnoreEnv:          true,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	result, err := Load(context.Background(), isolated(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, config.NewConfig(), result.Config)
	assert.Empty(t, result.LoadedFrom)
	assert.Empty(t, result.Paths.Project)
}

func TestLoad_ProjectConfig(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	configPath := filepath.Join(root, ".tethls.yml")
	writeFile(t, configPath, `
jobs: 3
ignore:
  - "build/**"
cache:
  max_entries: 64
locator:
  use_index: true
watch:
  debounce: 250ms
`)

	// Discovery walks up from a nested directory.
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	result, err := Load(context.Background(), isolated(nested))
	require.NoError(t, err)

	assert.Equal(t, []string{configPath}, result.LoadedFrom)
	cfg := result.Config
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, []string{"build/**"}, cfg.Ignore)
	assert.Equal(t, 64, cfg.Cache.MaxEntries)
	assert.True(t, cfg.Locator.UseIndex)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, config.DefaultExtension, cfg.Extension, "unset keys keep their defaults")
}

func TestFindProjectConfig_StopsAtVCSRoot(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()
	writeFile(t, filepath.Join(outer, ".tethls.yml"), "jobs: 1\n")
	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	path, err := FindProjectConfig(context.Background(), repo)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestFindProjectConfig_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindProjectConfig(ctx, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad_Precedence(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	writeFile(t, filepath.Join(root, ".tethls.yml"), "jobs: 2\nformat: json\nlog_level: warn\n")
	explicit := filepath.Join(root, "ci.yml")
	writeFile(t, explicit, "jobs: 4\n")

	t.Setenv("TETHLS_JOBS", "6")
	t.Setenv("TETHLS_CACHE_METRICS", "true")

	opts := LoadOptions{
		WorkingDir:         root,
		ExplicitPath:       explicit,
		IgnoreSystemConfig: true,
		IgnoreUserConfig:   true,
		CLIConfig:          &config.Config{LogLevel: "debug"},
	}
	result, err := Load(context.Background(), opts)
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, 6, cfg.Jobs, "environment beats files")
	assert.Equal(t, config.FormatJSON, cfg.Format, "project config beats defaults")
	assert.Equal(t, "debug", cfg.LogLevel, "flags beat everything")
	assert.True(t, cfg.Cache.Metrics)
	assert.Len(t, result.LoadedFrom, 2)
}

func TestLoad_UserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	writeFile(t, filepath.Join(home, "tethls", "config.yaml"), "extension: .th\n")

	opts := isolated(t.TempDir())
	opts.IgnoreUserConfig = false
	result, err := Load(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, ".th", result.Config.Extension)
	assert.Equal(t, filepath.Join(home, "tethls", "config.yaml"), result.Paths.User)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{name: "invalid format", content: "format: sarif\n", field: "format"},
		{name: "negative jobs", content: "jobs: -1\n", field: "jobs"},
		{name: "bad glob", content: "ignore: [\"[\"]\n", field: "ignore[0]"},
		{name: "extension without dot", content: "extension: teth\n", field: "extension"},
		{name: "negative cache bound", content: "cache:\n  max_entries: -5\n", field: "cache.max_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, ".tethls.yml")
			writeFile(t, path, tt.content)

			_, err := Load(context.Background(), isolated(dir))
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, path, verr.FilePath)
		})
	}
}

func TestLoad_UnknownKeyFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".tethls.yml"), "flavor: gfm\n")

	_, err := Load(context.Background(), isolated(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load project config")
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"TETHLS_JOBS":           "many",
		"TETHLS_CACHE_METRICS":  "sometimes",
		"TETHLS_WATCH_DEBOUNCE": "soon",
	}

	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			err := LoadFromEnv(config.NewConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoadFromEnv_Ignore(t *testing.T) {
	t.Setenv("TETHLS_IGNORE", " vendor/** , ,build/**")

	cfg := config.NewConfig()
	require.NoError(t, LoadFromEnv(cfg))
	assert.Equal(t, []string{"vendor/**", "build/**"}, cfg.Ignore)
}

func TestValidate_Warnings(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Watch.Debounce = time.Millisecond

	result := Validate(cfg)
	assert.True(t, result.Valid())
	assert.True(t, result.HasWarnings())
	assert.Len(t, result.AllMessages(), 1)
}

func TestMergeAll(t *testing.T) {
	t.Parallel()

	assert.Nil(t, MergeAll())

	merged := MergeAll(
		config.NewConfig(),
		&config.Config{Jobs: 2, Ignore: []string{"a"}},
		&config.Config{Ignore: []string{"b"}, Locator: config.LocatorConfig{UseIndex: true}},
	)
	assert.Equal(t, 2, merged.Jobs)
	assert.Equal(t, []string{"b"}, merged.Ignore)
	assert.True(t, merged.Locator.UseIndex)
	assert.Equal(t, config.FormatText, merged.Format)
}

func TestListEnvVars(t *testing.T) {
	t.Parallel()

	vars := ListEnvVars()
	assert.Contains(t, vars, "TETHLS_JOBS")
	assert.Contains(t, vars, "TETHLS_WATCH_DEBOUNCE")
}
