package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Discover finds teth sources matching opts. It returns a sorted,
// de-duplicated list of absolute file paths. Explicitly named files are
// included even if their extension does not match.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	d := &discoverer{opts: opts, workDir: workDir, extensions: opts.effectiveExtensions()}
	var files []string

	for _, input := range opts.effectivePaths() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}

		path := input
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		path = filepath.Clean(path)

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", input, err)
		}

		if !info.IsDir() {
			if !d.excluded(path) {
				files = append(files, path)
			}
			continue
		}

		found, err := d.walk(ctx, path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		return os.Getwd()
	}
	return filepath.Abs(workDir)
}

type discoverer struct {
	opts       Options
	workDir    string
	extensions []string
}

func (d *discoverer) walk(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		hidden := path != root && strings.HasPrefix(entry.Name(), ".")

		if entry.IsDir() {
			if hidden || (path != root && d.excluded(path)) {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				return nil //nolint:nilerr // Broken symlinks are skipped.
			}
			info, err := os.Stat(target)
			if err != nil {
				return nil //nolint:nilerr // Inaccessible targets are skipped.
			}
			if info.IsDir() {
				if !d.opts.FollowSymlinks {
					return nil
				}
				sub, err := d.walk(ctx, target)
				files = append(files, sub...)
				return err
			}
		}

		if !hidden && d.matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}
	return files, nil
}

func (d *discoverer) matches(path string) bool {
	ext := filepath.Ext(path)
	return slices.ContainsFunc(d.extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	}) && !d.excluded(path)
}

func (d *discoverer) excluded(path string) bool {
	rel, err := filepath.Rel(d.workDir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range d.opts.ExcludeGlobs {
		if matchGlob(rel, filepath.ToSlash(pattern)) {
			return true
		}
	}
	return false
}

// matchGlob matches a slash-separated relative path against a pattern.
// Besides filepath.Match syntax it supports "dir/**" (everything below
// dir), "**/name" (name at any depth), and plain patterns that match the
// base name.
func matchGlob(path, pattern string) bool {
	switch {
	case pattern == "**":
		return true
	case strings.HasSuffix(pattern, "/**"):
		prefix := strings.TrimSuffix(pattern, "/**")
		if !strings.Contains(prefix, "**") {
			return path == prefix || strings.HasPrefix(path, prefix+"/") || matchGlob(path, prefix)
		}
	case strings.HasPrefix(pattern, "**/"):
		suffix := strings.TrimPrefix(pattern, "**/")
		parts := strings.Split(path, "/")
		for i := range parts {
			if matchGlob(strings.Join(parts[i:], "/"), suffix) {
				return true
			}
		}
		return false
	}

	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	ok, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && ok
}
