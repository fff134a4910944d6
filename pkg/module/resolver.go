// Package module resolves teth import paths to source units.
package module

import (
	"context"
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/tethls/internal/logging"
	"github.com/yaklabco/tethls/pkg/source"
)

// FileSource reads the text of units by identity.
type FileSource interface {
	// Read returns the text of the unit. Missing and unreadable units are
	// reported as errors; the resolver turns them into misses.
	Read(ctx context.Context, id source.ID) (string, error)
}

// Resolver maps import paths to unit identities and loads units.
// It satisfies analyzer.ModuleLoader and is safe for concurrent use.
type Resolver struct {
	files  FileSource
	logger *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for load failures.
func WithLogger(logger *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver that reads through files.
func NewResolver(files FileSource, opts ...Option) *Resolver {
	r := &Resolver{files: files}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ToUniqueID resolves relPath against the directory of the importing unit.
// The result is absolute, slash-separated, cleaned of "." and "..", and
// carries the teth extension.
func (r *Resolver) ToUniqueID(importing source.ID, relPath string) source.ID {
	return ToUniqueID(importing, relPath)
}

// Load reads the unit with the given identity. Any failure is a miss.
func (r *Resolver) Load(ctx context.Context, id source.ID) (*source.Unit, bool) {
	text, err := r.files.Read(ctx, id)
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("cannot load module", logging.FieldModule, id, logging.FieldError, err)
		}
		return nil, false
	}
	return source.NewUnit(id, text), true
}

// ToUniqueID resolves relPath against the directory of importing. The
// extension is always appended, so a path that already names it does not
// resolve.
func ToUniqueID(importing source.ID, relPath string) source.ID {
	var joined string
	if path.IsAbs(relPath) {
		joined = relPath
	} else {
		joined = path.Join(importing.Dir(), relPath)
	}
	if !path.IsAbs(joined) {
		joined = "/" + joined
	}

	return source.ID(path.Clean(joined) + source.Extension)
}

// Normalize turns a host path into a unit identity.
func Normalize(hostPath string) source.ID {
	p := strings.ReplaceAll(hostPath, "\\", "/")
	if vol := volumeName(p); vol != "" {
		p = "/" + p
	}
	if !path.IsAbs(p) {
		p = "/" + p
	}
	return source.ID(path.Clean(p))
}

// volumeName returns a Windows drive prefix such as "C:", or "".
func volumeName(p string) string {
	if len(p) >= 2 && p[1] == ':' && ((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z')) {
		return p[:2]
	}
	return ""
}
