package module

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yaklabco/tethls/pkg/fsutil"
	"github.com/yaklabco/tethls/pkg/source"
)

// OSFiles reads units from the local file system.
type OSFiles struct{}

// Read implements FileSource.
func (OSFiles) Read(ctx context.Context, id source.ID) (string, error) {
	content, _, err := fsutil.ReadFile(ctx, HostPath(id))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// HostPath converts a unit identity back to a host path.
func HostPath(id source.ID) string {
	p := string(id)
	if len(p) >= 3 && p[0] == '/' && volumeName(p[1:]) != "" {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// Overlay layers the text of open editor buffers over another source.
// It is safe for concurrent use.
type Overlay struct {
	base FileSource

	mu    sync.RWMutex
	units map[source.ID]string
}

// NewOverlay creates an overlay over base. A nil base holds only what is
// set on the overlay.
func NewOverlay(base FileSource) *Overlay {
	return &Overlay{base: base, units: make(map[source.ID]string)}
}

// Set replaces the text of id.
func (o *Overlay) Set(id source.ID, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.units[id] = text
}

// Remove drops id from the overlay so reads fall through to the base.
// It reports whether id was present.
func (o *Overlay) Remove(id source.ID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.units[id]
	delete(o.units, id)
	return ok
}

// Get returns the overlay text of id without consulting the base.
func (o *Overlay) Get(id source.ID) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	text, ok := o.units[id]
	return text, ok
}

// IDs returns the identities held by the overlay, sorted.
func (o *Overlay) IDs() []source.ID {
	o.mu.RLock()
	ids := make([]source.ID, 0, len(o.units))
	for id := range o.units {
		ids = append(ids, id)
	}
	o.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Read implements FileSource.
func (o *Overlay) Read(ctx context.Context, id source.ID) (string, error) {
	if text, ok := o.Get(id); ok {
		return text, nil
	}
	if o.base == nil {
		return "", fmt.Errorf("%w: %s", fsutil.ErrNotFound, id)
	}
	return o.base.Read(ctx, id)
}

// IsSourcePath reports whether a host path names a teth source file.
func IsSourcePath(hostPath string) bool {
	return strings.EqualFold(filepath.Ext(hostPath), source.Extension)
}
