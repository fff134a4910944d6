package workspace

import (
	"github.com/charmbracelet/log"

	"github.com/yaklabco/tethls/pkg/analysis"
)

// Option configures a Workspace.
type Option func(*options)

type options struct {
	logger    *log.Logger
	useIndex  bool
	cacheOpts []analysis.Option
}

// WithLogger sets the logger shared by the parser, resolver, and cache.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDeclarationIndex makes the locator search the sorted declaration
// index of a tree instead of descending from its root.
func WithDeclarationIndex(enabled bool) Option {
	return func(o *options) {
		o.useIndex = enabled
	}
}

// WithCacheOptions passes options to the analysis cache.
func WithCacheOptions(opts ...analysis.Option) Option {
	return func(o *options) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}
