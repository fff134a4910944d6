package configloader

import (
	"slices"

	"github.com/yaklabco/tethls/pkg/config"
)

// merge combines two configurations, with override taking precedence over
// base. Zero values in override leave base unchanged, so a layer can turn a
// boolean on but not off. Slices replace base entirely when non-nil.
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := *base

	setIf(&result.LogLevel, override.LogLevel)
	setIf(&result.Extension, override.Extension)
	setIf(&result.Format, override.Format)
	setIf(&result.Jobs, override.Jobs)
	setIf(&result.Color, override.Color)
	setIf(&result.Stats, override.Stats)

	setIf(&result.Cache.MaxEntries, override.Cache.MaxEntries)
	setIf(&result.Cache.Metrics, override.Cache.Metrics)
	setIf(&result.Locator.UseIndex, override.Locator.UseIndex)
	setIf(&result.Watch.Debounce, override.Watch.Debounce)

	if override.Ignore != nil {
		result.Ignore = slices.Clone(override.Ignore)
	}

	return &result
}

func setIf[T comparable](dst *T, value T) {
	var zero T
	if value != zero {
		*dst = value
	}
}

// MergeAll merges multiple configurations in order, with later configs
// taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for _, cfg := range configs[1:] {
		result = merge(result, cfg)
	}
	return result
}
