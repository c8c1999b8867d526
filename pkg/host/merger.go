package host

import (
	hiera "github.com/goliatone/go-hiera-redis"
	"github.com/goliatone/go-hiera-redis/layering"
)

// Merger folds hash answers together. Answers already accumulated come from
// higher priority sources.
type Merger struct {
	defaults layering.Options
}

// NewMerger uses defaults unless a lookup carries its own merge options.
func NewMerger(defaults layering.Options) *Merger {
	if defaults.Behavior == "" {
		defaults.Behavior = layering.Native
	}
	return &Merger{defaults: defaults}
}

func (m *Merger) MergeAnswer(next, accumulated map[string]any, resolution hiera.Resolution) (map[string]any, error) {
	return layering.Merge(accumulated, next, m.options(resolution)), nil
}

func (m *Merger) options(resolution hiera.Resolution) layering.Options {
	if resolution.Merge == nil {
		return m.defaults
	}
	opts := layering.Options{
		Behavior:         layering.Behavior(resolution.Merge.Behavior),
		KnockoutPrefix:   resolution.Merge.KnockoutPrefix,
		SortMergedArrays: resolution.Merge.SortMergedArrays,
	}
	if opts.Behavior == "" {
		opts.Behavior = m.defaults.Behavior
	}
	return opts
}
