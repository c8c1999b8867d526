package host

import (
	"iter"

	hiera "github.com/goliatone/go-hiera-redis"
	"github.com/goliatone/go-hiera-redis/pkg/interpolate"
	"go.uber.org/zap"
)

// Hierarchy yields datasources by interpolating level templates against the
// lookup scope.
type Hierarchy struct {
	levels []string
	interp *interpolate.Interpolator
	logger *zap.Logger
}

func NewHierarchy(levels []string, interp *interpolate.Interpolator, logger *zap.Logger) *Hierarchy {
	if interp == nil {
		interp = interpolate.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hierarchy{
		levels: append([]string{}, levels...),
		interp: interp,
		logger: logger,
	}
}

// Levels returns the configured level templates.
func (h *Hierarchy) Levels() []string {
	return append([]string{}, h.levels...)
}

// Datasources yields orderOverride entries before the configured levels.
// Levels that interpolate to "" or fail to interpolate are skipped, and each
// source is yielded once.
func (h *Hierarchy) Datasources(scope hiera.Scope, orderOverride []string) iter.Seq[hiera.Source] {
	return func(yield func(hiera.Source) bool) {
		ctx := interpolate.RuleContext{Scope: scope}
		seen := map[string]struct{}{}
		for _, level := range append(append([]string{}, orderOverride...), h.levels...) {
			name, err := h.interp.String(level, ctx)
			if err != nil {
				h.logger.Warn("skipping hierarchy level", zap.String("level", level), zap.Error(err))
				continue
			}
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			if !yield(hiera.ParseSource(name)) {
				return
			}
		}
	}
}
