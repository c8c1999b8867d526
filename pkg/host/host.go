package host

import (
	"reflect"

	hiera "github.com/goliatone/go-hiera-redis"
	"github.com/goliatone/go-hiera-redis/layering"
	"github.com/goliatone/go-hiera-redis/pkg/interpolate"
	"go.uber.org/zap"
)

// Host bundles Hierarchy, Parser and Merger into a hiera.Host.
type Host struct {
	*Hierarchy
	*Parser
	*Merger
}

var _ hiera.Host = (*Host)(nil)

// Option configures a Host.
type Option func(*hostConfig)

type hostConfig struct {
	interp *interpolate.Interpolator
	merge  layering.Options
	logger *zap.Logger
}

// WithInterpolator shares interp between the hierarchy and the parser.
func WithInterpolator(interp *interpolate.Interpolator) Option {
	return func(cfg *hostConfig) {
		cfg.interp = interp
	}
}

// WithMergeBehavior sets the merge used for hash lookups without explicit
// merge options.
func WithMergeBehavior(opts layering.Options) Option {
	return func(cfg *hostConfig) {
		cfg.merge = opts
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(cfg *hostConfig) {
		cfg.logger = logger
	}
}

func New(levels []string, opts ...Option) *Host {
	cfg := hostConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.interp == nil {
		cfg.interp = interpolate.New(interpolate.WithLogger(cfg.logger))
	}
	return &Host{
		Hierarchy: NewHierarchy(levels, cfg.interp, cfg.logger),
		Parser:    NewParser(cfg.interp),
		Merger:    NewMerger(cfg.merge),
	}
}

// ResolveAnswer applies the post-processing a host performs on array answers:
// nested arrays are flattened, nils dropped and duplicates removed. Other
// answers are returned unchanged.
func ResolveAnswer(value any, resolution hiera.Resolution) any {
	if hiera.NormalizeResolution(resolution) != hiera.ResolutionArray {
		return value
	}
	list, ok := value.([]any)
	if !ok {
		return value
	}
	out := make([]any, 0, len(list))
	for _, item := range flatten(list) {
		if item == nil || contains(out, item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func flatten(list []any) []any {
	var out []any
	for _, item := range list {
		switch typed := item.(type) {
		case []any:
			out = append(out, flatten(typed)...)
		case []string:
			for _, s := range typed {
				out = append(out, s)
			}
		default:
			out = append(out, item)
		}
	}
	return out
}

func contains(list []any, value any) bool {
	for _, item := range list {
		if reflect.DeepEqual(item, value) {
			return true
		}
	}
	return false
}
