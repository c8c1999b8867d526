// Package config loads lookup configuration files for the CLI and examples.
//
// YAML files are read with gopkg.in/yaml.v3. JSON files may carry comments
// and trailing commas; they are stripped with github.com/tidwall/jsonc and
// then decoded by the same YAML decoder. Symbol-style keys and values from
// older hiera.yaml files (":backends:", ":json") are accepted.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	hiera "github.com/goliatone/go-hiera-redis"
	"github.com/goliatone/go-hiera-redis/layering"
	"github.com/goliatone/go-hiera-redis/pkg/host"
	"github.com/goliatone/go-hiera-redis/pkg/interpolate"
	"github.com/tidwall/jsonc"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// BackendName is the backend entry this module serves.
const BackendName = "redis"

// ErrBackendNotListed indicates a file whose backends list omits redis.
var ErrBackendNotListed = errors.New("config: redis backend not listed in backends")

// File is the on-disk configuration.
type File struct {
	Backends         []string         `yaml:"backends,omitempty"`
	Hierarchy        []string         `yaml:"hierarchy,omitempty"`
	MergeBehavior    string           `yaml:"merge_behavior,omitempty"`
	DeepMergeOptions DeepMergeOptions `yaml:"deep_merge_options,omitempty"`
	Interpolation    string           `yaml:"interpolation,omitempty"`
	Redis            hiera.Config     `yaml:"redis,omitempty"`
}

// DeepMergeOptions tunes deep and deeper merges.
type DeepMergeOptions struct {
	KnockoutPrefix   string `yaml:"knockout_prefix,omitempty"`
	SortMergedArrays bool   `yaml:"sort_merged_arrays,omitempty"`
}

// Default returns the configuration used without a file: a single "common"
// level, native merges and expr interpolation.
func Default() File {
	return File{
		Backends:      []string{BackendName},
		Hierarchy:     []string{"common"},
		MergeBehavior: string(layering.Native),
		Interpolation: interpolate.EngineExpr,
		Redis:         hiera.DefaultConfig(),
	}
}

// Load reads path, choosing the decoder from its extension.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	file, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return File{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return file, nil
}

// Parse decodes data. ext selects JSONC handling for ".json" and ".jsonc";
// anything else is read as YAML.
func Parse(data []byte, ext string) (File, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return File{}, fmt.Errorf("parsing: %w", err)
	}
	normalized, err := yaml.Marshal(normalizeSymbols(raw))
	if err != nil {
		return File{}, fmt.Errorf("normalizing: %w", err)
	}

	file := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(normalized))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decoding: %w", err)
	}
	file.Redis = file.Redis.WithDefaults()
	if err := file.Validate(); err != nil {
		return File{}, err
	}
	return file, nil
}

// Validate checks the file against the values the backend and host accept.
func (f File) Validate() error {
	if len(f.Backends) > 0 && !slices.Contains(f.Backends, BackendName) {
		return ErrBackendNotListed
	}
	if _, err := hiera.ParseMergeBehavior(f.MergeBehavior); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(f.Interpolation) {
	case "", interpolate.EngineExpr, interpolate.EngineCEL, interpolate.EngineJS:
	default:
		return fmt.Errorf("config: unknown interpolation engine %q", f.Interpolation)
	}
	if err := f.Redis.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// MergeOptions returns the default hash merge for lookups without explicit
// merge options.
func (f File) MergeOptions() layering.Options {
	behavior, _ := hiera.ParseMergeBehavior(f.MergeBehavior)
	return layering.Options{
		Behavior:         layering.Behavior(behavior),
		KnockoutPrefix:   f.DeepMergeOptions.KnockoutPrefix,
		SortMergedArrays: f.DeepMergeOptions.SortMergedArrays,
	}
}

// Host builds the reference host described by the file.
func (f File) Host(logger *zap.Logger) (*host.Host, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	evaluator, err := interpolate.NewEngine(f.Interpolation, interpolate.NewMapCache(), interpolate.DefaultFunctions())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	interp := interpolate.New(interpolate.WithEvaluator(evaluator), interpolate.WithLogger(logger))
	return host.New(f.Hierarchy,
		host.WithInterpolator(interp),
		host.WithMergeBehavior(f.MergeOptions()),
		host.WithLogger(logger),
	), nil
}

var symbolPattern = regexp.MustCompile(`^:[A-Za-z_][A-Za-z0-9_]*$`)

// normalizeSymbols strips the leading colon from symbol-style keys and
// values.
func normalizeSymbols(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[strings.TrimPrefix(key, ":")] = normalizeSymbols(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalizeSymbols(item)
		}
		return out
	case string:
		if symbolPattern.MatchString(typed) {
			return typed[1:]
		}
		return typed
	default:
		return value
	}
}
