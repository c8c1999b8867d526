package hiera

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DeserializeMode selects how string payloads are decoded.
type DeserializeMode string

const (
	DeserializeNone DeserializeMode = "none"
	DeserializeJSON DeserializeMode = "json"
	DeserializeYAML DeserializeMode = "yaml"
)

// Deserializer turns string payloads into structured values. It never fails:
// values it cannot decode are returned unchanged with a warning.
type Deserializer struct {
	mode   DeserializeMode
	logger *zap.Logger
}

// NewDeserializer builds a deserializer for mode. A nil logger discards
// diagnostics.
func NewDeserializer(mode DeserializeMode, logger *zap.Logger) *Deserializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode = DeserializeMode(strings.ToLower(strings.TrimSpace(string(mode))))
	return &Deserializer{mode: mode, logger: logger}
}

// Mode returns the configured mode.
func (d *Deserializer) Mode() DeserializeMode {
	return d.mode
}

// Enabled reports whether any deserialization was configured.
func (d *Deserializer) Enabled() bool {
	return d.mode != "" && d.mode != DeserializeNone
}

// Deserialize decodes value when it is a string. Sequences and mappings read
// from the store are returned as they are, whatever the mode.
func (d *Deserializer) Deserialize(value any) any {
	raw, ok := value.(string)
	if !ok {
		return value
	}

	var (
		decoded any
		err     error
	)
	switch d.mode {
	case "", DeserializeNone:
		return raw
	case DeserializeJSON:
		err = json.Unmarshal([]byte(raw), &decoded)
	case DeserializeYAML:
		err = yaml.Unmarshal([]byte(raw), &decoded)
		decoded = normalizeYAML(decoded)
	default:
		d.logger.Warn("invalid deserialize configuration",
			zap.String("deserialize", string(d.mode)))
		return raw
	}
	if err != nil {
		d.logger.Warn("error de-serializing data",
			zap.Error(&deserializeError{Mode: d.mode, Err: err}))
		return raw
	}
	return decoded
}

// normalizeYAML rewrites mappings decoded with non-string keys so every
// mapping in the result is a map[string]any.
func normalizeYAML(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		for key, item := range typed {
			typed[key] = normalizeYAML(item)
		}
		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprint(key)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range typed {
			typed[i] = normalizeYAML(item)
		}
		return typed
	default:
		return value
	}
}
