package hiera

import (
	"encoding/json"

	"github.com/goliatone/go-hiera-redis/pkg/store"
)

// Trace records how each visited source contributed to a lookup.
type Trace struct {
	Key        string       `json:"key"`
	Resolution string       `json:"resolution"`
	Layers     []Provenance `json:"layers"`
}

// Provenance describes one source visited during a lookup.
type Provenance struct {
	Source string     `json:"source"`
	Key    string     `json:"key"`
	Kind   store.Kind `json:"kind"`
	Value  any        `json:"value,omitempty"`
	Found  bool       `json:"found"`
}

// Matched returns the namespaced keys that contributed a value.
func (t Trace) Matched() []string {
	var out []string
	for _, layer := range t.Layers {
		if layer.Found {
			out = append(out, layer.Key)
		}
	}
	return out
}

// Keys returns every namespaced key queried, in order.
func (t Trace) Keys() []string {
	out := make([]string, 0, len(t.Layers))
	for _, layer := range t.Layers {
		out = append(out, layer.Key)
	}
	return out
}

// ToJSON serialises the trace for logging or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
