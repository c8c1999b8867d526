package hiera

import (
	"encoding/json"
	"testing"

	"github.com/goliatone/go-hiera-redis/pkg/store"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestDeserializerLeavesStoreShapesAlone(t *testing.T) {
	payload := `{"a":1}`
	cases := []struct {
		name  string
		value store.Value
	}{
		{name: "list", value: store.Value{Kind: store.KindList, Items: []string{payload, "plain"}}},
		{name: "set", value: store.Value{Kind: store.KindSet, Items: []string{payload}}},
		{name: "zset", value: store.Value{Kind: store.KindZSet, Items: []string{"low", payload}}},
		{name: "hash", value: store.Value{Kind: store.KindHash, Fields: map[string]string{"config": payload}}},
	}

	for _, mode := range []DeserializeMode{DeserializeJSON, DeserializeYAML} {
		deserializer := NewDeserializer(mode, nil)
		for _, tc := range cases {
			t.Run(string(mode)+"/"+tc.name, func(t *testing.T) {
				native := tc.value.Native()
				got := deserializer.Deserialize(native)
				if diff := cmp.Diff(tc.value.Native(), got); diff != "" {
					t.Fatalf("expected value untouched (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestDeserializerRoundTrip(t *testing.T) {
	value := map[string]any{
		"name":    "web",
		"enabled": true,
		"weight":  1.5,
		"tags":    []any{"frontend", "edge"},
		"tls": map[string]any{
			"mode": "require",
			"ca":   []any{"root", "intermediate"},
		},
	}

	encoders := map[DeserializeMode]func(any) ([]byte, error){
		DeserializeJSON: json.Marshal,
		DeserializeYAML: yaml.Marshal,
	}
	for mode, encode := range encoders {
		t.Run(string(mode), func(t *testing.T) {
			encoded, err := encode(value)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got := NewDeserializer(mode, nil).Deserialize(string(encoded))
			if diff := cmp.Diff(value, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeserializerNullPayloads(t *testing.T) {
	cases := []struct {
		mode DeserializeMode
		raw  string
	}{
		{mode: DeserializeJSON, raw: "null"},
		{mode: DeserializeYAML, raw: "~"},
		{mode: DeserializeYAML, raw: "null"},
	}
	for _, tc := range cases {
		if got := NewDeserializer(tc.mode, nil).Deserialize(tc.raw); got != nil {
			t.Fatalf("%s %q: expected nil, got %#v", tc.mode, tc.raw, got)
		}
	}
}

func TestDeserializerModeNoneKeepsStrings(t *testing.T) {
	deserializer := NewDeserializer(DeserializeNone, nil)
	if deserializer.Enabled() {
		t.Fatalf("expected none mode to be disabled")
	}
	if got := deserializer.Deserialize(`{"a":1}`); got != `{"a":1}` {
		t.Fatalf("expected raw string, got %#v", got)
	}
}
