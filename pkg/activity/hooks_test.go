package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"resolution": "hash"}
	evt := Event{
		Verb:       " lookup.resolved ",
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		ObjectType: " hiera.key ",
		ObjectID:   " ntp_servers ",
		Channel:    " hiera ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "lookup.resolved" || got.ObjectType != "hiera.key" || got.ObjectID != "ntp_servers" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "hiera" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["resolution"] = "changed"
	if evt.Metadata["resolution"] != "hash" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: "lookup.missed"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: "lookup.resolved", ObjectType: ObjectTypeKey, ObjectID: "port"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: "lookup.resolved", ObjectType: ObjectTypeKey, ObjectID: "port"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	if NewEmitter(nil, Config{Enabled: true}).Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannelAndTime(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       "lookup.resolved",
		ObjectType: ObjectTypeKey,
		ObjectID:   "port",
		Channel:    "custom",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestNormalizeEventCleansLookupMetadata(t *testing.T) {
	evt := Event{
		Verb:     "Lookup.Resolved",
		ObjectID: "ntp_servers",
		Metadata: map[string]any{
			"lookup_id":  " 42 ",
			"resolution": " ARRAY ",
			"sources":    []any{"hosts:web1:ntp_servers", " common:ntp_servers ", "hosts:web1:ntp_servers", 7, ""},
			"matched":    "common:ntp_servers",
			"value":      []any{"0.pool.ntp.org"},
		},
	}

	got := NormalizeEvent(evt)

	if got.Verb != VerbLookupResolved {
		t.Fatalf("expected lower-cased verb, got %q", got.Verb)
	}
	if got.ObjectType != ObjectTypeKey {
		t.Fatalf("expected lookup events to default to %q, got %q", ObjectTypeKey, got.ObjectType)
	}
	want := map[string]any{
		"lookup_id":  "42",
		"resolution": "array",
		"sources":    []string{"hosts:web1:ntp_servers", "common:ntp_servers"},
		"matched":    []string{"common:ntp_servers"},
		"value":      []any{"0.pool.ntp.org"},
	}
	if diff := cmp.Diff(want, got.Metadata); diff != "" {
		t.Fatalf("unexpected metadata (-want +got):\n%s", diff)
	}
}

func TestNormalizeEventDropsEmptyLookupMetadata(t *testing.T) {
	got := NormalizeEvent(Event{
		Verb:     VerbLookupMissed,
		ObjectID: "port",
		Metadata: map[string]any{"resolution": "  ", "sources": []string{" "}, "lookup_id": ""},
	})
	if len(got.Metadata) != 0 {
		t.Fatalf("expected empty metadata dropped, got %+v", got.Metadata)
	}
}

func TestNormalizeEventKeepsExplicitObjectType(t *testing.T) {
	got := NormalizeEvent(Event{Verb: "config.reloaded", ObjectID: "hiera.yaml"})
	if got.ObjectType != "" || got.IsLookup() || got.Valid() {
		t.Fatalf("expected non-lookup event left without object type, got %+v", got)
	}
	got = NormalizeEvent(Event{Verb: VerbLookupFailed, ObjectType: "custom", ObjectID: "port"})
	if got.ObjectType != "custom" || !got.Valid() {
		t.Fatalf("expected explicit object type kept, got %+v", got)
	}
}
