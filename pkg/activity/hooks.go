package activity

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// Event is one lookup occurrence delivered to hooks. Metadata carries the
// lookup details (lookup_id, resolution, sources, matched, value, error,
// duration_ms).
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// IsLookup reports whether the verb belongs to the lookup family.
func (e Event) IsLookup() bool {
	return strings.HasPrefix(e.Verb, "lookup.")
}

// Valid reports whether the event names a verb and the key it is about.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans an event out to every hook.
type Hooks []ActivityHook

func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event once and delivers it to each hook. Invalid events
// are dropped; hook failures are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	normalized := NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers, stamps a time and cleans lookup
// metadata. Lookup events without an object type are about a hiera key.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.ToLower(strings.TrimSpace(event.Verb))
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.UserID = strings.TrimSpace(event.UserID)
	normalized.TenantID = strings.TrimSpace(event.TenantID)
	normalized.ObjectType = strings.TrimSpace(event.ObjectType)
	normalized.ObjectID = strings.TrimSpace(event.ObjectID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	if normalized.ObjectType == "" && normalized.IsLookup() {
		normalized.ObjectType = ObjectTypeKey
	}
	normalized.Metadata = normalizeMetadata(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

// normalizeMetadata copies metadata, lower-cases the resolution and turns
// the key lists into ordered, de-duplicated []string values.
func normalizeMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		switch key {
		case "resolution":
			if text, ok := value.(string); ok {
				if text = strings.ToLower(strings.TrimSpace(text)); text != "" {
					dst[key] = text
				}
				continue
			}
		case "lookup_id":
			if text, ok := value.(string); ok {
				if text = strings.TrimSpace(text); text != "" {
					dst[key] = text
				}
				continue
			}
		case "sources", "matched":
			if keys := keyList(value); len(keys) > 0 {
				dst[key] = keys
			}
			continue
		}
		dst[key] = value
	}
	return dst
}

func keyList(value any) []string {
	var raw []string
	switch typed := value.(type) {
	case []string:
		raw = typed
	case []any:
		for _, item := range typed {
			if text, ok := item.(string); ok {
				raw = append(raw, text)
			}
		}
	case string:
		raw = []string{typed}
	}
	out := make([]string, 0, len(raw))
	for _, key := range raw {
		key = strings.TrimSpace(key)
		if key == "" || slices.Contains(out, key) {
			continue
		}
		out = append(out, key)
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
