package activity

import (
	"strings"
	"time"
)

const (
	VerbLookupResolved = "lookup.resolved"
	VerbLookupMissed   = "lookup.missed"
	VerbLookupFailed   = "lookup.failed"

	// ObjectTypeKey is the object type of every lookup event.
	ObjectTypeKey = "hiera.key"
)

// LookupEventInput describes the common fields for lookup events.
type LookupEventInput struct {
	LookupID   string
	Key        string
	Resolution string
	// Sources lists the namespaced keys queried, in order.
	Sources []string
	// Matched lists the namespaced keys that contributed to the answer.
	Matched    []string
	Value      any
	Err        error
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Metadata   map[string]any
	Duration   time.Duration
	OccurredAt time.Time
}

// BuildLookupResolvedEvent describes a lookup that produced an answer.
func BuildLookupResolvedEvent(input LookupEventInput) Event {
	return buildLookupEvent(VerbLookupResolved, input)
}

// BuildLookupMissedEvent describes a lookup where no source matched.
func BuildLookupMissedEvent(input LookupEventInput) Event {
	return buildLookupEvent(VerbLookupMissed, input)
}

// BuildLookupFailedEvent describes a lookup aborted by an error.
func BuildLookupFailedEvent(input LookupEventInput) Event {
	return buildLookupEvent(VerbLookupFailed, input)
}

func buildLookupEvent(verb string, input LookupEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if input.LookupID != "" {
		metadata["lookup_id"] = input.LookupID
	}
	if input.Resolution != "" {
		metadata["resolution"] = input.Resolution
	}
	if len(input.Sources) > 0 {
		metadata["sources"] = append([]string{}, input.Sources...)
	}
	if len(input.Matched) > 0 {
		metadata["matched"] = append([]string{}, input.Matched...)
	}
	if input.Value != nil {
		metadata["value"] = input.Value
	}
	if input.Err != nil {
		metadata["error"] = input.Err.Error()
	}
	if input.Duration > 0 {
		metadata["duration_ms"] = input.Duration.Milliseconds()
	}

	objectID := strings.TrimSpace(input.Key)
	if objectID == "" {
		objectID = strings.TrimSpace(input.LookupID)
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeKey,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
