package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-hiera-redis/pkg/activity"
	"github.com/goliatone/go-hiera-redis/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsLookupEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildLookupResolvedEvent(activity.LookupEventInput{
		LookupID:   uuid.NewString(),
		Key:        "ntp_servers",
		Resolution: "array",
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "hiera",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity: actor=%s tenant=%s", record.ActorID, record.TenantID)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user id for missing user, got %s", record.UserID)
	}
	if record.Verb != activity.VerbLookupResolved || record.ObjectType != activity.ObjectTypeKey || record.ObjectID != "ntp_servers" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "hiera" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel/time: %q %v", record.Channel, record.OccurredAt)
	}
	if record.Data["resolution"] != "array" || record.Data["key"] != "ntp_servers" {
		t.Fatalf("expected lookup data, got %+v", record.Data)
	}
}

func TestHookNotifyFiltersVerbs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbLookupFailed}}

	_ = hook.Notify(context.Background(), activity.BuildLookupMissedEvent(activity.LookupEventInput{Key: "port"}))
	if len(sink.records) != 0 {
		t.Fatalf("expected missed event to be filtered, got %d records", len(sink.records))
	}

	_ = hook.Notify(context.Background(), activity.BuildLookupFailedEvent(activity.LookupEventInput{Key: "port"}))
	if len(sink.records) != 1 {
		t.Fatalf("expected failed event forwarded, got %d records", len(sink.records))
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil sink to be a no-op, got %v", err)
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbLookupMissed,
		ObjectType: activity.ObjectTypeKey,
		ObjectID:   "port",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}
