package host

import (
	"context"
	"slices"
	"testing"

	hiera "github.com/goliatone/go-hiera-redis"
	"github.com/goliatone/go-hiera-redis/layering"
	"github.com/goliatone/go-hiera-redis/pkg/store"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var levels = []string{"hosts/%{fqdn}", "env/%{environment}", "%{missing}", "common"}

func webScope() hiera.Scope {
	return hiera.Scope{"fqdn": "web1.example.com", "environment": "production"}
}

func sourceNames(seq func(func(hiera.Source) bool)) []string {
	var out []string
	for source := range seq {
		out = append(out, source.String())
	}
	return out
}

func TestHierarchyDatasources(t *testing.T) {
	h := New(levels)

	got := sourceNames(h.Datasources(webScope(), nil))
	want := []string{"hosts/web1.example.com", "env/production", "common"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected sources (-want +got):\n%s", diff)
	}

	got = sourceNames(h.Datasources(webScope(), []string{"override/%{fqdn}", "common"}))
	want = []string{"override/web1.example.com", "common", "hosts/web1.example.com", "env/production"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected sources with override (-want +got):\n%s", diff)
	}
}

func TestHierarchyIsLazy(t *testing.T) {
	h := New(levels)
	var first []string
	for source := range h.Datasources(webScope(), nil) {
		first = append(first, source.String())
		break
	}
	if !slices.Equal(first, []string{"hosts/web1.example.com"}) {
		t.Fatalf("unexpected first source %v", first)
	}
	if !slices.Equal(h.Levels(), levels) {
		t.Fatalf("unexpected levels %v", h.Levels())
	}
}

func TestHierarchySkipsBrokenLevels(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := New([]string{"bad/%{1 +}", "common"}, WithLogger(zap.New(core)))

	got := sourceNames(h.Datasources(webScope(), nil))
	if diff := cmp.Diff([]string{"common"}, got); diff != "" {
		t.Fatalf("unexpected sources (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("skipping hierarchy level").Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
}

func TestParserInterpolatesAnswers(t *testing.T) {
	p := NewParser(nil)
	got, err := p.ParseAnswer(map[string]any{
		"motd":  "welcome to %{fqdn}",
		"paths": []any{"/srv/%{environment}", 42},
	}, webScope(), hiera.LookupContext{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]any{
		"motd":  "welcome to web1.example.com",
		"paths": []any{"/srv/production", 42},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected answer (-want +got):\n%s", diff)
	}
}

func TestMergerHonorsResolutionOptions(t *testing.T) {
	m := NewMerger(layering.Options{})
	accumulated := map[string]any{"db": map[string]any{"host": "db2"}}
	next := map[string]any{"db": map[string]any{"host": "db1", "tls": true}}

	native, err := m.MergeAnswer(next, accumulated, hiera.Hash())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"db": map[string]any{"host": "db2"}}, native); diff != "" {
		t.Fatalf("unexpected native merge (-want +got):\n%s", diff)
	}

	deeper, _ := m.MergeAnswer(next, accumulated, hiera.HashWith(hiera.MergeOptions{Behavior: hiera.MergeDeeper}))
	if diff := cmp.Diff(map[string]any{"db": map[string]any{"host": "db2", "tls": true}}, deeper); diff != "" {
		t.Fatalf("unexpected deeper merge (-want +got):\n%s", diff)
	}

	deep, _ := m.MergeAnswer(next, accumulated, hiera.HashWith(hiera.MergeOptions{Behavior: hiera.MergeDeep}))
	if diff := cmp.Diff(map[string]any{"db": map[string]any{"host": "db1", "tls": true}}, deep); diff != "" {
		t.Fatalf("unexpected deep merge (-want +got):\n%s", diff)
	}
}

func TestResolveAnswer(t *testing.T) {
	value := []any{[]any{"10.0.0.1", "10.0.0.2"}, "10.0.0.1", nil, []string{"0.pool.ntp.org"}}
	got := ResolveAnswer(value, hiera.Array())
	want := []any{"10.0.0.1", "10.0.0.2", "0.pool.ntp.org"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected array (-want +got):\n%s", diff)
	}
	if got := ResolveAnswer("8080", hiera.Scalar()); got != "8080" {
		t.Fatalf("expected scalar untouched, got %v", got)
	}
}

func TestBackendWithReferenceHost(t *testing.T) {
	mem := store.NewMemoryClient()
	mem.SetString("hosts:web1.example.com:motd", "welcome to %{fqdn}")
	mem.SetString("common:motd", "hello")
	mem.SetList("hosts:web1.example.com:ntp_servers", "10.0.0.1")
	mem.SetSet("env:production:ntp_servers", "10.0.0.1", "10.0.0.2")
	mem.SetSortedSet("common:ntp_servers", store.ScoredMember{Score: 1, Member: "0.pool.ntp.org"})
	mem.SetHash("env:production:database", map[string]string{"host": "db-prod"})
	mem.SetHash("common:database", map[string]string{"host": "db-common", "port": "5432"})

	backend, err := hiera.New(hiera.Config{}, New(levels), hiera.WithDialer(mem.Dialer()))
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	defer backend.Close()
	ctx := context.Background()

	motd, err := backend.Lookup(ctx, hiera.Request{Key: "motd", Scope: webScope()})
	if err != nil || motd.Value != "welcome to web1.example.com" {
		t.Fatalf("unexpected motd %+v, %v", motd, err)
	}

	ntp, err := backend.Lookup(ctx, hiera.Request{Key: "ntp_servers", Scope: webScope(), Resolution: hiera.Array()})
	if err != nil {
		t.Fatalf("lookup ntp: %v", err)
	}
	want := []any{"10.0.0.1", "10.0.0.2", "0.pool.ntp.org"}
	if diff := cmp.Diff(want, ResolveAnswer(ntp.Value, hiera.Array())); diff != "" {
		t.Fatalf("unexpected ntp servers (-want +got):\n%s", diff)
	}

	db, err := backend.Lookup(ctx, hiera.Request{Key: "database", Scope: webScope(), Resolution: hiera.Hash()})
	if err != nil {
		t.Fatalf("lookup database: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"host": "db-prod", "port": "5432"}, db.Value); diff != "" {
		t.Fatalf("unexpected database (-want +got):\n%s", diff)
	}
}
