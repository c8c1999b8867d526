package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	hiera "github.com/goliatone/go-hiera-redis"
	"github.com/goliatone/go-hiera-redis/layering"
	"github.com/google/go-cmp/cmp"
)

func TestLoadYAMLWithSymbols(t *testing.T) {
	file, err := Load(filepath.Join("testdata", "hiera.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"hosts/%{::fqdn}", "env/%{environment}", "common"}
	if diff := cmp.Diff(want, file.Hierarchy); diff != "" {
		t.Fatalf("unexpected hierarchy (-want +got):\n%s", diff)
	}
	if file.Redis.Deserialize != hiera.DeserializeJSON || !file.Redis.SoftConnectionFailure {
		t.Fatalf("unexpected redis config: %+v", file.Redis)
	}
	if file.Redis.Separator != hiera.DefaultSeparator {
		t.Fatalf("expected default separator, got %q", file.Redis.Separator)
	}
	if got := file.Redis.Connection.ID(); got != "redis://redis.internal:6380/2" {
		t.Fatalf("unexpected connection id %q", got)
	}
	wantMerge := layering.Options{Behavior: layering.Deeper, KnockoutPrefix: "--"}
	if diff := cmp.Diff(wantMerge, file.MergeOptions()); diff != "" {
		t.Fatalf("unexpected merge options (-want +got):\n%s", diff)
	}
}

func TestLoadJSONC(t *testing.T) {
	file, err := Load(filepath.Join("testdata", "hiera.jsonc"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"nodes/%{fqdn}", "common"}, file.Hierarchy); diff != "" {
		t.Fatalf("unexpected hierarchy (-want +got):\n%s", diff)
	}
	if file.Interpolation != "cel" || file.Redis.Separator != "/" {
		t.Fatalf("unexpected file: %+v", file)
	}
	if got := file.Redis.Connection.ID(); got != "unix:///var/run/redis.sock/0" {
		t.Fatalf("unexpected connection id %q", got)
	}
	if file.MergeOptions().Behavior != layering.Native {
		t.Fatalf("expected native default merge, got %+v", file.MergeOptions())
	}
}

func TestParseDefaultsAndErrors(t *testing.T) {
	file, err := Parse(nil, ".yaml")
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if diff := cmp.Diff(Default(), file); diff != "" {
		t.Fatalf("expected defaults (-want +got):\n%s", diff)
	}

	cases := []struct {
		name string
		data string
		want string
	}{
		{"backend missing", "backends: [yaml]\n", ErrBackendNotListed.Error()},
		{"bad merge", "merge_behavior: shallow\n", "unknown merge behavior"},
		{"bad engine", "interpolation: lua\n", "unknown interpolation engine"},
		{"unknown field", "hierarchy: [common]\nbogus: true\n", "field bogus not found"},
		{"negative db", "redis:\n  db: -1\n", "db must not be negative"},
		{"malformed", "hierarchy: [common\n", "parsing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), ".yaml")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
	if _, err := Parse([]byte("backends: [yaml]\n"), ".yml"); !errors.Is(err, ErrBackendNotListed) {
		t.Fatalf("expected ErrBackendNotListed, got %v", err)
	}
}

func TestFileHost(t *testing.T) {
	file := Default()
	file.Hierarchy = []string{"hosts/%{fqdn}", "common"}
	file.Interpolation = "cel"

	h, err := file.Host(nil)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	var got []string
	for source := range h.Datasources(hiera.Scope{"fqdn": "web1"}, nil) {
		got = append(got, source.String())
	}
	if diff := cmp.Diff([]string{"hosts/web1", "common"}, got); diff != "" {
		t.Fatalf("unexpected sources (-want +got):\n%s", diff)
	}

	file.Interpolation = "lua"
	if _, err := file.Host(nil); err == nil {
		t.Fatalf("expected unknown engine error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "missing.yaml")); err == nil || !strings.Contains(err.Error(), "reading") {
		t.Fatalf("expected read error, got %v", err)
	}
}
