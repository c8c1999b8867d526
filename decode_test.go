package hiera

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type databaseSettings struct {
	Host string `json:"host"`
	Port string `json:"port"`
	TLS  string `json:"tls"`
}

func TestLookupAsDecodesHashAnswers(t *testing.T) {
	backend, mem, _ := newMemoryBackend(t, Config{}, webHost())
	mem.SetHash("hosts:web1:database", map[string]string{"host": "db2"})
	mem.SetHash("common:database", map[string]string{"host": "db1", "port": "5432"})

	settings, found, err := LookupAs(context.Background(), backend, Request{Key: "database", Resolution: Hash()},
		WithDecodePostHook(func(_ DecodeContext, s *databaseSettings) error {
			if s.TLS == "" {
				s.TLS = "require"
			}
			return nil
		}),
	)
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	want := databaseSettings{Host: "db2", Port: "5432", TLS: "require"}
	if diff := cmp.Diff(want, settings); diff != "" {
		t.Fatalf("unexpected settings (-want +got):\n%s", diff)
	}
}

func TestLookupAsMissingAndStrict(t *testing.T) {
	backend, mem, _ := newMemoryBackend(t, Config{}, webHost())

	_, found, err := LookupAs[databaseSettings](context.Background(), backend, Request{Key: "database", Resolution: Hash()})
	if err != nil || found {
		t.Fatalf("expected not found, got found=%v err=%v", found, err)
	}

	mem.SetHash("common:database", map[string]string{"host": "db1", "pool": "10"})
	_, found, err = LookupAs(context.Background(), backend, Request{Key: "database", Resolution: Hash()},
		WithStrictDecode[databaseSettings]())
	if !found || err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected strict decode failure, got found=%v err=%v", found, err)
	}
}

func TestLookupAsArray(t *testing.T) {
	backend, mem, _ := newMemoryBackend(t, Config{}, webHost())
	mem.SetList("common:ntp_servers", "0.pool.ntp.org", "1.pool.ntp.org")

	servers, found, err := LookupAs[[]string](context.Background(), backend, Request{Key: "ntp_servers"})
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if diff := cmp.Diff([]string{"0.pool.ntp.org", "1.pool.ntp.org"}, servers); diff != "" {
		t.Fatalf("unexpected servers (-want +got):\n%s", diff)
	}
}
