package hiera

import (
	"strings"
)

// Scope carries the variables of the node or request being looked up. It is
// opaque to the backend and only forwarded to host collaborators.
type Scope map[string]any

// LookupContext carries host state for one lookup (recursion guards, order
// overrides already applied, etc.). The backend only forwards it.
type LookupContext map[string]any

// Source is one candidate datasource, expressed as ordered path segments.
type Source []string

// ParseSource splits a slash separated datasource name ("hosts/web1") into
// segments.
func ParseSource(name string) Source {
	if name == "" {
		return Source{}
	}
	return Source(strings.Split(name, "/"))
}

// String renders the source in its slash separated form.
func (s Source) String() string {
	return strings.Join(s, "/")
}

// NamespacedKey joins the source segments and key with separator, e.g.
// ["hosts","web1"] + "port" with ":" yields "hosts:web1:port".
func NamespacedKey(source Source, key, separator string) string {
	parts := make([]string, 0, len(source)+1)
	parts = append(parts, source...)
	parts = append(parts, key)
	return strings.Join(parts, separator)
}

// Request describes a single lookup issued by the host.
type Request struct {
	Key   string
	Scope Scope
	// OrderOverride is handed to the datasource resolver; nil means absent.
	OrderOverride []string
	Resolution    Resolution
	Context       LookupContext
}

// Answer is the outcome of a lookup. Found is false when no source yielded a
// value, which hosts must treat as "this backend has nothing", not a failure.
type Answer struct {
	Value any
	Found bool
}

// NotFound returns the answer reported when no source matched.
func NotFound() Answer {
	return Answer{}
}

func found(value any) Answer {
	return Answer{Value: value, Found: true}
}
