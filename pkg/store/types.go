package store

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the store-reported type tag of a key.
type Kind string

const (
	KindNone   Kind = "none"
	KindString Kind = "string"
	KindList   Kind = "list"
	KindSet    Kind = "set"
	KindZSet   Kind = "zset"
	KindHash   Kind = "hash"
)

// ParseKind maps a raw type tag onto a Kind. Tags outside the five readable
// shapes (streams, modules, unknown keys) map to KindNone.
func ParseKind(tag string) Kind {
	switch Kind(tag) {
	case KindString, KindList, KindSet, KindZSet, KindHash:
		return Kind(tag)
	default:
		return KindNone
	}
}

// Value is the native shape read for a single key. Exactly one of Scalar,
// Items or Fields is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Scalar string
	Items  []string
	Fields map[string]string
}

// Absent returns the value reported for keys with no readable shape.
func Absent() Value {
	return Value{Kind: KindNone}
}

// IsAbsent reports whether the key had no readable shape.
func (v Value) IsAbsent() bool {
	return v.Kind == "" || v.Kind == KindNone
}

// Native converts the value into the generic shapes used by lookups:
// string, []any or map[string]any. Absent values return nil.
func (v Value) Native() any {
	switch v.Kind {
	case KindString:
		return v.Scalar
	case KindList, KindSet, KindZSet:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item
		}
		return out
	case KindHash:
		out := make(map[string]any, len(v.Fields))
		for field, value := range v.Fields {
			out[field] = value
		}
		return out
	default:
		return nil
	}
}

// Client is a connection to the key-value store. Implementations must be safe
// for concurrent use; the adapter shares one Client across all lookups.
type Client interface {
	Type(ctx context.Context, key string) (string, error)
	// Get returns ok=false when the key vanished after it was typed.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	LRange(ctx context.Context, key string) ([]string, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	ZRange(ctx context.Context, key string) ([]string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// ID identifies the server for diagnostics, e.g. "redis://127.0.0.1:6379/0".
	ID() string
	Close() error
}

// Dialer opens a Client. It is invoked lazily by the Adapter. Failing to
// reach the server must be reported as a ConnectionError; any other error
// (bad options, unsupported URL) is treated as a configuration error.
type Dialer func(ctx context.Context) (Client, error)

// ErrNoDialer indicates an Adapter was built without a Dialer.
var ErrNoDialer = errors.New("store: dialer is required")

// ConnectionError reports that the store could not be reached or that the
// connection failed mid-request.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Addr == "" {
		return fmt.Sprintf("store: cannot connect: %v", e.Err)
	}
	return fmt.Sprintf("store: cannot connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsConnectionError reports whether err carries a ConnectionError.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
