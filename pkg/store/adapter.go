package store

import (
	"context"
	"fmt"
	"sync"
)

// Adapter translates namespaced keys into native values. The connection is
// opened on first use and shared by every subsequent Fetch.
type Adapter struct {
	mu     sync.Mutex
	dial   Dialer
	client Client
}

// NewAdapter returns an Adapter that dials lazily through dial.
func NewAdapter(dial Dialer) *Adapter {
	return &Adapter{dial: dial}
}

// Connect returns the shared client, dialing it when no handle exists yet. A
// failed dial leaves no handle behind. Dial errors are returned as the dialer
// reported them: only a ConnectionError means the server was unreachable.
func (a *Adapter) Connect(ctx context.Context) (Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}
	if a.dial == nil {
		return nil, ErrNoDialer
	}
	client, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// ID returns the identifier of the connected server, or "" before the first
// successful Connect.
func (a *Adapter) ID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return ""
	}
	return a.client.ID()
}

// Fetch reads key using the read method selected by its type tag.
func (a *Adapter) Fetch(ctx context.Context, key string) (Value, error) {
	client, err := a.Connect(ctx)
	if err != nil {
		return Absent(), err
	}

	tag, err := client.Type(ctx, key)
	if err != nil {
		return Absent(), fmt.Errorf("store: type %q: %w", key, err)
	}

	switch kind := ParseKind(tag); kind {
	case KindString:
		value, ok, err := client.Get(ctx, key)
		if err != nil {
			return Absent(), fmt.Errorf("store: get %q: %w", key, err)
		}
		if !ok {
			return Absent(), nil
		}
		return Value{Kind: kind, Scalar: value}, nil
	case KindList:
		items, err := client.LRange(ctx, key)
		if err != nil {
			return Absent(), fmt.Errorf("store: lrange %q: %w", key, err)
		}
		return Value{Kind: kind, Items: items}, nil
	case KindSet:
		items, err := client.SMembers(ctx, key)
		if err != nil {
			return Absent(), fmt.Errorf("store: smembers %q: %w", key, err)
		}
		return Value{Kind: kind, Items: items}, nil
	case KindZSet:
		items, err := client.ZRange(ctx, key)
		if err != nil {
			return Absent(), fmt.Errorf("store: zrange %q: %w", key, err)
		}
		return Value{Kind: kind, Items: items}, nil
	case KindHash:
		fields, err := client.HGetAll(ctx, key)
		if err != nil {
			return Absent(), fmt.Errorf("store: hgetall %q: %w", key, err)
		}
		return Value{Kind: kind, Fields: fields}, nil
	default:
		return Absent(), nil
	}
}

// Close releases the shared client. A later Fetch dials again.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}
