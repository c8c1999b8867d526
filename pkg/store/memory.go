package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrWrongType mirrors the server reply for a read against a key of another
// type.
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// MemoryClient is an in-process Client intended for tests, examples and
// hosts that preload data. Keys keep the shape they were written with.
type MemoryClient struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	fail    error
}

type memoryRecord struct {
	tag    string
	scalar string
	items  []string
	scores map[string]float64
	fields map[string]string
}

// ScoredMember is one member of a sorted set.
type ScoredMember struct {
	Score  float64
	Member string
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{records: map[string]memoryRecord{}}
}

// Dialer returns a Dialer that hands out m, failing while FailWith is set.
func (m *MemoryClient) Dialer() Dialer {
	return func(context.Context) (Client, error) {
		if err := m.failure(); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// FailWith makes every subsequent call fail with a ConnectionError wrapping
// err. A nil err restores normal operation.
func (m *MemoryClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *MemoryClient) failure() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail == nil {
		return nil
	}
	return &ConnectionError{Addr: m.ID(), Err: m.fail}
}

func (m *MemoryClient) SetString(key, value string) {
	m.put(key, memoryRecord{tag: string(KindString), scalar: value})
}

func (m *MemoryClient) SetList(key string, items ...string) {
	m.put(key, memoryRecord{tag: string(KindList), items: append([]string{}, items...)})
}

func (m *MemoryClient) SetSet(key string, members ...string) {
	unique := map[string]struct{}{}
	out := make([]string, 0, len(members))
	for _, member := range members {
		if _, ok := unique[member]; ok {
			continue
		}
		unique[member] = struct{}{}
		out = append(out, member)
	}
	sort.Strings(out)
	m.put(key, memoryRecord{tag: string(KindSet), items: out})
}

func (m *MemoryClient) SetSortedSet(key string, members ...ScoredMember) {
	scores := make(map[string]float64, len(members))
	for _, member := range members {
		scores[member.Member] = member.Score
	}
	m.put(key, memoryRecord{tag: string(KindZSet), scores: scores})
}

func (m *MemoryClient) SetHash(key string, fields map[string]string) {
	copied := make(map[string]string, len(fields))
	for field, value := range fields {
		copied[field] = value
	}
	m.put(key, memoryRecord{tag: string(KindHash), fields: copied})
}

// SetTagged stores a key whose type tag has no readable shape, e.g. "stream".
func (m *MemoryClient) SetTagged(key, tag string) {
	m.put(key, memoryRecord{tag: tag})
}

func (m *MemoryClient) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
}

func (m *MemoryClient) put(key string, record memoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = map[string]memoryRecord{}
	}
	m.records[key] = record
}

func (m *MemoryClient) lookup(key, tag string) (memoryRecord, bool, error) {
	if err := m.failure(); err != nil {
		return memoryRecord{}, false, err
	}
	m.mu.RLock()
	record, ok := m.records[key]
	m.mu.RUnlock()
	if !ok {
		return memoryRecord{}, false, nil
	}
	if record.tag != tag {
		return memoryRecord{}, false, ErrWrongType
	}
	return record, true, nil
}

func (m *MemoryClient) ID() string {
	return "memory://local"
}

func (m *MemoryClient) Type(_ context.Context, key string) (string, error) {
	if err := m.failure(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[key]
	if !ok {
		return string(KindNone), nil
	}
	return record.tag, nil
}

func (m *MemoryClient) Get(_ context.Context, key string) (string, bool, error) {
	record, ok, err := m.lookup(key, string(KindString))
	if err != nil || !ok {
		return "", false, err
	}
	return record.scalar, true, nil
}

func (m *MemoryClient) LRange(_ context.Context, key string) ([]string, error) {
	record, ok, err := m.lookup(key, string(KindList))
	if err != nil || !ok {
		return []string{}, err
	}
	return append([]string{}, record.items...), nil
}

func (m *MemoryClient) SMembers(_ context.Context, key string) ([]string, error) {
	record, ok, err := m.lookup(key, string(KindSet))
	if err != nil || !ok {
		return []string{}, err
	}
	return append([]string{}, record.items...), nil
}

// ZRange returns members ordered by score, ties broken lexically.
func (m *MemoryClient) ZRange(_ context.Context, key string) ([]string, error) {
	record, ok, err := m.lookup(key, string(KindZSet))
	if err != nil || !ok {
		return []string{}, err
	}
	members := make([]string, 0, len(record.scores))
	for member := range record.scores {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := record.scores[members[i]], record.scores[members[j]]
		if si == sj {
			return members[i] < members[j]
		}
		return si < sj
	})
	return members, nil
}

func (m *MemoryClient) HGetAll(_ context.Context, key string) (map[string]string, error) {
	record, ok, err := m.lookup(key, string(KindHash))
	if err != nil || !ok {
		return map[string]string{}, err
	}
	out := make(map[string]string, len(record.fields))
	for field, value := range record.fields {
		out[field] = value
	}
	return out, nil
}

func (m *MemoryClient) Close() error {
	return nil
}
