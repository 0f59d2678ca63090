package chunkcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/civiccompass/internal/db"
)

type mockSource struct {
	data  map[string][]byte
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (m *mockSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.data[path]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return d, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	deleted []string
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockKVStore) Scan(_ context.Context, _ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mockKVStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

const chunkJSON = `[{"anchor":"4.06(A)","heading":"Horizontal separation","text":"Keep 5 feet."}]`

func newTestCache(t *testing.T, src *mockSource, kv *mockKVStore) *Cache {
	t.Helper()
	if kv == nil {
		return New(src, nil, time.Minute, nil, zap.NewNop())
	}
	return New(src, kv, time.Minute, nil, zap.NewNop())
}
