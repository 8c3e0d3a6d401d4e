package record

import (
	"bytes"
	"context"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/nutriplate/nutriplate/internal/db"
	"github.com/nutriplate/nutriplate/internal/domain/tracking"
)

// memStore is a map-backed store; the *Fn hooks override single operations.
type memStore struct {
	data    map[string][]byte
	seq     map[string]int64
	scanFn  func(ctx context.Context, pattern string) ([]string, error)
	incrFn  func(ctx context.Context, key string) (int64, error)
	setFn   func(ctx context.Context, key string, value []byte) error
	setNXFn func(ctx context.Context, key string, value []byte) (bool, error)
	casFn   func(ctx context.Context, key string, old, value []byte) (bool, error)
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, seq: map[string]int64{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) GetMulti(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *memStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *memStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	return m.putIfAbsent(key, value), nil
}

func (m *memStore) putIfAbsent(key string, value []byte) bool {
	if _, ok := m.data[key]; ok {
		return false
	}
	m.data[key] = value
	return true
}

func (m *memStore) CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error) {
	if m.casFn != nil {
		return m.casFn(ctx, key, old, value)
	}
	return m.swap(key, old, value), nil
}

func (m *memStore) swap(key string, old, value []byte) bool {
	cur, ok := m.data[key]
	if !ok || !bytes.Equal(cur, old) {
		return false
	}
	m.data[key] = value
	return true
}

func (m *memStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	m.seq[key]++
	return m.seq[key], nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *memStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func newClock() func() time.Time {
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
}

func newFavoriteRepo(t *testing.T) (*Repo[*tracking.Favorite], *memStore) {
	t.Helper()
	ms := newMemStore()
	repo := New(ms, "test:", tracking.KindFavorite, func() *tracking.Favorite { return &tracking.Favorite{} })
	repo.now = newClock()
	return repo, ms
}

func newHealthRepo(t *testing.T, ms *memStore) *Repo[*tracking.HealthData] {
	t.Helper()
	repo := New(ms, "test:", tracking.KindHealth, func() *tracking.HealthData { return &tracking.HealthData{} })
	repo.now = newClock()
	return repo
}
