package recipe

import (
	"context"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/nutriplate/nutriplate/internal/db"
	domrecipe "github.com/nutriplate/nutriplate/internal/domain/recipe"
)

// memStore is a map-backed store; the *Fn hooks override single operations.
type memStore struct {
	data   map[string][]byte
	seq    map[string]int64
	scanFn func(ctx context.Context, pattern string) ([]string, error)
	incrFn func(ctx context.Context, key string) (int64, error)
	setFn  func(ctx context.Context, key string, value []byte) error
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

func newTestRepo(t *testing.T) (*Repo, *memStore) {
	t.Helper()
	ms := newMemStore()
	repo := New(ms, "test:")
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return repo, ms
}

func testRecipe(title string, calories int, tags ...string) *domrecipe.Recipe {
	r := &domrecipe.Recipe{
		Title:      title,
		Servings:   2,
		Difficulty: domrecipe.DifficultyEasy,
		Calories:   calories,
		Tags:       tags,
	}
	r.Normalize()
	return r
}
