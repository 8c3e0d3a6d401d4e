// Package recipe persists the recipe catalog as JSON values in the key-value store.
package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nutriplate/nutriplate/internal/db"
	"github.com/nutriplate/nutriplate/internal/domain"
	domrecipe "github.com/nutriplate/nutriplate/internal/domain/recipe"
)

const defaultPageSize = 20

// store is the consumer interface for recipes (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Incr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/catalog.Repository.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates a recipe repository. An empty prefix uses domain.KeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix, now: time.Now}
}

// Create assigns the next id and creation time and stores the recipe.
func (r *Repo) Create(ctx context.Context, rec *domrecipe.Recipe) error {
	seq, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return fmt.Errorf("next recipe id: %w", err)
	}
	rec.ID = strconv.FormatInt(seq, 10)
	rec.CreatedAt = r.now().UTC()
	return r.put(ctx, rec)
}

// Get returns a recipe by id.
func (r *Repo) Get(ctx context.Context, id string) (domrecipe.Recipe, error) {
	key := r.key(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domrecipe.Recipe{}, fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
		}
		return domrecipe.Recipe{}, fmt.Errorf("get %s: %w", key, err)
	}
	var rec domrecipe.Recipe
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domrecipe.Recipe{}, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return rec, nil
}

// Update replaces a stored recipe, keeping its id and creation time.
func (r *Repo) Update(ctx context.Context, id string, rec *domrecipe.Recipe) error {
	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.ID = current.ID
	rec.CreatedAt = current.CreatedAt
	return r.put(ctx, rec)
}

// Delete removes a recipe.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a recipe with id is stored.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	key := r.key(id)
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}
	return ok, nil
}

// Count returns the number of stored recipes.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return 0, fmt.Errorf("scan recipes: %w", err)
	}
	return len(keys), nil
}

// List returns a filtered, ordered page of recipes. The cursor is the offset of the
// next page; an empty next cursor means the last page was reached.
func (r *Repo) List(ctx context.Context, q domrecipe.Query) ([]domrecipe.Recipe, string, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := 0
	if q.Cursor != "" {
		parsed, err := strconv.Atoi(q.Cursor)
		if err != nil || parsed < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q: %w", q.Cursor, domain.ErrInvalidInput)
		}
		offset = parsed
	}

	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, "", err
	}

	matched := make([]*domrecipe.Recipe, 0, len(all))
	for i := range all {
		if q.Keep(&all[i]) {
			matched = append(matched, &all[i])
		}
	}
	slices.SortFunc(matched, q.Compare)

	if offset >= len(matched) {
		return []domrecipe.Recipe{}, "", nil
	}
	end := min(offset+limit, len(matched))
	page := make([]domrecipe.Recipe, 0, end-offset)
	for _, rec := range matched[offset:end] {
		page = append(page, *rec)
	}

	var next string
	if end < len(matched) {
		next = strconv.Itoa(end)
	}
	return page, next, nil
}

func (r *Repo) loadAll(ctx context.Context) ([]domrecipe.Recipe, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan recipes: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get recipes: %w", err)
	}

	out := make([]domrecipe.Recipe, 0, len(values))
	for i, raw := range values {
		// Deleted between SCAN and MGET.
		if raw == nil {
			continue
		}
		var rec domrecipe.Recipe
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", keys[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repo) put(ctx context.Context, rec *domrecipe.Recipe) error {
	key := r.key(rec.ID)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return r.prefix + "recipe:" + strings.TrimSpace(id)
}

func (r *Repo) seqKey() string {
	return r.prefix + "seq:recipe"
}
