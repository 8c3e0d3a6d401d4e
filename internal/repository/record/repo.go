// Package record persists user-owned tracking records (favorites, history, profiles,
// health data, wearable readings) as JSON values in the key-value store.
package record

import (
	"bytes"
	"cmp"
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
	"github.com/nutriplate/nutriplate/internal/domain/tracking"
)

// store is the consumer interface for tracking records (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	CompareAndSwap(ctx context.Context, key string, old, value []byte) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// maxClaimAttempts bounds retries when the unique index changes hands mid-claim.
const maxClaimAttempts = 3

// Repo stores records of one kind. Keys are laid out as
//
//	{prefix}{kind}:{user}:{id}        record JSON
//	{prefix}{kind}_idx:{user}:{key}   id of the record holding a unique key
//	{prefix}seq:{kind}                id sequence
type Repo[R tracking.Record] struct {
	store  store
	prefix string
	kind   tracking.Kind
	newFn  func() R
	now    func() time.Time
}

// New creates a repository for one record kind. newFn returns an empty record to decode into.
func New[R tracking.Record](s store, prefix string, kind tracking.Kind, newFn func() R) *Repo[R] {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo[R]{store: s, prefix: prefix, kind: kind, newFn: newFn, now: time.Now}
}

// Kind returns the record kind served by the repository.
func (r *Repo[R]) Kind() tracking.Kind { return r.kind }

// Create assigns id, owner and timestamp and stores the record.
// A record whose unique key is already taken by the user fails with ErrAlreadyExists.
// The record is written before its unique key is claimed, so a concurrent claimer
// always finds a live holder; the loser removes its record again.
func (r *Repo[R]) Create(ctx context.Context, user string, rec R) error {
	id, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return fmt.Errorf("next %s id: %w", r.kind, err)
	}

	rec.SetIdentity(id, user, r.now().UTC())
	if err := r.put(ctx, rec); err != nil {
		return err
	}

	if uk := rec.UniqueKey(); uk != "" {
		if err := r.claim(ctx, user, r.idxKey(user, uk), id); err != nil {
			_ = r.store.Del(ctx, r.key(user, id))
			return err
		}
	}
	return nil
}

// Get returns a record owned by user.
func (r *Repo[R]) Get(ctx context.Context, user string, id int64) (R, error) {
	key := r.key(user, id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		var zero R
		if errors.Is(err, db.ErrKeyNotFound) {
			return zero, fmt.Errorf("%s %d: %w", r.kind, id, domain.ErrNotFound)
		}
		return zero, fmt.Errorf("get %s: %w", key, err)
	}
	return r.decode(key, raw)
}

// List returns the user's records newest first. limit <= 0 returns all of them.
func (r *Repo[R]) List(ctx context.Context, user string, limit int) ([]R, error) {
	pattern := r.prefix + string(r.kind) + ":" + escapeGlob(user) + ":*"
	keys, err := r.store.Scan(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.kind, err)
	}
	out := make([]R, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get %s records: %w", r.kind, err)
	}
	for i, raw := range values {
		if raw == nil {
			continue
		}
		rec, err := r.decode(keys[i], raw)
		if err != nil {
			return nil, err
		}
		// Users whose id extends this one share the scan prefix.
		if rec.Owner() != user {
			continue
		}
		out = append(out, rec)
	}

	slices.SortFunc(out, func(a, b R) int {
		if c := b.SortTime().Compare(a.SortTime()); c != 0 {
			return c
		}
		return cmp.Compare(b.RecordID(), a.RecordID())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update replaces a record. Id, owner and creation time are preserved; records that
// stamp updates are touched. Moving to a unique key the user already holds fails
// with ErrAlreadyExists.
func (r *Repo[R]) Update(ctx context.Context, user string, id int64, rec R) error {
	current, err := r.Get(ctx, user, id)
	if err != nil {
		return err
	}

	oldKey, newKey := current.UniqueKey(), rec.UniqueKey()
	var claimed string
	if newKey != "" && newKey != oldKey {
		claimed = r.idxKey(user, newKey)
		if err := r.claim(ctx, user, claimed, id); err != nil {
			return err
		}
	}

	rec.SetIdentity(id, user, current.SortTime())
	if t, ok := any(rec).(tracking.Toucher); ok {
		t.Touch(r.now().UTC())
	}
	if err := r.put(ctx, rec); err != nil {
		if claimed != "" {
			_ = r.store.Del(ctx, claimed)
		}
		return err
	}

	if oldKey != "" && oldKey != newKey {
		if err := r.store.Del(ctx, r.idxKey(user, oldKey)); err != nil {
			return fmt.Errorf("release %s unique key: %w", r.kind, err)
		}
	}
	return nil
}

// Delete removes a record and releases its unique key.
func (r *Repo[R]) Delete(ctx context.Context, user string, id int64) error {
	current, err := r.Get(ctx, user, id)
	if err != nil {
		return err
	}
	keys := []string{r.key(user, id)}
	if uk := current.UniqueKey(); uk != "" {
		keys = append(keys, r.idxKey(user, uk))
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("del %s %d: %w", r.kind, id, err)
	}
	return nil
}

// claim points idxKey at id, whose record must already be stored. A key left
// behind by a record that no longer exists is swapped over atomically.
func (r *Repo[R]) claim(ctx context.Context, user, idxKey string, id int64) error {
	value := []byte(strconv.FormatInt(id, 10))
	for range maxClaimAttempts {
		ok, err := r.store.SetNX(ctx, idxKey, value)
		if err != nil {
			return fmt.Errorf("claim %s: %w", idxKey, err)
		}
		if ok {
			return nil
		}

		holder, err := r.store.Get(ctx, idxKey)
		if errors.Is(err, db.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", idxKey, err)
		}
		if bytes.Equal(holder, value) {
			return nil
		}
		if holderID, perr := strconv.ParseInt(string(holder), 10, 64); perr == nil {
			exists, err := r.store.Exists(ctx, r.key(user, holderID))
			if err != nil {
				return fmt.Errorf("check exists %s %d: %w", r.kind, holderID, err)
			}
			if exists {
				return fmt.Errorf("%s: %w", r.kind, domain.ErrAlreadyExists)
			}
		}

		swapped, err := r.store.CompareAndSwap(ctx, idxKey, holder, value)
		if err != nil {
			return fmt.Errorf("take over %s: %w", idxKey, err)
		}
		if swapped {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", r.kind, domain.ErrAlreadyExists)
}

func (r *Repo[R]) put(ctx context.Context, rec R) error {
	key := r.key(rec.Owner(), rec.RecordID())
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", r.kind, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *Repo[R]) decode(key string, raw []byte) (R, error) {
	rec := r.newFn()
	if err := json.Unmarshal(raw, rec); err != nil {
		var zero R
		return zero, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return rec, nil
}

func (r *Repo[R]) key(user string, id int64) string {
	return fmt.Sprintf("%s%s:%s:%d", r.prefix, r.kind, user, id)
}

func (r *Repo[R]) idxKey(user, uniqueKey string) string {
	return fmt.Sprintf("%s%s_idx:%s:%s", r.prefix, r.kind, user, uniqueKey)
}

func (r *Repo[R]) seqKey() string {
	return r.prefix + "seq:" + string(r.kind)
}

// escapeGlob quotes the characters SCAN MATCH treats as wildcards.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
