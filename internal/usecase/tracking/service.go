// Package tracking serves user-owned records. Every operation is scoped to the
// user carried by the request context.
package tracking

import (
	"context"
	"fmt"

	"github.com/nutriplate/nutriplate/internal/domain"
	domtracking "github.com/nutriplate/nutriplate/internal/domain/tracking"
)

// HistoryLimit is the number of history entries returned by List.
const HistoryLimit = 20

// Service handles CRUD for one record kind.
type Service[R domtracking.Record] struct {
	repo      Repository[R]
	recipes   RecipeChecker
	kind      domtracking.Kind
	listLimit int
}

// New creates a tracking service. recipes may be nil to skip the reference check.
func New[R domtracking.Record](kind domtracking.Kind, repo Repository[R], recipes RecipeChecker) *Service[R] {
	s := &Service[R]{repo: repo, recipes: recipes, kind: kind}
	if kind == domtracking.KindHistory {
		s.listLimit = HistoryLimit
	}
	return s
}

// WithListLimit caps the number of records returned by List. 0 returns all.
func (s *Service[R]) WithListLimit(n int) *Service[R] {
	if n >= 0 {
		s.listLimit = n
	}
	return s
}

// Kind returns the served record kind.
func (s *Service[R]) Kind() domtracking.Kind { return s.kind }

// List returns the caller's records newest first.
func (s *Service[R]) List(ctx context.Context) ([]R, error) {
	recs, err := s.repo.List(ctx, domain.UserFromContext(ctx), s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind, err)
	}
	return recs, nil
}

// Create validates and stores a record owned by the caller.
func (s *Service[R]) Create(ctx context.Context, rec R) error {
	if err := s.check(ctx, rec); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, domain.UserFromContext(ctx), rec); err != nil {
		return fmt.Errorf("create %s: %w", s.kind, err)
	}
	return nil
}

// Get returns one of the caller's records.
func (s *Service[R]) Get(ctx context.Context, id int64) (R, error) {
	rec, err := s.repo.Get(ctx, domain.UserFromContext(ctx), id)
	if err != nil {
		var zero R
		return zero, fmt.Errorf("get %s: %w", s.kind, err)
	}
	return rec, nil
}

// Update validates and replaces one of the caller's records.
func (s *Service[R]) Update(ctx context.Context, id int64, rec R) error {
	if err := s.check(ctx, rec); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, domain.UserFromContext(ctx), id, rec); err != nil {
		return fmt.Errorf("update %s: %w", s.kind, err)
	}
	return nil
}

// Delete removes one of the caller's records.
func (s *Service[R]) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, domain.UserFromContext(ctx), id); err != nil {
		return fmt.Errorf("delete %s: %w", s.kind, err)
	}
	return nil
}

func (s *Service[R]) check(ctx context.Context, rec R) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%s: %w: %w", s.kind, domain.ErrInvalidInput, err)
	}
	ref, ok := any(rec).(domtracking.RecipeReferrer)
	if !ok || s.recipes == nil {
		return nil
	}
	exists, err := s.recipes.Exists(ctx, ref.RecipeRef())
	if err != nil {
		return fmt.Errorf("check recipe %d: %w", ref.RecipeRef(), err)
	}
	if !exists {
		return fmt.Errorf("recipe %d: %w", ref.RecipeRef(), domain.ErrNotFound)
	}
	return nil
}
