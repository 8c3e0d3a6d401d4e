// Package catalog manages the persisted recipe catalog.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/domain/recipe"
)

// Service handles recipe CRUD and listing.
type Service struct {
	repo            Repository
	defaultPageSize int
	maxPageSize     int
}

// New creates a catalog service.
func New(repo Repository) *Service {
	return &Service{repo: repo, defaultPageSize: 20, maxPageSize: 100}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Create validates and stores a new recipe.
func (s *Service) Create(ctx context.Context, rec *recipe.Recipe) error {
	if err := prepare(rec); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}
	return nil
}

// Get returns a recipe by id.
func (s *Service) Get(ctx context.Context, id string) (recipe.Recipe, error) {
	if err := checkID(id); err != nil {
		return recipe.Recipe{}, err
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("get recipe: %w", err)
	}
	return rec, nil
}

// Update validates and replaces a recipe.
func (s *Service) Update(ctx context.Context, id string, rec *recipe.Recipe) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := prepare(rec); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, rec); err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	return nil
}

// Delete removes a recipe. Favorites and history entries referring to it are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

// Exists reports whether the catalog holds a recipe with the numeric id.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.Exists(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		return false, fmt.Errorf("check recipe: %w", err)
	}
	return ok, nil
}

// Count returns the number of catalog recipes.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return n, nil
}

// List returns a page of recipes matching q.
func (s *Service) List(ctx context.Context, q recipe.Query) ([]recipe.Recipe, string, error) {
	switch {
	case q.Limit <= 0:
		q.Limit = s.defaultPageSize
	case q.Limit > s.maxPageSize:
		q.Limit = s.maxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)

	recs, next, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, "", fmt.Errorf("list recipes: %w", err)
	}
	return recs, next, nil
}

func prepare(rec *recipe.Recipe) error {
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

func checkID(id string) error {
	if n, err := strconv.ParseInt(id, 10, 64); err != nil || n <= 0 {
		return fmt.Errorf("recipe id %q: %w", id, domain.ErrNotFound)
	}
	return nil
}
