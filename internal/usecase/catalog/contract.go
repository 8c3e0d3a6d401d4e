package catalog

import (
	"context"

	"github.com/nutriplate/nutriplate/internal/domain/recipe"
)

// Repository defines the storage contract for catalog recipes.
type Repository interface {
	Create(ctx context.Context, rec *recipe.Recipe) error
	Get(ctx context.Context, id string) (recipe.Recipe, error)
	Update(ctx context.Context, id string, rec *recipe.Recipe) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, q recipe.Query) (recs []recipe.Recipe, nextCursor string, err error)
}
