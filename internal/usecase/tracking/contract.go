package tracking

import (
	"context"

	domtracking "github.com/nutriplate/nutriplate/internal/domain/tracking"
)

// Repository defines the storage contract for one record kind.
type Repository[R domtracking.Record] interface {
	Create(ctx context.Context, user string, rec R) error
	Get(ctx context.Context, user string, id int64) (R, error)
	List(ctx context.Context, user string, limit int) ([]R, error)
	Update(ctx context.Context, user string, id int64, rec R) error
	Delete(ctx context.Context, user string, id int64) error
}

// RecipeChecker reports whether a catalog recipe exists.
type RecipeChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
