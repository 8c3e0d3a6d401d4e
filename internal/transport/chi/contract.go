package chi

import (
	"context"

	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/domain/recipe"
	"github.com/nutriplate/nutriplate/internal/domain/tracking"
	healthuc "github.com/nutriplate/nutriplate/internal/usecase/health"
)

// Assistant answers chat messages and manages the knowledge base.
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
	AddDocuments(ctx context.Context, docs []string) (added, total int, err error)
	Search(ctx context.Context, query string, k int) ([]domain.Match, error)
	Document(ctx context.Context, id string) (domain.Document, error)
}

// RecipeGenerator builds recipes with the generative model.
type RecipeGenerator interface {
	FromImage(ctx context.Context, image []byte, dietaryPreference string) (recipe.Result, error)
	FromText(ctx context.Context, request, dietaryPreference string) (recipe.Result, error)
}

// Catalog manages persisted recipes.
type Catalog interface {
	Create(ctx context.Context, rec *recipe.Recipe) error
	Get(ctx context.Context, id string) (recipe.Recipe, error)
	Update(ctx context.Context, id string, rec *recipe.Recipe) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q recipe.Query) ([]recipe.Recipe, string, error)
}

// RecordService manages one kind of user-owned record.
type RecordService[R tracking.Record] interface {
	List(ctx context.Context) ([]R, error)
	Create(ctx context.Context, rec R) error
	Get(ctx context.Context, id int64) (R, error)
	Update(ctx context.Context, id int64, rec R) error
	Delete(ctx context.Context, id int64) error
}

// HealthReporter aggregates component health.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}
