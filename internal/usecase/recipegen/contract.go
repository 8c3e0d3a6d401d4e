package recipegen

import (
	"context"

	"github.com/nutriplate/nutriplate/internal/domain"
)

// VisionGenerator turns an image and prompt into model text.
type VisionGenerator interface {
	GenerateFromImage(ctx context.Context, prompt string, image []byte, opts domain.GenerateOptions) (string, error)
}

// TextGenerator turns a prompt into model text.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ContextRetriever returns knowledge base passages relevant to a query.
type ContextRetriever interface {
	Context(ctx context.Context, query string) ([]string, error)
}

// RecipeCounter reports how many recipes the catalog holds.
type RecipeCounter interface {
	Count(ctx context.Context) (int, error)
}
