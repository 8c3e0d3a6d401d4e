package rag

import (
	"context"

	"github.com/nutriplate/nutriplate/internal/domain"
)

// KnowledgeBase stores documents and answers nearest-neighbor queries.
type KnowledgeBase interface {
	Add(ctx context.Context, texts []string) ([]domain.Document, error)
	Search(ctx context.Context, query string, k int) ([]domain.Match, error)
	Get(id string) (domain.Document, bool)
	Len() int
}

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}
