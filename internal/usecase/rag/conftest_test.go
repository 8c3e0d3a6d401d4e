package rag

import (
	"context"
	"strings"
	"sync"

	"github.com/nutriplate/nutriplate/internal/domain"
)

// letterEmbedder maps text to a 26-dim letter histogram.
type letterEmbedder struct {
	mu    sync.Mutex
	fails int
	calls int
}

func (e *letterEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.fails > 0 {
		e.fails--
		return domain.EmbeddingResult{}, domain.ErrModelUnavailable
	}
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

// stubGenerator records prompts and returns a canned reply.
type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

// mockKB is a function-field knowledge base.
type mockKB struct {
	addFn    func(ctx context.Context, texts []string) ([]domain.Document, error)
	searchFn func(ctx context.Context, query string, k int) ([]domain.Match, error)
	docs     map[string]domain.Document
	n        int
}

func (m *mockKB) Add(ctx context.Context, texts []string) ([]domain.Document, error) {
	if m.addFn != nil {
		return m.addFn(ctx, texts)
	}
	m.n += len(texts)
	return make([]domain.Document, len(texts)), nil
}

func (m *mockKB) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, k)
	}
	return []domain.Match{}, nil
}

func (m *mockKB) Get(id string) (domain.Document, bool) {
	d, ok := m.docs[id]
	return d, ok
}

func (m *mockKB) Len() int { return m.n }
