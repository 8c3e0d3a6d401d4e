package chi

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/domain/recipe"
	"github.com/nutriplate/nutriplate/internal/domain/tracking"
	healthuc "github.com/nutriplate/nutriplate/internal/usecase/health"
)

// letterEmbedder maps text to a 26-dim letter histogram.
type letterEmbedder struct{}

func (letterEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

// stubText records prompts and returns a canned reply.
type stubText struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *stubText) GenerateText(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

// mockAssistant implements Assistant with function fields.
type mockAssistant struct {
	askFn    func(ctx context.Context, message string) (string, error)
	addFn    func(ctx context.Context, docs []string) (int, int, error)
	searchFn func(ctx context.Context, query string, k int) ([]domain.Match, error)
	docFn    func(ctx context.Context, id string) (domain.Document, error)
}

func (m *mockAssistant) Ask(ctx context.Context, message string) (string, error) {
	if m.askFn != nil {
		return m.askFn(ctx, message)
	}
	return "ok", nil
}

func (m *mockAssistant) AddDocuments(ctx context.Context, docs []string) (int, int, error) {
	if m.addFn != nil {
		return m.addFn(ctx, docs)
	}
	return len(docs), len(docs), nil
}

func (m *mockAssistant) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, k)
	}
	return []domain.Match{}, nil
}

func (m *mockAssistant) Document(ctx context.Context, id string) (domain.Document, error) {
	if m.docFn != nil {
		return m.docFn(ctx, id)
	}
	return domain.Document{}, domain.ErrNotFound
}

// mockGenerator implements RecipeGenerator with function fields.
type mockGenerator struct {
	imageFn func(ctx context.Context, image []byte, pref string) (recipe.Result, error)
	textFn  func(ctx context.Context, request, pref string) (recipe.Result, error)
}

func (m *mockGenerator) FromImage(ctx context.Context, image []byte, pref string) (recipe.Result, error) {
	if m.imageFn != nil {
		return m.imageFn(ctx, image, pref)
	}
	return recipe.Coerce("", pref), nil
}

func (m *mockGenerator) FromText(ctx context.Context, request, pref string) (recipe.Result, error) {
	if m.textFn != nil {
		return m.textFn(ctx, request, pref)
	}
	return recipe.Coerce("", pref), nil
}

// mockCatalog implements Catalog with function fields.
type mockCatalog struct {
	createFn func(ctx context.Context, rec *recipe.Recipe) error
	getFn    func(ctx context.Context, id string) (recipe.Recipe, error)
	listFn   func(ctx context.Context, q recipe.Query) ([]recipe.Recipe, string, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockCatalog) Create(ctx context.Context, rec *recipe.Recipe) error {
	if m.createFn != nil {
		return m.createFn(ctx, rec)
	}
	rec.ID = "1"
	return nil
}

func (m *mockCatalog) Get(ctx context.Context, id string) (recipe.Recipe, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return recipe.Recipe{ID: id, Title: "Soup"}, nil
}

func (m *mockCatalog) Update(_ context.Context, id string, rec *recipe.Recipe) error {
	rec.ID = id
	return nil
}

func (m *mockCatalog) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCatalog) List(ctx context.Context, q recipe.Query) ([]recipe.Recipe, string, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return []recipe.Recipe{}, "", nil
}

// mockFavorites is an in-memory RecordService for favorites.
type mockFavorites struct {
	mu    sync.Mutex
	items []*tracking.Favorite
	users []string
	err   error
}

func (m *mockFavorites) List(ctx context.Context) ([]*tracking.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, domain.UserFromContext(ctx))
	return m.items, m.err
}

func (m *mockFavorites) Create(ctx context.Context, rec *tracking.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	rec.ID = int64(len(m.items) + 1)
	rec.User = domain.UserFromContext(ctx)
	m.items = append(m.items, rec)
	return nil
}

func (m *mockFavorites) Get(_ context.Context, id int64) (*tracking.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.items {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockFavorites) Update(_ context.Context, id int64, rec *tracking.Favorite) error {
	rec.ID = id
	return m.err
}

func (m *mockFavorites) Delete(_ context.Context, _ int64) error {
	return m.err
}

type stubHealth struct {
	report healthuc.Report
}

func (h stubHealth) Check(context.Context) healthuc.Report { return h.report }

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	return NewServer(deps, zap.NewNop())
}
