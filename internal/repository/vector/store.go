package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nutriplate/nutriplate/internal/domain"
)

// Store is the in-memory knowledge base: an exact L2 index plus the documents
// it points to. Readers never observe a partially applied Add.
type Store struct {
	embedder domain.Embedder
	dim      int

	mu    sync.RWMutex
	index *Index
	docs  *DocStore

	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc overrides document id generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates a store. dim <= 0 infers the dimension from the first Add.
func New(embedder domain.Embedder, dim int, opts ...Option) *Store {
	s := &Store{
		embedder: embedder,
		dim:      dim,
		index:    NewIndex(dim),
		docs:     NewDocStore(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add embeds texts and appends them as new documents.
// Embedding happens before the write lock; all documents land together or none do.
// Duplicates are stored again.
func (s *Store) Add(ctx context.Context, texts []string) ([]domain.Document, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	res, err := domain.EmbedAll(ctx, s.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d texts: %w",
			len(res.Embeddings), len(texts), domain.ErrModelUnavailable)
	}

	docs := make([]domain.Document, len(texts))
	for i, text := range texts {
		docs[i] = domain.Document{ID: s.newID(), Content: text, Vector: res.Embeddings[i]}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Check(res.Embeddings); err != nil {
		return nil, fmt.Errorf("add documents: %w", err)
	}
	s.index.Add(res.Embeddings)
	s.docs.add(docs)

	return docs, nil
}

// Search returns up to k documents nearest to query.
func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidInput)
	}
	if s.Len() == 0 {
		return []domain.Match{}, nil
	}

	res, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.index.Search(res.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	matches := make([]domain.Match, len(hits))
	for i, h := range hits {
		doc := s.docs.at(h.pos)
		matches[i] = domain.Match{ID: doc.ID, Content: doc.Content, Distance: h.distance}
	}
	return matches, nil
}

// Get returns a stored document by id.
func (s *Store) Get(id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.Get(id)
}

// Len returns the number of documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.Len()
}

// Reset empties the knowledge base.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index.Reset(s.dim)
	s.docs.reset()
}
