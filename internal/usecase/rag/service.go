package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/nutriplate/nutriplate/internal/domain"
	"github.com/nutriplate/nutriplate/internal/logger"
	"github.com/nutriplate/nutriplate/internal/metrics"
)

// DefaultTopK is the number of context documents retrieved per question.
const DefaultTopK = 3

// Service answers questions grounded in the knowledge base.
type Service struct {
	kb     KnowledgeBase
	gen    TextGenerator
	topK   int
	maxK   int
	logger *zap.Logger
}

// New creates a RAG service. topK <= 0 uses DefaultTopK.
func New(kb KnowledgeBase, gen TextGenerator, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{kb: kb, gen: gen, topK: topK, maxK: 100, logger: logger}
}

// WithMaxK caps k accepted by Search.
func (s *Service) WithMaxK(maxK int) *Service {
	if maxK > 0 {
		s.maxK = maxK
	}
	return s
}

// AddDocuments appends documents to the knowledge base and returns the new total.
func (s *Service) AddDocuments(ctx context.Context, docs []string) (added, total int, err error) {
	if len(docs) == 0 {
		return 0, s.kb.Len(), fmt.Errorf("documents: %w", domain.ErrInputMissing)
	}
	for i, d := range docs {
		if strings.TrimSpace(d) == "" {
			return 0, s.kb.Len(), fmt.Errorf("document %d is empty: %w", i, domain.ErrInvalidInput)
		}
	}

	stored, err := s.kb.Add(ctx, docs)
	if err != nil {
		return 0, s.kb.Len(), fmt.Errorf("add documents: %w", err)
	}

	total = s.kb.Len()
	metrics.KnowledgeDocuments.Set(float64(total))
	logger.FromContext(ctx).Info("Knowledge base extended",
		zap.Int("added", len(stored)),
		zap.Int("total", total),
	)
	return len(stored), total, nil
}

// Search returns the k nearest documents to query. k <= 0 uses the service default.
func (s *Service) Search(ctx context.Context, query string, k int) ([]domain.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query: %w", domain.ErrInputMissing)
	}
	if k <= 0 {
		k = s.topK
	}
	if k > s.maxK {
		return nil, fmt.Errorf("k must be at most %d: %w", s.maxK, domain.ErrInvalidInput)
	}

	matches, err := s.kb.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("search knowledge base: %w", err)
	}
	return matches, nil
}

// Document returns a knowledge base document by id.
func (s *Service) Document(_ context.Context, id string) (domain.Document, error) {
	doc, ok := s.kb.Get(id)
	if !ok {
		return domain.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return doc, nil
}

// Context retrieves the top-k document texts for query, nearest first.
func (s *Service) Context(ctx context.Context, query string) ([]string, error) {
	matches, err := s.kb.Search(ctx, query, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	docs := make([]string, len(matches))
	for i, m := range matches {
		docs[i] = m.Content
	}
	return docs, nil
}

// Ask retrieves context for query and returns the model's raw answer.
func (s *Service) Ask(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("message: %w", domain.ErrInputMissing)
	}

	docs, err := s.Context(ctx, query)
	if err != nil {
		return "", err
	}

	reply, err := s.gen.GenerateText(ctx, BuildPrompt(docs, query))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	logger.FromContext(ctx).Debug("Question answered",
		zap.Int("context_docs", len(docs)),
		zap.Int("reply_len", len(reply)),
	)
	return reply, nil
}

// Seed loads docs into an empty knowledge base, retrying with b while the
// embedding model is unavailable. A non-empty knowledge base is left untouched.
func (s *Service) Seed(ctx context.Context, docs []string, b backoff.BackOff) error {
	if len(docs) == 0 {
		return nil
	}

	attempt := 0
	operation := func() error {
		attempt++
		if s.kb.Len() > 0 {
			return nil
		}
		_, err := s.kb.Add(ctx, docs)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrModelUnavailable) {
			return backoff.Permanent(err)
		}
		s.logger.Warn("Knowledge base seeding failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("seed knowledge base: %w", err)
	}

	metrics.KnowledgeDocuments.Set(float64(s.kb.Len()))
	s.logger.Info("Knowledge base seeded", zap.Int("documents", s.kb.Len()))
	return nil
}
