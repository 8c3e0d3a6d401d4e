package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nutriplate/nutriplate/internal/domain"
)

var healthDocs = []string{
	"Walking 30 minutes daily improves cardiovascular health.",
	"Eating vegetables and fruits reduces the risk of chronic diseases.",
	"Good sleep (7-8 hours) improves focus and reduces stress.",
}

func TestSearch_ExactTextHasZeroDistance(t *testing.T) {
	s := New(&letterEmbedder{}, 0)
	ctx := context.Background()

	if _, err := s.Add(ctx, healthDocs); err != nil {
		t.Fatalf("add: %v", err)
	}

	for _, doc := range healthDocs {
		matches, err := s.Search(ctx, doc, 3)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(matches) == 0 {
			t.Fatalf("no matches for %q", doc)
		}
		if matches[0].Content != doc {
			t.Errorf("top match for %q is %q", doc, matches[0].Content)
		}
		if matches[0].Distance > 1e-6 {
			t.Errorf("expected ~0 distance, got %f", matches[0].Distance)
		}
	}
}

func TestSearch_FewerThanKReturnsAllAscending(t *testing.T) {
	s := New(&letterEmbedder{}, 0)
	ctx := context.Background()

	if _, err := s.Add(ctx, healthDocs); err != nil {
		t.Fatalf("add: %v", err)
	}

	matches, err := s.Search(ctx, "sleep and stress", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != len(healthDocs) {
		t.Fatalf("expected %d matches, got %d", len(healthDocs), len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Distance < matches[i-1].Distance {
			t.Errorf("matches not ascending at %d: %f < %f", i, matches[i].Distance, matches[i-1].Distance)
		}
	}
}

func TestSearch_TruncatesToK(t *testing.T) {
	s := New(&letterEmbedder{}, 0)
	ctx := context.Background()

	if _, err := s.Add(ctx, healthDocs); err != nil {
		t.Fatalf("add: %v", err)
	}

	matches, err := s.Search(ctx, "walking", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	emb := &letterEmbedder{}
	s := New(emb, 0)

	matches, err := s.Search(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", matches)
	}
	if emb.calls.Load() != 0 {
		t.Errorf("empty index should not embed the query")
	}
}

func TestSearch_InvalidK(t *testing.T) {
	s := New(&letterEmbedder{}, 0)

	for _, k := range []int{0, -1} {
		_, err := s.Search(context.Background(), "q", k)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("k=%d: expected ErrInvalidInput, got %v", k, err)
		}
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	emb := fixedEmbedder{
		"first":  {1, 0},
		"second": {0, 1},
		"third":  {-1, 0},
		"query":  {0, 0},
	}
	s := New(emb, 2, seqIDs())
	ctx := context.Background()

	if _, err := s.Add(ctx, []string{"first", "second", "third"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	matches, err := s.Search(ctx, "query", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"doc-1", "doc-2", "doc-3"}
	for i, m := range matches {
		if m.ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, m.ID, want[i])
		}
		if m.Distance != 1 {
			t.Errorf("position %d: expected squared distance 1, got %f", i, m.Distance)
		}
	}
}

func TestAdd_DuplicatesAreKept(t *testing.T) {
	s := New(&letterEmbedder{}, 0)
	ctx := context.Background()

	for range 2 {
		if _, err := s.Add(ctx, healthDocs[:1]); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 documents, got %d", s.Len())
	}
}

func TestAdd_Empty(t *testing.T) {
	emb := &letterEmbedder{}
	s := New(emb, 0)

	docs, err := s.Add(context.Background(), nil)
	if err != nil || docs != nil {
		t.Fatalf("expected no-op, got %v, %v", docs, err)
	}
	if emb.calls.Load() != 0 {
		t.Error("empty add should not call the embedder")
	}
}

func TestAdd_DimensionMismatch(t *testing.T) {
	s := New(&letterEmbedder{}, 384)

	_, err := s.Add(context.Background(), []string{"short vector"})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("failed add must not store anything, len=%d", s.Len())
	}
}

func TestAdd_EmbedderError(t *testing.T) {
	s := New(&letterEmbedder{err: domain.ErrModelUnavailable}, 0)

	_, err := s.Add(context.Background(), []string{"x"})
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestGetAndReset(t *testing.T) {
	s := New(&letterEmbedder{}, 0, seqIDs())
	ctx := context.Background()

	if _, err := s.Add(ctx, healthDocs); err != nil {
		t.Fatalf("add: %v", err)
	}
	doc, ok := s.Get("doc-2")
	if !ok || doc.Content != healthDocs[1] {
		t.Fatalf("unexpected doc: %+v, %v", doc, ok)
	}

	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("expected empty store after reset, got %d", s.Len())
	}
	if _, ok := s.Get("doc-2"); ok {
		t.Fatal("document survived reset")
	}
}

func TestConcurrentAddAndSearch(t *testing.T) {
	s := New(&letterEmbedder{}, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			batch := []string{fmt.Sprintf("doc %d a", i), fmt.Sprintf("doc %d b", i)}
			if _, err := s.Add(ctx, batch); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			matches, err := s.Search(ctx, "doc", 5)
			if err != nil {
				t.Errorf("search: %v", err)
				return
			}
			// Adds come in pairs, so a consistent snapshot never has an odd count below k.
			if len(matches) < 5 && len(matches)%2 != 0 {
				t.Errorf("observed partial add: %d matches", len(matches))
			}
		}()
	}
	wg.Wait()

	if s.Len() != 16 {
		t.Fatalf("expected 16 documents, got %d", s.Len())
	}
}
