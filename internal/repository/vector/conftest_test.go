package vector

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/nutriplate/nutriplate/internal/domain"
)

// letterEmbedder maps text to a 26-dim letter histogram. Deterministic and
// good enough to make similar sentences land close together.
type letterEmbedder struct {
	calls atomic.Int64
	err   error
}

func (e *letterEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls.Add(1)
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: histogram(text)}, nil
}

func histogram(text string) []float32 {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

// fixedEmbedder returns vectors from a lookup table.
type fixedEmbedder map[string][]float32

func (e fixedEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	v, ok := e[text]
	if !ok {
		return domain.EmbeddingResult{}, fmt.Errorf("no vector for %q", text)
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

func seqIDs() Option {
	var n int
	return WithIDFunc(func() string {
		n++
		return fmt.Sprintf("doc-%d", n)
	})
}
