package vector

import (
	"errors"
	"testing"

	"github.com/nutriplate/nutriplate/internal/domain"
)

func TestIndex_InfersDimension(t *testing.T) {
	x := NewIndex(0)
	vecs := [][]float32{{1, 2, 3}}
	if err := x.Check(vecs); err != nil {
		t.Fatalf("check: %v", err)
	}
	x.Add(vecs)
	if x.Dim() != 3 {
		t.Fatalf("expected dim 3, got %d", x.Dim())
	}
	if err := x.Check([][]float32{{1, 2}}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestIndex_CheckMixedBatch(t *testing.T) {
	x := NewIndex(0)
	err := x.Check([][]float32{{1, 2}, {1, 2, 3}})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestIndex_SearchQueryDimension(t *testing.T) {
	x := NewIndex(2)
	x.Add([][]float32{{0, 0}})
	if _, err := x.Search([]float32{1}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSquaredL2(t *testing.T) {
	if d := squaredL2([]float32{0, 0}, []float32{3, 4}); d != 25 {
		t.Fatalf("expected 25, got %f", d)
	}
}
