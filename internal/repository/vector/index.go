package vector

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/nutriplate/nutriplate/internal/domain"
)

// Index is an exact flat L2 index. Vectors are addressed by insertion position.
// Not safe for concurrent use; Store serializes access.
type Index struct {
	dim     int
	vectors [][]float32
}

// hit is a position in the index with its distance to the query.
type hit struct {
	pos      int
	distance float32
}

// NewIndex creates an index for vectors of the given dimension.
// dim <= 0 fixes the dimension on the first Add.
func NewIndex(dim int) *Index {
	return &Index{dim: dim}
}

// Dim returns the vector dimension, 0 if not yet known.
func (x *Index) Dim() int { return x.dim }

// Len returns the number of stored vectors.
func (x *Index) Len() int { return len(x.vectors) }

// Check validates vectors against the index dimension without storing them.
func (x *Index) Check(vectors [][]float32) error {
	dim := x.dim
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("vector %d is empty: %w", i, domain.ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("vector %d has %d dims, want %d: %w", i, len(v), dim, domain.ErrDimensionMismatch)
		}
	}
	return nil
}

// Add appends vectors. Callers must Check first; Add does not roll back.
func (x *Index) Add(vectors [][]float32) {
	for _, v := range vectors {
		if x.dim == 0 {
			x.dim = len(v)
		}
		x.vectors = append(x.vectors, v)
	}
}

// Search returns up to k nearest positions, ascending by distance.
// Equal distances keep insertion order.
func (x *Index) Search(q []float32, k int) ([]hit, error) {
	if len(x.vectors) == 0 {
		return []hit{}, nil
	}
	if len(q) != x.dim {
		return nil, fmt.Errorf("query has %d dims, want %d: %w", len(q), x.dim, domain.ErrDimensionMismatch)
	}

	hits := make([]hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = hit{pos: i, distance: squaredL2(q, v)}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Compare(a.distance, b.distance)
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Reset drops all vectors and forgets the inferred dimension.
func (x *Index) Reset(dim int) {
	x.dim = dim
	x.vectors = nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
