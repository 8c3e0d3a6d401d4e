package domain

// Document is a knowledge-base entry: text plus its embedding.
// Documents are immutable once added.
type Document struct {
	ID      string
	Content string
	Vector  []float32
}

// Match is a single nearest-neighbor hit.
// Distance is the squared L2 distance between the query and document vectors.
type Match struct {
	ID       string
	Content  string
	Distance float32
}
