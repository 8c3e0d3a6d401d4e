package recipe

import (
	"cmp"
	"strings"
)

// Orderings accepted by the catalog list.
const (
	OrderCreatedAsc   = "created_at"
	OrderCreatedDesc  = "-created_at"
	OrderCaloriesAsc  = "calories"
	OrderCaloriesDesc = "-calories"
)

// Query filters and orders a catalog listing.
type Query struct {
	Difficulty string
	Search     string
	Ordering   string
	Cursor     string
	Limit      int
}

// Keep reports whether r passes the difficulty filter and the search term.
func (q Query) Keep(r *Recipe) bool {
	if q.Difficulty != "" && r.Difficulty != q.Difficulty {
		return false
	}
	if s := strings.TrimSpace(q.Search); s != "" && !r.Matches(s) {
		return false
	}
	return true
}

// Compare orders two recipes by the query ordering. Unknown orderings fall back to
// newest first. Ties are broken by id so pages are stable.
func (q Query) Compare(a, b *Recipe) int {
	var c int
	switch q.Ordering {
	case OrderCreatedAsc:
		c = a.CreatedAt.Compare(b.CreatedAt)
	case OrderCaloriesAsc:
		c = cmp.Compare(a.Calories, b.Calories)
	case OrderCaloriesDesc:
		c = cmp.Compare(b.Calories, a.Calories)
	default:
		c = b.CreatedAt.Compare(a.CreatedAt)
	}
	if c != 0 {
		return c
	}
	return compareID(a.ID, b.ID)
}

// compareID orders numeric ids numerically and the rest lexically.
func compareID(a, b string) int {
	if len(a) != len(b) {
		return cmp.Compare(len(a), len(b))
	}
	return strings.Compare(a, b)
}
