package vector

import "github.com/nutriplate/nutriplate/internal/domain"

// DocStore maps index positions to documents.
// Position i in the index always corresponds to docs[i].
type DocStore struct {
	docs []domain.Document
	byID map[string]int
}

// NewDocStore creates an empty document store.
func NewDocStore() *DocStore {
	return &DocStore{byID: make(map[string]int)}
}

func (d *DocStore) add(docs []domain.Document) {
	for _, doc := range docs {
		d.byID[doc.ID] = len(d.docs)
		d.docs = append(d.docs, doc)
	}
}

func (d *DocStore) at(pos int) domain.Document { return d.docs[pos] }

// Get returns a document by id.
func (d *DocStore) Get(id string) (domain.Document, bool) {
	pos, ok := d.byID[id]
	if !ok {
		return domain.Document{}, false
	}
	return d.docs[pos], true
}

// Len returns the number of stored documents.
func (d *DocStore) Len() int { return len(d.docs) }

func (d *DocStore) reset() {
	d.docs = nil
	d.byID = make(map[string]int)
}
