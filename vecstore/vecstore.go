// Package vecstore provides nearest-neighbour search over dense float32
// vectors. [Memory] is a brute-force cosine index that is exact and keeps
// insertion order, which makes results reproducible: equal distances are
// ranked by the order vectors were first inserted.
package vecstore

// Index is the interface for nearest-neighbour search. Implementations
// must be safe for concurrent use.
type Index interface {
	// Insert adds or updates a vector with the given ID.
	Insert(id string, vector []float32) error

	// BatchInsert adds or updates multiple vectors at once.
	// ids and vectors must have the same length.
	BatchInsert(ids []string, vectors [][]float32) error

	// Search returns the top-k nearest vectors to the query, closest first.
	Search(query []float32, topK int) ([]Match, error)

	// Delete removes a vector by ID. No error if ID does not exist.
	Delete(id string) error

	// Len returns the number of vectors in the index.
	Len() int

	// Close releases resources held by the index.
	Close() error
}

// Match is a single search result.
type Match struct {
	ID string

	// Distance is the cosine distance in [0, 2]; lower is closer.
	Distance float32
}

// Similarity converts the distance back to cosine similarity.
func (m Match) Similarity() float32 { return 1 - m.Distance }
