package vecstore

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"
)

type entry struct {
	id  string
	vec []float32
}

// Memory is an in-memory Index using brute-force cosine distance.
type Memory struct {
	mu      sync.RWMutex
	entries []entry
	pos     map[string]int
}

var _ Index = (*Memory)(nil)

// NewMemory creates a new in-memory vector index.
func NewMemory() *Memory {
	return &Memory{pos: make(map[string]int)}
}

// Insert adds or updates a vector. Updating keeps the original position.
func (m *Memory) Insert(id string, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insert(id, vector)

	return nil
}

func (m *Memory) insert(id string, vector []float32) {
	cp := slices.Clone(vector)

	if i, ok := m.pos[id]; ok {
		m.entries[i].vec = cp
		return
	}

	m.pos[id] = len(m.entries)
	m.entries = append(m.entries, entry{id: id, vec: cp})
}

// BatchInsert adds or updates several vectors.
func (m *Memory) BatchInsert(ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("vecstore: BatchInsert length mismatch: %d ids, %d vectors", len(ids), len(vectors))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range ids {
		m.insert(id, vectors[i])
	}

	return nil
}

// Search ranks every stored vector by cosine distance to query.
func (m *Memory) Search(query []float32, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 || topK <= 0 {
		return nil, nil
	}

	matches := make([]Match, len(m.entries))
	for i, e := range m.entries {
		matches[i] = Match{ID: e.id, Distance: CosineDistance(query, e.vec)}
	}

	slices.SortStableFunc(matches, func(a, b Match) int { return cmp.Compare(a.Distance, b.Distance) })

	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

// Delete removes a vector by ID.
func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.pos[id]
	if !ok {
		return nil
	}

	m.entries = slices.Delete(m.entries, i, i+1)
	delete(m.pos, id)

	for j := i; j < len(m.entries); j++ {
		m.pos[m.entries[j].id] = j
	}

	return nil
}

// Len returns the number of stored vectors.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// CosineDistance computes 1 - cosine similarity, in [0, 2]. Mismatched
// dimensions and zero vectors yield the maximum distance.
func CosineDistance(a, b []float32) float32 {
	if len(a) != len(b) {
		return 2
	}

	var dot, normA, normB float64

	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 2
	}

	similarity := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	similarity = max(-1, min(1, similarity))

	return float32(1 - similarity)
}
