package memory

import (
	"fmt"
	"math"
	"sync"

	"github.com/0x5457/corpus-embeddings/internal/models"
)

type item struct {
	doc models.Document
	vec []float32
}

type InMemoryVectorStore struct {
	mu   sync.RWMutex
	data map[string][]item // source -> items
}

func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{data: make(map[string][]item)}
}

func (s *InMemoryVectorStore) Upsert(docs []models.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents and embeddings length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bySource := make(map[string][]item)
	for i, d := range docs {
		bySource[d.Source] = append(bySource[d.Source], item{doc: d, vec: embeddings[i]})
	}
	for source, items := range bySource {
		replaced := make(map[string]struct{}, len(items))
		for _, it := range items {
			replaced[it.doc.ID] = struct{}{}
		}
		var merged []item
		for _, it := range s.data[source] {
			if _, ok := replaced[it.doc.ID]; !ok {
				merged = append(merged, it)
			}
		}
		s.data[source] = append(merged, items...)
	}
	return nil
}

func (s *InMemoryVectorStore) DeleteBySource(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, source)
	return nil
}

func (s *InMemoryVectorStore) Query(embedding []float32, topK int) ([]models.SemanticHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type scored struct {
		it    item
		score float32
	}
	var list []scored
	for _, items := range s.data {
		for _, it := range items {
			list = append(list, scored{it: it, score: cosine(it.vec, embedding)})
		}
	}
	if topK > len(list) {
		topK = len(list)
	}
	// selection sort is enough for small K
	for i := 0; i < topK; i++ {
		best := i
		for j := i + 1; j < len(list); j++ {
			if list[j].score > list[best].score {
				best = j
			}
		}
		list[i], list[best] = list[best], list[i]
	}
	hits := make([]models.SemanticHit, 0, topK)
	for i := 0; i < topK; i++ {
		hits = append(hits, models.SemanticHit{Document: list[i].it.doc, Score: list[i].score})
	}
	return hits, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0
	}
	return float32(dot / den)
}
