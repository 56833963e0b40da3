package vector

import (
	"sort"
	"strings"
	"sync"
)

// Metadata keys written by NewCatalogStore.
const (
	MetaGenre  = "genre"
	MetaLayout = "layout"
	MetaTags   = "tags"
)

type SearchResult struct {
	ID       string
	Score    float64
	Vector   FeatureVector
	Metadata map[string]string
}

// Filter is applied to an entry before it is scored.
type Filter func(id string, meta map[string]string) bool

type entry struct {
	id     string
	vector FeatureVector
	meta   map[string]string
}

// Store is an in-memory nearest-neighbour index.
//
// Search is a linear scan over every entry. That is fine for catalogs of a
// few dozen modules; anything in the thousands needs a real ANN index
// behind the same method set.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int
}

func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// NewCatalogStore builds a store holding every module of Catalog().
func NewCatalogStore() *Store {
	s := NewStore()
	for _, m := range Catalog() {
		s.Add(m.Key(), m.Vector, map[string]string{
			MetaGenre:  m.Genre,
			MetaLayout: m.Layout,
			MetaTags:   strings.Join(m.Tags, ","),
		})
	}
	return s
}

// Add inserts or replaces a vector. Vectors are normalized on the way in.
// Replacing keeps the original insertion position.
func (s *Store) Add(id string, v FeatureVector, meta map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{id: id, vector: Normalize(v), meta: copyMeta(meta)}
	if i, ok := s.index[id]; ok {
		s.entries[i] = e
		return
	}
	s.index[id] = len(s.entries)
	s.entries = append(s.entries, e)
}

func (s *Store) Get(id string) (FeatureVector, map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return FeatureVector{}, nil, false
	}
	e := s.entries[i]
	return e.vector, copyMeta(e.meta), true
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].id] = j
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Search returns up to topK entries by descending cosine similarity to
// query. Equal scores keep insertion order. topK <= 0 returns every match.
func (s *Store) Search(query FeatureVector, topK int, filter Filter) []SearchResult {
	q := Normalize(query)

	s.mu.RLock()
	results := make([]SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		if filter != nil && !filter(e.id, e.meta) {
			continue
		}
		results = append(results, SearchResult{
			ID:       e.id,
			Score:    Dot(q, e.vector),
			Vector:   e.vector,
			Metadata: copyMeta(e.meta),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// SearchByLayout restricts Search to modules of one layout. Slot names such
// as "hero" are translated with LayoutForSlot.
func (s *Store) SearchByLayout(query FeatureVector, slotOrLayout string, topK int) []SearchResult {
	want := LayoutForSlot(slotOrLayout)
	return s.Search(query, topK, func(_ string, meta map[string]string) bool {
		return meta[MetaLayout] == want
	})
}

func copyMeta(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
