// Package vectorindex persists chunk embeddings in a bbolt database and
// answers cosine-similarity queries. The in-memory search structure is
// tiered by corpus size: brute-force scan for small corpora, an HNSW
// graph for medium ones, an IVF clustered index above that. The tier is
// a configuration knob, not hidden magic, and switching tiers is
// invisible to callers.
package vectorindex

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"docfind/internal/domain"
	"docfind/internal/port"
)

var _ port.VectorIndex = (*BoltIndex)(nil)

// formatVersion is bumped on breaking changes to the storage layout.
const formatVersion = 1

var (
	bucketVectors = []byte("vectors")
	bucketSchema  = []byte("schema")
	keySchema     = []byte("info")
)

// Tuning holds the search-structure knobs. Zero values fall back to the
// defaults below.
type Tuning struct {
	// FlatMaxVectors is the corpus size up to which brute-force scan is
	// used. GraphMaxVectors is the size up to which the HNSW graph is
	// used; above it the IVF index takes over.
	FlatMaxVectors  int
	GraphMaxVectors int
	HNSWM           int
	HNSWEfSearch    int
	IVFNProbe       int
}

func (t Tuning) withDefaults() Tuning {
	if t.FlatMaxVectors <= 0 {
		t.FlatMaxVectors = 1000
	}
	if t.GraphMaxVectors <= t.FlatMaxVectors {
		t.GraphMaxVectors = 10000
	}
	if t.HNSWM <= 0 {
		t.HNSWM = 16
	}
	if t.HNSWEfSearch <= 0 {
		t.HNSWEfSearch = 64
	}
	if t.IVFNProbe <= 0 {
		t.IVFNProbe = 8
	}
	return t
}

type entry struct {
	norm     []float32 // unit-length copy used for all similarity math
	text     string
	metadata port.Metadata
}

type storedVector struct {
	Vector   []float32     `json:"v"`
	Text     string        `json:"t,omitempty"`
	Metadata port.Metadata `json:"m"`
}

type schemaInfo struct {
	Version   int    `json:"version"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

// searcher answers top-k queries over a fixed snapshot of entries.
type searcher interface {
	search(query []float32, k int) []scoredRef
}

type scoredRef struct {
	id    string
	score float64
}

// BoltIndex is a bbolt-backed vector index with an in-memory search
// structure rebuilt lazily after mutations.
type BoltIndex struct {
	db        *bbolt.DB
	dimension int
	model     string
	tuning    Tuning
	logger    *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry
	cur     searcher
	dirty   bool
}

// Open opens (or creates) the index at path for the given embedding
// dimension and model identifier. An existing index written by a
// different format version, model, or dimension fails with
// domain.ErrIndexSchema instead of returning inconsistent results.
func Open(path string, dimension int, model string, tuning Tuning, logger *slog.Logger) (*BoltIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dimension)
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	idx := &BoltIndex{
		db:        db,
		dimension: dimension,
		model:     model,
		tuning:    tuning.withDefaults(),
		logger:    logger,
		entries:   make(map[string]entry),
		dirty:     true,
	}

	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := idx.loadVectors(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	return idx, nil
}

func (s *BoltIndex) initSchema() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketVectors); err != nil {
			return err
		}
		b, err := tx.CreateBucketIfNotExists(bucketSchema)
		if err != nil {
			return err
		}

		data := b.Get(keySchema)
		if data == nil {
			info := schemaInfo{Version: formatVersion, Model: s.model, Dimension: s.dimension}
			encoded, err := json.Marshal(info)
			if err != nil {
				return err
			}
			return b.Put(keySchema, encoded)
		}

		var info schemaInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return fmt.Errorf("%w: unreadable schema record", domain.ErrIndexSchema)
		}
		if info.Version != formatVersion {
			return fmt.Errorf("%w: format version %d, want %d", domain.ErrIndexSchema, info.Version, formatVersion)
		}
		if info.Model != s.model {
			return fmt.Errorf("%w: indexed with model %q, configured %q", domain.ErrIndexSchema, info.Model, s.model)
		}
		if info.Dimension != s.dimension {
			return fmt.Errorf("%w: indexed with dimension %d, configured %d", domain.ErrIndexSchema, info.Dimension, s.dimension)
		}
		return nil
	})
}

func (s *BoltIndex) loadVectors() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		skipped := 0
		err := b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil || len(stored.Vector) != s.dimension {
				skipped++
				return nil
			}
			s.entries[string(k)] = entry{
				norm:     normalize(stored.Vector),
				text:     stored.Text,
				metadata: stored.Metadata,
			}
			return nil
		})
		if skipped > 0 {
			s.logger.Warn("skipped corrupt vector entries", "count", skipped)
		}
		return err
	})
}

// Upsert inserts or replaces entries keyed by chunk ID.
func (s *BoltIndex) Upsert(items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(item.Vector), s.dimension)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, item := range items {
			encoded, err := json.Marshal(storedVector{
				Vector:   item.Vector,
				Text:     item.Text,
				Metadata: item.Metadata,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), encoded); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, item := range items {
		s.entries[item.ID] = entry{
			norm:     normalize(item.Vector),
			text:     item.Text,
			metadata: item.Metadata,
		}
	}
	s.dirty = true
	return nil
}

// Search returns the k most similar entries, highest cosine similarity
// first.
func (s *BoltIndex) Search(query []float32, k int) ([]port.VectorHit, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, want %d", domain.ErrDimensionMismatch, len(query), s.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	if s.dirty {
		s.rebuild()
	}
	cur := s.cur
	s.mu.Unlock()

	if cur == nil {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := cur.search(normalize(query), k)
	hits := make([]port.VectorHit, 0, len(refs))
	for _, ref := range refs {
		e, ok := s.entries[ref.id]
		if !ok {
			continue
		}
		hits = append(hits, port.VectorHit{
			ID:       ref.id,
			Score:    ref.score,
			Text:     e.text,
			Metadata: e.metadata,
			Vector:   e.norm,
		})
	}
	return hits, nil
}

// rebuild snapshots the entries into the search structure appropriate
// for the current corpus size. Caller holds the write lock.
func (s *BoltIndex) rebuild() {
	n := len(s.entries)
	if n == 0 {
		s.cur = nil
		s.dirty = false
		return
	}

	ids := make([]string, 0, n)
	vecs := make([][]float32, 0, n)
	for id, e := range s.entries {
		ids = append(ids, id)
		vecs = append(vecs, e.norm)
	}

	switch {
	case n <= s.tuning.FlatMaxVectors:
		s.cur = newFlatSearcher(ids, vecs)
		s.logger.Debug("rebuilt search structure", "tier", "flat", "vectors", n)
	case n <= s.tuning.GraphMaxVectors:
		s.cur = newHNSWSearcher(ids, vecs, s.tuning.HNSWM, s.tuning.HNSWEfSearch)
		s.logger.Debug("rebuilt search structure", "tier", "hnsw", "vectors", n)
	default:
		s.cur = newIVFSearcher(ids, vecs, s.tuning.IVFNProbe)
		s.logger.Debug("rebuilt search structure", "tier", "ivf", "vectors", n)
	}
	s.dirty = false
}

// DocIDs returns the set of parent document IDs, derived by stripping
// the chunk suffix from every stored chunk ID.
func (s *BoltIndex) DocIDs() (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{})
	for chunkID := range s.entries {
		ids[domain.DocIDFromChunkID(chunkID)] = struct{}{}
	}
	return ids, nil
}

// Count returns the number of stored vector entries.
func (s *BoltIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Clear removes every entry.
func (s *BoltIndex) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketVectors); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketVectors)
		return err
	})
	if err != nil {
		return err
	}

	s.entries = make(map[string]entry)
	s.dirty = true
	return nil
}

// Model returns the embedding model the index was built with.
func (s *BoltIndex) Model() string {
	return s.model
}

func (s *BoltIndex) Close() error {
	return s.db.Close()
}

// normalize returns a unit-length copy of v; the zero vector stays zero.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// dot assumes both vectors are unit length, making it the cosine
// similarity.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// topK sorts refs descending by score and truncates to k.
func topK(refs []scoredRef, k int) []scoredRef {
	sort.Slice(refs, func(i, j int) bool { return refs[i].score > refs[j].score })
	if len(refs) > k {
		refs = refs[:k]
	}
	return refs
}
