// Package vector holds one unit-normalized embedding per document key
// and ranks them by cosine similarity for the semantic channel.
//
// Ranking is an exact dot-product scan when a candidate filter is in
// play; unfiltered queries go through an HNSW graph built lazily from
// the entries. All entries must come from the same embedding model;
// mixing models is a build error, never silently ignored.
package vector

import (
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/scholium/scholium/internal/errors"
)

// SimilarityFloor is the minimum cosine similarity for a semantic
// result. Anything below it is noise for this corpus size.
const SimilarityFloor = 0.1

// Result is one ranked entry.
type Result struct {
	Key        string
	Similarity float64
}

// Index maps document keys to unit vectors. Writes happen at build
// time; queries share it read-only.
type Index struct {
	mu    sync.RWMutex
	model string
	dims  int

	vectors map[string][]float32
	order   []string // sorted keys, rebuilt on demand

	graph      *hnsw.Graph[string]
	graphStale bool
}

// New creates an empty index for one model. dims 0 adopts the first
// added vector's width.
func New(model string, dims int) *Index {
	return &Index{
		model:   model,
		dims:    dims,
		vectors: make(map[string][]float32),
	}
}

// Model returns the embedding model identifier.
func (x *Index) Model() string { return x.model }

// Dimensions returns the vector width, 0 if nothing was added yet.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

// Len returns the number of entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Contains reports whether key has a vector.
func (x *Index) Contains(key string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.vectors[key]
	return ok
}

// Keys returns all keys in ascending order.
func (x *Index) Keys() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]string(nil), x.readOrder()...)
}

// sortedKeys refreshes the cached key order. Callers must hold the
// write lock.
func (x *Index) sortedKeys() []string {
	if len(x.order) != len(x.vectors) {
		x.order = x.order[:0]
		for k := range x.vectors {
			x.order = append(x.order, k)
		}
		sort.Strings(x.order)
	}
	return x.order
}

// readOrder returns the keys in ascending order without touching the
// cache, so it is safe under the read lock. A stale cache costs one
// local sort.
func (x *Index) readOrder() []string {
	if len(x.order) == len(x.vectors) {
		return x.order
	}
	keys := make([]string, 0, len(x.vectors))
	for k := range x.vectors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Add stores the vector for key, normalizing it to unit length.
// Replaces any previous vector for the same key.
func (x *Index) Add(key string, vec []float32) error {
	if key == "" {
		return errors.New(errors.ErrCodeInvalidInput, "vector entry has empty key", nil)
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dims == 0 {
		x.dims = len(vec)
	}
	if len(vec) != x.dims {
		return errors.Newf(errors.ErrCodeDimensionMismatch,
			"vector for %q has %d dimensions, index has %d", key, len(vec), x.dims)
	}

	stored := make([]float32, len(vec))
	copy(stored, vec)
	normalizeInPlace(stored)
	x.vectors[key] = stored
	x.order = x.order[:0]
	x.graphStale = true
	return nil
}

// Remove drops the entry for key if present.
func (x *Index) Remove(key string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.vectors[key]; ok {
		delete(x.vectors, key)
		x.order = x.order[:0]
		x.graphStale = true
	}
}

// Prune removes entries whose key the keep predicate rejects and
// returns how many were dropped. Run during rebuilds so vectors for
// deleted documents never survive into the new snapshot.
func (x *Index) Prune(keep func(key string) bool) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	pruned := 0
	for k := range x.vectors {
		if !keep(k) {
			delete(x.vectors, k)
			pruned++
		}
	}
	if pruned > 0 {
		x.order = x.order[:0]
		x.graphStale = true
	}
	return pruned
}

// Rank orders entries by dot product against the query vector,
// descending, ties by key. Entries under the similarity floor are
// dropped. A non-nil eligible predicate forces the exact scan path;
// without one the HNSW graph answers, falling back to the scan for
// tiny indexes where graph overhead buys nothing.
func (x *Index) Rank(query []float32, limit int, eligible func(key string) bool) ([]Result, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 {
		return nil, nil
	}
	if len(query) != x.dims {
		return nil, errors.Newf(errors.ErrCodeDimensionMismatch,
			"query vector has %d dimensions, index has %d", len(query), x.dims)
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeInPlace(q)

	// Queries share the read lock; the write lock is taken only to
	// rebuild the lazy graph after a mutation.
	if eligible == nil && len(x.vectors) >= hnswMinEntries {
		if x.graph == nil || x.graphStale {
			x.mu.RUnlock()
			x.refreshGraph()
			x.mu.RLock()
		}
		if x.graph != nil && !x.graphStale {
			return x.rankGraph(q, limit), nil
		}
		// A mutation slipped in between the locks; the exact scan is
		// always correct.
	}
	return x.rankScan(q, limit, eligible), nil
}

// refreshGraph rebuilds the graph under the write lock unless another
// goroutine got there first.
func (x *Index) refreshGraph() {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.graph == nil || x.graphStale {
		x.rebuildGraph()
	}
}

// hnswMinEntries is the index size below which the exact scan is used
// even for unfiltered queries.
const hnswMinEntries = 64

func (x *Index) rankScan(q []float32, limit int, eligible func(key string) bool) []Result {
	results := make([]Result, 0, len(x.vectors))
	for _, key := range x.readOrder() {
		if eligible != nil && !eligible(key) {
			continue
		}
		sim := dot(q, x.vectors[key])
		if sim < SimilarityFloor {
			continue
		}
		results = append(results, Result{Key: key, Similarity: sim})
	}
	sortResults(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func (x *Index) rankGraph(q []float32, limit int) []Result {
	k := limit
	if k <= 0 || k > len(x.vectors) {
		k = len(x.vectors)
	}
	nodes := x.graph.Search(q, k)

	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		sim := dot(q, x.vectors[node.Key])
		if sim < SimilarityFloor {
			continue
		}
		results = append(results, Result{Key: node.Key, Similarity: sim})
	}
	sortResults(results)
	return results
}

func (x *Index) rebuildGraph() {
	g := hnsw.NewGraph[string]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 48
	for _, key := range x.sortedKeys() {
		g.Add(hnsw.MakeNode(key, x.vectors[key]))
	}
	x.graph = g
	x.graphStale = false
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Key < results[j].Key
	})
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
