package vector

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium/scholium/internal/errors"
)

func TestIndex_AddNormalizes(t *testing.T) {
	x := New("test-model", 0)

	require.NoError(t, x.Add("a.pdf", []float32{3, 4}))
	assert.Equal(t, 2, x.Dimensions())

	results, err := x.Rank([]float32{3, 4}, 0, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestIndex_DimensionMismatch(t *testing.T) {
	x := New("test-model", 2)

	err := x.Add("a.pdf", []float32{1, 2, 3})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))

	require.NoError(t, x.Add("a.pdf", []float32{1, 0}))
	_, err = x.Rank([]float32{1}, 0, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDimensionMismatch, errors.GetCode(err))
}

func TestIndex_RankOrdersBySimilarity(t *testing.T) {
	x := New("test-model", 2)
	require.NoError(t, x.Add("exact.pdf", []float32{1, 0}))
	require.NoError(t, x.Add("close.pdf", []float32{0.9, 0.45}))
	require.NoError(t, x.Add("far.pdf", []float32{0, 1}))

	results, err := x.Rank([]float32{1, 0}, 0, nil)
	require.NoError(t, err)

	// far.pdf has similarity 0, below the floor.
	require.Len(t, results, 2)
	assert.Equal(t, "exact.pdf", results[0].Key)
	assert.Equal(t, "close.pdf", results[1].Key)
}

func TestIndex_SimilarityFloor(t *testing.T) {
	x := New("test-model", 2)
	require.NoError(t, x.Add("weak.pdf", []float32{0.05, 1}))

	results, err := x.Rank([]float32{1, 0}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_RankTiesBreakByKey(t *testing.T) {
	x := New("test-model", 2)
	require.NoError(t, x.Add("b.pdf", []float32{1, 0}))
	require.NoError(t, x.Add("a.pdf", []float32{1, 0}))

	results, err := x.Rank([]float32{1, 0}, 0, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.pdf", results[0].Key)
	assert.Equal(t, "b.pdf", results[1].Key)
}

func TestIndex_EligibleFilterAppliesBeforeRanking(t *testing.T) {
	x := New("test-model", 2)
	require.NoError(t, x.Add("keep.pdf", []float32{0.8, 0.6}))
	require.NoError(t, x.Add("skip.pdf", []float32{1, 0}))

	results, err := x.Rank([]float32{1, 0}, 1, func(key string) bool {
		return key != "skip.pdf"
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "keep.pdf", results[0].Key)
}

func TestIndex_GraphPathAgreesWithScan(t *testing.T) {
	x := New("test-model", 4)
	for i := 0; i < 128; i++ {
		vec := []float32{float32(i%7 + 1), float32(i%5 + 1), float32(i%3 + 1), 1}
		require.NoError(t, x.Add(fmt.Sprintf("doc-%03d.pdf", i), vec))
	}
	query := []float32{2, 3, 1, 1}

	// eligible=nil routes through the graph at this size; an
	// accept-everything filter forces the exact scan.
	graphResults, err := x.Rank(query, 10, nil)
	require.NoError(t, err)
	scanResults, err := x.Rank(query, 10, func(string) bool { return true })
	require.NoError(t, err)

	require.NotEmpty(t, graphResults)
	assert.Equal(t, scanResults[0].Key, graphResults[0].Key)
}

func TestIndex_ConcurrentRankAfterMutation(t *testing.T) {
	x := New("test-model", 4)
	for i := 0; i < 128; i++ {
		vec := []float32{float32(i%7 + 1), float32(i%5 + 1), float32(i%3 + 1), 1}
		require.NoError(t, x.Add(fmt.Sprintf("doc-%03d.pdf", i), vec))
	}
	query := []float32{2, 3, 1, 1}

	// First query builds the graph, then a removal marks it stale, so
	// the racing queries below hit the rebuild path together.
	_, err := x.Rank(query, 5, nil)
	require.NoError(t, err)
	x.Remove("doc-000.pdf")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := x.Rank(query, 5, nil)
			assert.NoError(t, err)
			assert.NotEmpty(t, results)
		}()
	}
	wg.Wait()
}

func TestIndex_PruneDropsMissingKeys(t *testing.T) {
	x := New("test-model", 2)
	require.NoError(t, x.Add("keep.pdf", []float32{1, 0}))
	require.NoError(t, x.Add("gone.pdf", []float32{0, 1}))

	pruned := x.Prune(func(key string) bool { return key == "keep.pdf" })
	assert.Equal(t, 1, pruned)
	assert.True(t, x.Contains("keep.pdf"))
	assert.False(t, x.Contains("gone.pdf"))
	assert.Equal(t, []string{"keep.pdf"}, x.Keys())
}

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.json")

	x := New("bge-m3", 2)
	require.NoError(t, x.Add("a.pdf", []float32{1, 0}))
	require.NoError(t, x.Add("b.pdf", []float32{0.6, 0.8}))
	require.NoError(t, x.Save(path))

	loaded, err := Load(path, "bge-m3")
	require.NoError(t, err)

	assert.Equal(t, x.Keys(), loaded.Keys())
	assert.Equal(t, 2, loaded.Dimensions())

	results, err := loaded.Rank([]float32{1, 0}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", results[0].Key)
}

func TestLoad_ModelMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.json")

	x := New("bge-m3", 2)
	require.NoError(t, x.Add("a.pdf", []float32{1, 0}))
	require.NoError(t, x.Save(path))

	_, err := Load(path, "nomic-embed-text")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeModelMismatch, errors.GetCode(err))
	assert.True(t, errors.IsFatal(err))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "vectors.json"), "bge-m3")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSnapshotMissing, errors.GetCode(err))
}
