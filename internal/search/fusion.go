// Package search runs the ranking channels and fuses them with
// Reciprocal Rank Fusion into one deduplicated, explainable result
// list. It is the only component callers query through.
package search

import "sort"

// RRF constants. k=60 is the empirically standard smoothing constant;
// the cross-lingual lexical channel uses a larger k so a
// machine-translated query nudges rankings instead of driving them, and
// the bilingual semantic channel fuses its (at most two) internal
// rankings with a small k since both come from the same embedding
// space.
const (
	rrfKPrimary      = 60
	rrfKCrossLingual = 100
	rrfKBilingual    = 30

	// channelDepth caps how many candidates each channel feeds into
	// fusion.
	channelDepth = 200
)

// lexicalRanking is one entry of a lexical channel's output.
type lexicalRanking struct {
	Key           string
	Score         float64
	MatchedFields []string
	MatchedTerms  []string
}

// semanticRanking is one entry of a semantic channel's output.
// Similarity is the primary-query cosine similarity, not the channel's
// internal fused score.
type semanticRanking struct {
	Key        string
	Similarity float64
}

// provenance is the display data retained for one fused document. The
// first channel that produces data for a key owns its matched fields
// and terms; semantic similarity takes the maximum across all semantic
// channels the key appeared in.
type provenance struct {
	claimed       bool
	matchedFields []string
	matchedTerms  []string
	lexicalScore  float64
	similarity    float64
	lexicalRank   int
	semanticRank  int
}

// fuser accumulates reciprocal-rank contributions across channels.
// Channels must be folded in a fixed order for provenance to be
// deterministic.
type fuser struct {
	scores map[string]float64
	prov   map[string]*provenance
}

func newFuser() *fuser {
	return &fuser{
		scores: make(map[string]float64),
		prov:   make(map[string]*provenance),
	}
}

func (f *fuser) provFor(key string) *provenance {
	p, ok := f.prov[key]
	if !ok {
		p = &provenance{lexicalRank: -1, semanticRank: -1}
		f.prov[key] = p
	}
	return p
}

// addLexical folds one lexical ranking in. primary marks the main-query
// channel, whose per-channel ranks are reported back to the caller.
func (f *fuser) addLexical(matches []lexicalRanking, k int, primary bool) {
	for i, m := range matches {
		rank := i + 1
		f.scores[m.Key] += 1.0 / float64(k+rank)

		p := f.provFor(m.Key)
		if !p.claimed {
			p.claimed = true
			p.matchedFields = m.MatchedFields
			p.matchedTerms = m.MatchedTerms
			p.lexicalScore = m.Score
		}
		if primary {
			p.lexicalRank = rank
		}
	}
}

// addSemantic folds one semantic ranking in.
func (f *fuser) addSemantic(results []semanticRanking, k int, primary bool) {
	for i, r := range results {
		rank := i + 1
		f.scores[r.Key] += 1.0 / float64(k+rank)

		p := f.provFor(r.Key)
		if !p.claimed {
			p.claimed = true
			p.matchedFields = []string{"semantic"}
		}
		if r.Similarity > p.similarity {
			p.similarity = r.Similarity
		}
		if primary {
			p.semanticRank = rank
		}
	}
}

// ranked returns all fused keys by descending fused score, ties broken
// by key ascending so the output is stable across runs.
func (f *fuser) ranked() []string {
	keys := make([]string, 0, len(f.scores))
	for k := range f.scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if f.scores[keys[i]] != f.scores[keys[j]] {
			return f.scores[keys[i]] > f.scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
