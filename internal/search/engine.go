package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scholium/scholium/internal/corpus"
	"github.com/scholium/scholium/internal/embed"
	"github.com/scholium/scholium/internal/errors"
	"github.com/scholium/scholium/internal/lexical"
	"github.com/scholium/scholium/internal/tokenize"
	"github.com/scholium/scholium/internal/vector"
	"github.com/scholium/scholium/internal/xlate"
)

// DefaultLimit is the result count when the request does not set one.
const DefaultLimit = 10

// Engine orchestrates the ranking channels over a loaded corpus and
// vector index. Read-only and safe for concurrent queries.
type Engine struct {
	store    *corpus.Store
	index    *vector.Index
	tok      *tokenize.Tokenizer
	scorer   *lexical.Scorer
	bridge   *xlate.Bridge
	embedder embed.Embedder
	denylist []string
}

// New assembles an engine. index and embedder may be nil, which
// disables the semantic channels (lexical-only operation).
func New(
	store *corpus.Store,
	index *vector.Index,
	tok *tokenize.Tokenizer,
	scorer *lexical.Scorer,
	bridge *xlate.Bridge,
	embedder embed.Embedder,
	denylist []string,
) *Engine {
	return &Engine{
		store:    store,
		index:    index,
		tok:      tok,
		scorer:   scorer,
		bridge:   bridge,
		embedder: embedder,
		denylist: denylist,
	}
}

// Search runs the request through its channels and fuses the rankings.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errors.New(errors.ErrCodeQueryEmpty, "search query is empty", nil).
			WithSuggestion("Provide a query, e.g. scholium search 径流")
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	opts := lexical.Options{
		Folder:          req.Folder,
		Denylist:        e.denylist,
		ExcludeFallback: req.ExcludeFallback,
		Limit:           channelDepth,
	}

	start := time.Now()
	channels, matchedTopics, err := e.runChannels(ctx, query, mode, opts, req.ExtraQueries)
	if err != nil {
		return nil, err
	}

	f := newFuser()
	f.addLexical(channels.primaryLexical, rrfKPrimary, true)
	f.addSemantic(channels.primarySemantic, rrfKPrimary, true)
	f.addLexical(channels.crossLingual, rrfKCrossLingual, false)
	for _, aux := range channels.aux {
		f.addLexical(aux.lexical, rrfKPrimary, false)
		f.addSemantic(aux.semantic, rrfKPrimary, false)
	}

	resp := &Response{MatchedTopics: matchedTopics}
	for _, key := range f.ranked() {
		if len(resp.Results) >= limit {
			break
		}
		p := f.prov[key]
		resp.Results = append(resp.Results, Result{
			Key:           key,
			Doc:           e.store.Get(key),
			RRFScore:      f.scores[key],
			LexicalScore:  p.lexicalScore,
			Similarity:    p.similarity,
			LexicalRank:   p.lexicalRank,
			SemanticRank:  p.semanticRank,
			MatchedFields: p.matchedFields,
			MatchedTerms:  p.matchedTerms,
		})
	}

	slog.Debug("search complete",
		slog.String("query", query),
		slog.String("mode", string(mode)),
		slog.Int("results", len(resp.Results)),
		slog.Int("fused_candidates", len(f.scores)),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// channelOutputs collects every channel's ranking before fusion.
type channelOutputs struct {
	primaryLexical  []lexicalRanking
	primarySemantic []semanticRanking
	crossLingual    []lexicalRanking
	aux             []auxOutputs
}

type auxOutputs struct {
	lexical  []lexicalRanking
	semantic []semanticRanking
}

// runChannels executes the mode's channels in parallel. Outputs land in
// pre-assigned slots so fusion order stays fixed regardless of which
// goroutine finishes first.
func (e *Engine) runChannels(ctx context.Context, query string, mode Mode, opts lexical.Options, extraQueries []string) (*channelOutputs, []string, error) {
	out := &channelOutputs{}
	var matchedTopics []string

	lexicalOn := mode == ModeHybrid || mode == ModeLexical
	semanticOn := (mode == ModeHybrid || mode == ModeSemantic) && e.semanticReady()

	g, gctx := errgroup.WithContext(ctx)

	if lexicalOn {
		g.Go(func() error {
			matches, topics := e.scorer.Search(e.store, e.tok, query, opts)
			out.primaryLexical = toLexicalRankings(matches)
			matchedTopics = topics
			return nil
		})

		// Cross-lingual channel: only for hybrid queries carrying Han
		// characters, and only when term translation covers enough of
		// the query to be trustworthy.
		if mode == ModeHybrid && xlate.HasHan(query) {
			if translated, covered := e.bridge.TranslateTerms(query); covered && strings.TrimSpace(translated) != "" {
				g.Go(func() error {
					matches, _ := e.scorer.Search(e.store, e.tok, translated, opts)
					out.crossLingual = toLexicalRankings(matches)
					return nil
				})
			}
		}
	}

	if semanticOn {
		g.Go(func() error {
			ranking, err := e.semanticRank(gctx, query, opts)
			if err != nil {
				return err
			}
			out.primarySemantic = ranking
			return nil
		})
	}

	out.aux = make([]auxOutputs, len(extraQueries))
	for i, extra := range extraQueries {
		extra := strings.TrimSpace(extra)
		if extra == "" {
			continue
		}
		slot := &out.aux[i]
		if lexicalOn {
			g.Go(func() error {
				matches, _ := e.scorer.Search(e.store, e.tok, extra, opts)
				slot.lexical = toLexicalRankings(matches)
				return nil
			})
		}
		if semanticOn {
			g.Go(func() error {
				ranking, err := e.semanticRank(gctx, extra, opts)
				if err != nil {
					return err
				}
				slot.semantic = ranking
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeSearchFailed, err)
	}
	return out, matchedTopics, nil
}

func (e *Engine) semanticReady() bool {
	return e.index != nil && e.embedder != nil && e.index.Len() > 0
}

// semanticRank is the bilingual semantic channel: embed the query and,
// for Chinese queries, its phrase translation; rank each against the
// vector index; fuse the two rankings with a small-k RRF. The reported
// similarity is always the untranslated query's.
func (e *Engine) semanticRank(ctx context.Context, query string, opts lexical.Options) ([]semanticRanking, error) {
	queries := []string{query}
	if xlate.HasHan(query) {
		if translated := e.bridge.TranslatePhrase(query); strings.TrimSpace(translated) != "" && translated != query {
			queries = append(queries, translated)
		}
	}

	vecs, err := e.embedder.EmbedBatch(ctx, queries)
	if err != nil {
		return nil, err
	}

	eligible := func(key string) bool {
		d := e.store.Get(key)
		return d != nil && lexical.Eligible(d, opts)
	}

	rankings := make([]map[string]int, len(vecs))
	primarySim := make(map[string]float64)
	for i, qv := range vecs {
		results, err := e.index.Rank(qv, 0, eligible)
		if err != nil {
			return nil, err
		}
		ranking := make(map[string]int, len(results))
		for rank, r := range results {
			ranking[r.Key] = rank + 1
			if i == 0 {
				primarySim[r.Key] = r.Similarity
			}
		}
		rankings[i] = ranking
	}

	// Internal RRF across the (at most two) per-language rankings.
	f := newFuser()
	for _, ranking := range rankings {
		entries := make([]semanticRanking, len(ranking))
		for key, rank := range ranking {
			entries[rank-1] = semanticRanking{Key: key}
		}
		f.addSemantic(entries, rrfKBilingual, false)
	}

	fused := f.ranked()
	if len(fused) > channelDepth {
		fused = fused[:channelDepth]
	}
	out := make([]semanticRanking, 0, len(fused))
	for _, key := range fused {
		out = append(out, semanticRanking{Key: key, Similarity: primarySim[key]})
	}
	return out, nil
}

func toLexicalRankings(matches []lexical.Match) []lexicalRanking {
	out := make([]lexicalRanking, 0, len(matches))
	for _, m := range matches {
		out = append(out, lexicalRanking{
			Key:           m.Key,
			Score:         m.Score,
			MatchedFields: m.MatchedFields,
			MatchedTerms:  m.MatchedTerms,
		})
	}
	return out
}
