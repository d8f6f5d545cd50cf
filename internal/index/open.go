package index

import (
	"log/slog"
	"strings"

	"github.com/scholium/scholium/internal/config"
	"github.com/scholium/scholium/internal/corpus"
	"github.com/scholium/scholium/internal/errors"
	"github.com/scholium/scholium/internal/tokenize"
	"github.com/scholium/scholium/internal/vector"
	"github.com/scholium/scholium/internal/xlate"
)

// ApplyTopics synthesizes cross-lingual topic labels for d and
// refreshes its topic token set. Records without synthesizable topics
// are left untouched.
func ApplyTopics(tok *tokenize.Tokenizer, bridge *xlate.Bridge, d *corpus.DocumentRecord) {
	tags := bridge.SynthesizeTags(d)
	if len(tags) == 0 {
		return
	}
	d.Topics = strings.Join(tags, " ")
	if d.Tokens == nil {
		corpus.ComputeTokens(tok, d)
		return
	}
	if terms := tok.Tokenize(d.Topics); len(terms) > 0 {
		d.Tokens[corpus.FieldTopics] = terms
	}
}

// Open loads the snapshots for querying. Topic labels are synthesized
// at load time unless the build persisted them, so translation table
// updates take effect without a rebuild. A missing vector snapshot
// degrades to lexical-only search with a logged notice; a corrupt or
// model-mismatched one is an error.
func Open(cfg *config.Config, tok *tokenize.Tokenizer, bridge *xlate.Bridge, model string) (*corpus.Store, *vector.Index, error) {
	store, err := corpus.Load(cfg.CorpusSnapshotPath())
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Index.PersistTopics {
		store.All(func(d *corpus.DocumentRecord) {
			ApplyTopics(tok, bridge, d)
		})
	}

	idx, err := vector.Load(cfg.VectorSnapshotPath(), model)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeSnapshotMissing {
			slog.Info("vector snapshot missing, semantic channel disabled",
				slog.String("path", cfg.VectorSnapshotPath()))
			return store, nil, nil
		}
		return nil, nil, err
	}

	// Entries whose document left the corpus since the last build must
	// not rank.
	if pruned := idx.Prune(func(key string) bool {
		d := store.Get(key)
		return d != nil && d.Retrievable()
	}); pruned > 0 {
		slog.Debug("pruned stale vector entries", slog.Int("count", pruned))
	}
	return store, idx, nil
}
