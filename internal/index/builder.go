package index

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/panjf2000/ants/v2"

	"github.com/scholium/scholium/internal/config"
	"github.com/scholium/scholium/internal/corpus"
	"github.com/scholium/scholium/internal/embed"
	"github.com/scholium/scholium/internal/errors"
	"github.com/scholium/scholium/internal/tokenize"
	"github.com/scholium/scholium/internal/vector"
	"github.com/scholium/scholium/internal/xlate"
)

// Builder runs one corpus build end to end.
type Builder struct {
	cfg       *config.Config
	tok       *tokenize.Tokenizer
	bridge    *xlate.Bridge
	extractor Extractor
	embedder  embed.Embedder
}

// NewBuilder assembles a builder. embedder may be nil, which skips the
// vector snapshot (corpus-only build).
func NewBuilder(cfg *config.Config, tok *tokenize.Tokenizer, bridge *xlate.Bridge, extractor Extractor, embedder embed.Embedder) *Builder {
	return &Builder{
		cfg:       cfg,
		tok:       tok,
		bridge:    bridge,
		extractor: extractor,
		embedder:  embedder,
	}
}

// Options controls one build.
type Options struct {
	// Force rebuilds everything from scratch, ignoring the previous
	// snapshots.
	Force bool
}

// Result reports what one build did.
type Result struct {
	Stats    corpus.BuildStats
	Surveyed int

	// Vector snapshot deltas. Reused counts vectors carried over from
	// the previous snapshot, Pruned the entries dropped because their
	// document left the corpus.
	Embedded     int
	Reused       int
	Pruned       int
	VectorsBuilt bool
}

// Build surveys the roots, extracts and tokenizes every document,
// merges or rebuilds the corpus snapshot, and brings the vector
// snapshot up to date. Exactly one build may run at a time per data
// directory; a held lock is reported, never waited on.
func (b *Builder) Build(ctx context.Context, opts Options) (*Result, error) {
	if err := os.MkdirAll(b.cfg.Library.DataDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilePermission, err)
	}
	lock := flock.New(b.cfg.BuildLockPath())
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBuildFailed, err)
	}
	if !acquired {
		return nil, errors.New(errors.ErrCodeBuildLocked, "another build is already running", nil).
			WithDetail("lock", b.cfg.BuildLockPath()).
			WithSuggestion("Wait for the running build to finish, or remove the lock file if it is stale")
	}
	defer lock.Unlock()

	start := time.Now()
	files, err := Survey(b.cfg.Library)
	if err != nil {
		return nil, err
	}
	slog.Info("survey complete",
		slog.Int("files", len(files)),
		slog.Int("roots", len(b.cfg.Library.Roots)))

	records, err := b.extractAll(ctx, files)
	if err != nil {
		return nil, err
	}

	store, err := b.assemble(files, records, opts.Force)
	if err != nil {
		return nil, err
	}
	store.StampBuild(time.Now(), time.Since(start))
	if err := store.Save(b.cfg.CorpusSnapshotPath()); err != nil {
		return nil, err
	}

	res := &Result{Stats: store.Stats(), Surveyed: len(files)}
	if b.embedder != nil {
		if err := b.buildVectors(ctx, store, opts.Force, res); err != nil {
			return nil, err
		}
	}

	slog.Info("build complete",
		slog.Int("documents", res.Stats.Total),
		slog.Int("embedded", res.Embedded),
		slog.Int("reused", res.Reused),
		slog.Int("pruned", res.Pruned),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// extractAll runs the extractor boundary over every surveyed file on a
// worker pool and tokenizes the resulting records. Output order matches
// the survey order.
func (b *Builder) extractAll(ctx context.Context, files []SurveyFile) ([]*corpus.DocumentRecord, error) {
	pool, err := ants.NewPool(b.cfg.Index.Workers)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBuildFailed, err)
	}
	defer pool.Release()

	records := make([]*corpus.DocumentRecord, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			d := b.extractor.Extract(ctx, f)
			corpus.ComputeTokens(b.tok, d)
			if b.cfg.Index.PersistTopics {
				ApplyTopics(b.tok, b.bridge, d)
			}
			records[i] = d
		})
		if submitErr != nil {
			wg.Done()
			return nil, errors.Wrap(errors.ErrCodeBuildFailed, submitErr)
		}
	}
	wg.Wait()
	return records, nil
}

// assemble produces the deduplicated store, incrementally when a usable
// previous snapshot exists. A record is stale when its file changed
// after the previous build ran.
func (b *Builder) assemble(files []SurveyFile, records []*corpus.DocumentRecord, force bool) (*corpus.Store, error) {
	if !force {
		prev, err := corpus.Load(b.cfg.CorpusSnapshotPath())
		switch {
		case err == nil:
			return corpus.Merge(b.tok, prev, records, staleFunc(files, prev.Stats().BuildDate))
		case errors.GetCode(err) == errors.ErrCodeSnapshotMissing:
			// First build.
		default:
			return nil, err
		}
	}
	return corpus.Rebuild(b.tok, records)
}

func staleFunc(files []SurveyFile, lastBuild time.Time) func(key string) bool {
	modified := make(map[string]time.Time, len(files))
	for _, f := range files {
		modified[f.Name] = f.ModTime
	}
	return func(key string) bool {
		if lastBuild.IsZero() {
			return true
		}
		return modified[key].After(lastBuild)
	}
}

// buildVectors brings the vector snapshot in line with the corpus:
// vectors for unchanged documents are reused, entries for departed
// documents pruned, and only the remainder embedded. Embedding failures
// abort the build; the previous snapshot stays in place.
func (b *Builder) buildVectors(ctx context.Context, store *corpus.Store, force bool, res *Result) error {
	model := b.embedder.ModelName()
	path := b.cfg.VectorSnapshotPath()

	idx := vector.New(model, b.embedder.Dimensions())
	if !force {
		prev, err := vector.Load(path, model)
		switch {
		case err == nil:
			idx = prev
		case errors.GetCode(err) == errors.ErrCodeSnapshotMissing:
		default:
			slog.Warn("previous vector snapshot unusable, re-embedding corpus",
				slog.String("error", err.Error()))
		}
	}

	res.Pruned = idx.Prune(func(key string) bool {
		d := store.Get(key)
		return d != nil && d.Retrievable()
	})
	res.Reused = idx.Len()

	var missing []string
	store.All(func(d *corpus.DocumentRecord) {
		if d.Retrievable() && !idx.Contains(d.Key) && strings.TrimSpace(d.EmbeddingText()) != "" {
			missing = append(missing, d.Key)
		}
	})

	batch := b.cfg.Embeddings.BatchSize
	for s := 0; s < len(missing); s += batch {
		keys := missing[s:min(s+batch, len(missing))]
		texts := make([]string, len(keys))
		for i, k := range keys {
			texts[i] = store.Get(k).EmbeddingText()
		}
		vecs, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		for i, v := range vecs {
			if err := idx.Add(keys[i], v); err != nil {
				return err
			}
		}
		res.Embedded += len(keys)
		slog.Debug("embedded batch",
			slog.Int("done", res.Embedded),
			slog.Int("total", len(missing)))
	}

	if err := idx.Save(path); err != nil {
		return err
	}
	res.VectorsBuilt = true
	return nil
}
