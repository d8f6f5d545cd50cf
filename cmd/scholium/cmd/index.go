package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/embed"
	"github.com/scholium/scholium/internal/index"
	"github.com/scholium/scholium/internal/output"
)

type indexOptions struct {
	force   bool
	noEmbed bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the library snapshots",
		Long: `Survey the configured roots, extract document metadata and bring
the corpus and vector snapshots up to date.

Unchanged documents keep their records and vectors; only new or
modified files are re-processed.

Examples:
  scholium index
  scholium index --force
  scholium index --no-embed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.force, "force", false, "Rebuild everything, ignoring previous snapshots")
	cmd.Flags().BoolVar(&opts.noEmbed, "no-embed", false, "Skip embedding, corpus snapshot only")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}

	meta, err := index.LoadMetadata(cfg.Library.MetadataPath)
	if err != nil {
		return err
	}
	extractor := index.NewMetadataExtractor(meta)

	var embedder embed.Embedder
	if !opts.noEmbed {
		embedder, err = embed.New(ctx, cfg.Embeddings)
		if err != nil {
			return err
		}
		defer func() { _ = embedder.Close() }()
	}

	out.Statusf("📚", "Indexing %s", plural(len(cfg.Library.Roots), "root"))

	builder := index.NewBuilder(cfg, p.tok, p.bridge, extractor, embedder)
	res, err := builder.Build(ctx, index.Options{Force: opts.force})
	if err != nil {
		return err
	}

	out.Successf("Indexed %s (%d added, %d kept, %d removed)",
		plural(res.Stats.Total, "document"),
		res.Stats.Added, res.Stats.Kept, res.Stats.Removed)
	if res.Stats.Errors > 0 {
		out.Warningf("%s failed extraction and will rank by filename only",
			plural(res.Stats.Errors, "document"))
	}
	if res.VectorsBuilt {
		out.Statusf("🧮", "Vectors: %d embedded, %d reused, %d pruned",
			res.Embedded, res.Reused, res.Pruned)
	} else {
		out.Status("", "Vector snapshot skipped; search runs lexical-only")
	}
	out.Statusf("", "Build took %s", res.Stats.Duration.Round(time.Millisecond))

	return nil
}
