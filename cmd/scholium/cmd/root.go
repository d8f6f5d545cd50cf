// Package cmd provides the CLI commands for Scholium.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/configs"
	"github.com/scholium/scholium/internal/config"
	"github.com/scholium/scholium/internal/embed"
	"github.com/scholium/scholium/internal/index"
	"github.com/scholium/scholium/internal/lexical"
	"github.com/scholium/scholium/internal/logging"
	"github.com/scholium/scholium/internal/profiling"
	"github.com/scholium/scholium/internal/search"
	"github.com/scholium/scholium/internal/tokenize"
	"github.com/scholium/scholium/internal/xlate"
	"github.com/scholium/scholium/pkg/version"
)

var (
	debugMode      bool
	libraryDir     string
	loggingCleanup func()

	profileCPU string
	profileMem string
	profiler   = profiling.NewProfiler()
	cpuCleanup func()
)

// NewRootCmd creates the root command for the scholium CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scholium",
		Short: "Index and search a personal literature library",
		Long: `Scholium indexes a personal PDF library and serves bilingual
(Chinese/English) hybrid search over it.

Lexical field-weighted ranking, embedding similarity and a
cross-lingual translation bridge are fused per query, so a Chinese
query can surface English papers and vice versa.

Run 'scholium index' once to build the snapshots, then
'scholium search <query>' as often as you like.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("scholium version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&libraryDir, "library", ".", "Library directory holding .scholium.yaml")
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")

	cmd.PersistentPreRunE = startLoggingAndProfiling
	cmd.PersistentPostRunE = stopLoggingAndProfiling

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSimilarCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLoggingAndProfiling routes slog to the log file and starts CPU
// profiling when requested; debug mode raises the log level.
func startLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		if debugMode {
			slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
		}
	}

	if profileCPU != "" {
		cleanup, err := profiler.StartCPU(profileCPU)
		if err != nil {
			return err
		}
		cpuCleanup = cleanup
	}
	return nil
}

func stopLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}
	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return err
		}
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads the effective configuration for the library
// directory selected by --library.
func loadConfig() (*config.Config, error) {
	return config.Load(libraryDir)
}

// pipeline holds the shared language tooling every command assembles
// the same way.
type pipeline struct {
	tok    *tokenize.Tokenizer
	bridge *xlate.Bridge
	scorer *lexical.Scorer
}

func newPipeline() (*pipeline, error) {
	words, err := configs.DomainWords()
	if err != nil {
		return nil, err
	}
	tok, err := tokenize.New(words)
	if err != nil {
		return nil, err
	}
	bridge, err := xlate.NewFromEmbedded()
	if err != nil {
		return nil, err
	}
	scorer, err := lexical.NewFromEmbedded()
	if err != nil {
		return nil, err
	}
	return &pipeline{tok: tok, bridge: bridge, scorer: scorer}, nil
}

// openEngine loads the snapshots and assembles the search engine. When
// the vector snapshot is present an embedder is created for query
// embedding; otherwise the engine runs lexical-only. The returned
// cleanup releases the embedder.
func openEngine(ctx context.Context, cfg *config.Config) (*search.Engine, func(), error) {
	p, err := newPipeline()
	if err != nil {
		return nil, nil, err
	}

	store, idx, err := index.Open(cfg, p.tok, p.bridge, cfg.Embeddings.Model)
	if err != nil {
		return nil, nil, err
	}

	var embedder embed.Embedder
	cleanup := func() {}
	if idx != nil {
		embedder, err = embed.New(ctx, cfg.Embeddings)
		if err != nil {
			// Degrade to lexical-only rather than failing the query.
			slog.Warn("embedder unavailable, lexical-only search",
				slog.String("error", err.Error()))
			idx = nil
		} else {
			cleanup = func() { _ = embedder.Close() }
		}
	}

	engine := search.New(store, idx, p.tok, p.scorer, p.bridge, embedder, cfg.Search.Denylist)
	return engine, cleanup, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
