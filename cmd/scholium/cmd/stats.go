package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/corpus"
	"github.com/scholium/scholium/internal/output"
)

func newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Long: `Show statistics about the indexed corpus: document counts by
language, source and abstract provenance, top keywords and the last
build time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runStats(cmd *cobra.Command, format string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := corpus.Load(cfg.CorpusSnapshotPath())
	if err != nil {
		return err
	}
	stats := store.Stats()

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	out := output.New(cmd.OutOrStdout())
	printStats(out, stats)
	return nil
}

const statsKeyWidth = 14

func printStats(out *output.Writer, stats corpus.BuildStats) {
	out.Header("Corpus")
	out.KeyValue("Documents", stats.Total, statsKeyWidth)
	out.KeyValue("Theses", stats.Thesis, statsKeyWidth)
	out.KeyValue("With abstract", stats.WithAbstract, statsKeyWidth)
	out.KeyValue("With keywords", stats.WithKeywords, statsKeyWidth)
	if stats.Errors > 0 {
		out.KeyValue("Errors", stats.Errors, statsKeyWidth)
	}
	if stats.ExactDupes+stats.FuzzyDupes > 0 {
		out.KeyValue("Duplicates", fmt.Sprintf("%d exact, %d fuzzy", stats.ExactDupes, stats.FuzzyDupes), statsKeyWidth)
	}

	out.Header("By language")
	for _, k := range sortedKeys(stats.ByLanguage) {
		out.KeyValue(string(k), stats.ByLanguage[k], statsKeyWidth)
	}

	out.Header("By source")
	for _, k := range sortedKeys(stats.BySource) {
		out.KeyValue(k, stats.BySource[k], statsKeyWidth)
	}

	out.Header("Abstract provenance")
	for _, k := range sortedKeys(stats.ByProvenance) {
		out.KeyValue(string(k), stats.ByProvenance[k], statsKeyWidth)
	}

	if len(stats.TopKeywords) > 0 {
		out.Header("Top keywords")
		for _, kc := range stats.TopKeywords {
			out.KeyValue(kc.Keyword, kc.Count, statsKeyWidth)
		}
	}

	out.Header("Last build")
	if !stats.BuildDate.IsZero() {
		out.KeyValue("Date", stats.BuildDate.Format(time.RFC3339), statsKeyWidth)
		out.KeyValue("Duration", stats.Duration.Round(time.Millisecond), statsKeyWidth)
	}
	out.Newline()
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return strings.Compare(string(keys[i]), string(keys[j])) < 0 })
	return keys
}
