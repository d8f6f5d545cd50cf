package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/errors"
	"github.com/scholium/scholium/internal/output"
	"github.com/scholium/scholium/internal/search"
)

type searchOptions struct {
	limit           int
	mode            string
	folder          string
	format          string
	excludeFallback bool
	extraQueries    []string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed library",
		Long: `Search the indexed library with hybrid bilingual ranking.

The query may be Chinese, English or mixed. Lexical field-weighted
scores, embedding similarity and cross-lingual translations are fused
with Reciprocal Rank Fusion.

Examples:
  scholium search 径流 归因
  scholium search "runoff attribution" --folder 水文
  scholium search 物候 --mode lexical --limit 5
  scholium search 蒸散发 --query "evapotranspiration trends" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "hybrid", "Ranking mode: hybrid, lexical, semantic")
	cmd.Flags().StringVar(&opts.folder, "folder", "", "Keep only documents whose folder contains this substring")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.excludeFallback, "exclude-fallback", false, "Drop documents with fallback-extracted abstracts")
	cmd.Flags().StringArrayVarP(&opts.extraQueries, "query", "q", nil, "Auxiliary query fused with the main one (repeatable)")

	return cmd
}

func parseMode(s string) (search.Mode, error) {
	switch search.Mode(s) {
	case search.ModeHybrid, search.ModeLexical, search.ModeSemantic, "":
		return search.Mode(s), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidInput, "unknown search mode %q", s).
			WithSuggestion("Use one of: hybrid, lexical, semantic")
	}
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	mode, err := parseMode(opts.mode)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, cleanup, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	resp, err := engine.Search(ctx, search.Request{
		Query:           query,
		Mode:            mode,
		Limit:           limit,
		Folder:          opts.folder,
		ExcludeFallback: opts.excludeFallback,
		ExtraQueries:    opts.extraQueries,
	})
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	switch opts.format {
	case "json":
		return writeResultsJSON(cmd, resp)
	default:
		printResults(out, query, resp)
		return nil
	}
}

// printResults renders one fused result per line with its ranking
// provenance underneath.
func printResults(out *output.Writer, query string, resp *search.Response) {
	if len(resp.Results) == 0 {
		out.Statusf("", "No results for %q", query)
		return
	}
	if len(resp.MatchedTopics) > 0 {
		out.Statusf("", "Expanded topics: %s", strings.Join(resp.MatchedTopics, ", "))
	}
	out.Statusf("🔍", "Found %s for %q:", plural(len(resp.Results), "result"), query)
	out.Newline()

	for i, r := range resp.Results {
		out.Result(i+1, r.Key, resultDetail(r))
	}
}

// resultDetail summarizes how one document earned its position.
func resultDetail(r search.Result) string {
	parts := []string{fmt.Sprintf("score %.4f", r.RRFScore)}
	if r.LexicalRank > 0 {
		parts = append(parts, fmt.Sprintf("lexical #%d (%.1f)", r.LexicalRank, r.LexicalScore))
	}
	if r.SemanticRank > 0 {
		parts = append(parts, fmt.Sprintf("semantic #%d (%.2f)", r.SemanticRank, r.Similarity))
	}
	if len(r.MatchedFields) > 0 {
		parts = append(parts, "via "+strings.Join(r.MatchedFields, ","))
	}
	if r.Doc != nil && r.Doc.Folder != "" {
		parts = append(parts, "in "+r.Doc.Folder)
	}
	return strings.Join(parts, " · ")
}

func writeResultsJSON(cmd *cobra.Command, resp *search.Response) error {
	type jsonResult struct {
		Key           string   `json:"key"`
		Folder        string   `json:"folder,omitempty"`
		Language      string   `json:"language,omitempty"`
		RRFScore      float64  `json:"rrf_score"`
		LexicalScore  float64  `json:"lexical_score,omitempty"`
		Similarity    float64  `json:"similarity,omitempty"`
		LexicalRank   int      `json:"lexical_rank"`
		SemanticRank  int      `json:"semantic_rank"`
		MatchedFields []string `json:"matched_fields,omitempty"`
		MatchedTerms  []string `json:"matched_terms,omitempty"`
	}
	type jsonResponse struct {
		Results       []jsonResult `json:"results"`
		MatchedTopics []string     `json:"matched_topics,omitempty"`
	}

	payload := jsonResponse{MatchedTopics: resp.MatchedTopics}
	for _, r := range resp.Results {
		jr := jsonResult{
			Key:           r.Key,
			RRFScore:      r.RRFScore,
			LexicalScore:  r.LexicalScore,
			Similarity:    r.Similarity,
			LexicalRank:   r.LexicalRank,
			SemanticRank:  r.SemanticRank,
			MatchedFields: r.MatchedFields,
			MatchedTerms:  r.MatchedTerms,
		}
		if r.Doc != nil {
			jr.Folder = r.Doc.Folder
			jr.Language = string(r.Doc.Language)
		}
		payload.Results = append(payload.Results, jr)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
