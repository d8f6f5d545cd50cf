package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/internal/output"
)

type similarOptions struct {
	limit  int
	format string
}

func newSimilarCmd() *cobra.Command {
	var opts similarOptions

	cmd := &cobra.Command{
		Use:   "similar <name-fragment>",
		Short: "Recommend documents related to one in the library",
		Long: `Find documents related to an indexed one. The argument is a
case-insensitive fragment of the document's filename; the first
matching document becomes the recommendation target.

Examples:
  scholium similar 径流归因
  scholium similar "runoff trends" -n 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimilar(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of recommendations")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSimilar(ctx context.Context, cmd *cobra.Command, fragment string, opts similarOptions) error {
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
		limit = cfg.Search.RecommendResults
	}

	resp, target, err := engine.Similar(ctx, fragment, limit)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	switch opts.format {
	case "json":
		return writeResultsJSON(cmd, resp)
	default:
		out.Statusf("📄", "Related to %s:", target)
		out.Newline()
		if len(resp.Results) == 0 {
			out.Status("", "No related documents found")
			return nil
		}
		for i, r := range resp.Results {
			out.Result(i+1, r.Key, resultDetail(r))
		}
		return nil
	}
}
