package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scholium/scholium/configs"
	"github.com/scholium/scholium/internal/errors"
	"github.com/scholium/scholium/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a library config file in the current directory",
		Long: `Write a commented .scholium.yaml into the library directory.

Edit it to point at your document roots, then run 'scholium index'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .scholium.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	path := filepath.Join(libraryDir, ".scholium.yaml")

	if _, err := os.Stat(path); err == nil && !force {
		return errors.Newf(errors.ErrCodeConfigInvalid, "%s already exists", path).
			WithSuggestion("Use --force to overwrite it")
	}

	if err := os.WriteFile(path, []byte(configs.LibraryConfigTemplate), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err).
			WithDetail("path", path)
	}

	out.Successf("Wrote %s", path)
	out.Status("", "Edit the roots, then run 'scholium index'")
	return nil
}
