package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stackit.dev/rebaser/internal/runtime"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rebaser",
		Short: "Edit commit history in memory and rebase everything above the edit",
		Long: `rebaser edits commit history without touching the working tree.

Edits are planned and replayed in memory; objects and references are only
written once the whole rebase succeeded.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringP("repo", "C", ".", "Run as if rebaser was started in this directory")
	rootCmd.PersistentFlags().Bool("debug", false, "Print debug output")

	rootCmd.AddCommand(newInsertBlankCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// run opens a runtime context from the persistent flags and hands it to fn
func run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	path, err := cmd.Flags().GetString("repo")
	if err != nil {
		return err
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return err
	}

	ctx, err := runtime.NewContext(runtime.Options{
		Path:  path,
		Out:   cmd.OutOrStdout(),
		Debug: debug,
	})
	if err != nil {
		return err
	}
	defer func() { _ = ctx.Close() }()

	return fn(ctx)
}
