package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"overdoc/internal/config"
	"overdoc/internal/errors"
	"overdoc/internal/traversal"
)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default overdoc.yaml",
		Long: `Init writes the default configuration, including every built-in
language, to overdoc.yaml in the repository root. Edit it to tune scoring
or add languages.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(rootArg(args, 0))
			if err != nil {
				return errors.New(errors.InternalError, "Failed to resolve path", err)
			}
			if err := traversal.CheckRoot(root); err != nil {
				return err
			}

			configPath := filepath.Join(root, config.DefaultFileName)
			if _, err := os.Stat(configPath); err == nil && !force {
				// Already initialized is success.
				fmt.Fprintf(cmd.OutOrStdout(), "OverDoc already initialized.\nConfiguration at: %s\n\nRun 'overdoc init --force' to overwrite.\n", configPath)
				return nil
			}
			if err := config.WriteDefault(configPath, force); err != nil {
				return errors.New(errors.InternalError, "Failed to write config file", err).WithPath(configPath)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "OverDoc initialized successfully!")
			fmt.Fprintf(out, "Configuration written to: %s\n", configPath)
			fmt.Fprintln(out, "\nNext steps:")
			fmt.Fprintln(out, "  1. Run 'overdoc languages' to check the configured languages")
			fmt.Fprintln(out, "  2. Run 'overdoc analyze' to see the report")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing overdoc.yaml")
	return cmd
}
