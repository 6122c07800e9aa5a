package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heisthecat31/assetpatch/internal/config"
	"github.com/heisthecat31/assetpatch/internal/pipeline"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Copy the backed up game files back in place",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := config.Load()
		if err != nil {
			return err
		}
		if err := pipeline.Restore(cmd.Context(), s); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored game files from %s\n", s.BackupDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
