package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heisthecat31/assetpatch/internal/config"
	"github.com/heisthecat31/assetpatch/internal/pipeline"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that a complete backup of the game files exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := config.Load()
		if err != nil {
			return err
		}
		if err := pipeline.Verify(s); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backup in %s is complete\n", s.BackupDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
