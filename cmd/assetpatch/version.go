package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/heisthecat31/assetpatch/internal/config"
	"github.com/heisthecat31/assetpatch/internal/utils"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show assetpatch version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "assetpatch version %s\n", utils.GetVersion())
		cf := viper.ConfigFileUsed()
		if cf == "" {
			cf = fmt.Sprintf("No config.json file found in '%s'. Using default settings", config.ConfigDir)
		}
		fmt.Fprintf(out, "Configuration file used: %s\n", cf)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
