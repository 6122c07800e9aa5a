package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "assetpatch",
	Short: "Install localized fonts, textures and text into the game data files",
	Long: `assetpatch replaces fonts, font atlases, materials, text blobs and the title logo
inside the game's asset containers with the files of a replacement catalogue.
Every game file is backed up before the first change and can be restored at any time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
