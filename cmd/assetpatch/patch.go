package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heisthecat31/assetpatch/internal/config"
	"github.com/heisthecat31/assetpatch/internal/pipeline"
	"github.com/heisthecat31/assetpatch/pkg/catalogue"
	"github.com/heisthecat31/assetpatch/pkg/container"
	"github.com/heisthecat31/assetpatch/pkg/pixel"
)

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Patch the game files with the replacement catalogue",
	Long: `Back up the game files, apply every replacement of the catalogue and swap the
patched containers in. Nothing is replaced when a single asset fails.`,
	Args: cobra.NoArgs,
	RunE: executePatch,
}

func init() {
	rootCmd.AddCommand(patchCmd)
	patchCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	patchCmd.Flags().Bool("strict-groups", false, "fail texture groups where only some textures have a replacement")
}

func executePatch(cmd *cobra.Command, _ []string) error {
	s, err := config.Load()
	if err != nil {
		return err
	}
	if stat, err := os.Stat(s.Catalogue); err != nil || !stat.IsDir() {
		return fmt.Errorf("catalogue folder %s not found", s.Catalogue)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Game:      %s (%s)\n", s.GameRoot, s.Platform.Name)
	fmt.Fprintf(out, "Catalogue: %s\n", s.Catalogue)
	fmt.Fprintf(out, "Backup:    %s\n", s.BackupDir)

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		ok, err := confirm(cmd.InOrStdin(), out, "Patch the game files?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	opts := []pipeline.Option{pipeline.WithOutput(out)}
	if strict, _ := cmd.Flags().GetBool("strict-groups"); strict {
		opts = append(opts, pipeline.WithStrictGroups())
	}
	p := pipeline.New(s, container.NewPackCodec(), pixel.NewRawCodec(), catalogue.New(os.DirFS(s.Catalogue)), opts...)

	r, err := p.Patch(cmd.Context())
	if r != nil {
		for _, o := range r.Failures() {
			fmt.Fprintln(out, o)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Done. %d assets patched, %d skipped.\n", r.Patched(), r.Skipped())
	return nil
}

// confirm asks a yes/no question. Only an answer starting with y or Y accepts.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y"), nil
}
