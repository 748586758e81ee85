package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var abContinue bool

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze several review exports, one output directory per file",
	Long: `Analyze several review exports in sequence. Arguments may be globs. Each input
gets its own directory under --output-dir named after the file; inputs sharing
a basename get a __2, __3, ... suffix.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		s, err := newAnalyzeSettings(cmd)
		if err != nil {
			return err
		}
		dirs := outputDirs(outputDirFlag(), files)

		total := len(files)
		var failed int
		for i, path := range files {
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			if err := analyzeOne(cmd.Context(), path, dirs[i], s); err != nil {
				if !abContinue {
					return err
				}
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %v\n", err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d file(s) failed", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	addAnalyzeFlags(analyzeBatchCmd)
	analyzeBatchCmd.Flags().BoolVar(&abContinue, "keep-going", false, "continue with the remaining files after a failure")
}
