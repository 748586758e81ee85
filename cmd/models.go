package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/KaramelBytes/reviewloom-cli/internal/ai"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the summary model catalog and pricing",
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show known models with context size and pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tCONTEXT\tIN $/1K\tOUT $/1K")
		for _, mi := range ai.Models() {
			fmt.Fprintf(w, "%s\t%d\t%.5f\t%.5f\n", mi.Name, mi.ContextTokens, mi.InputPerK, mi.OutputPerK)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		for _, p := range []string{ai.ProviderOpenRouter, ai.ProviderOpenAI, ai.ProviderOllama} {
			m, _ := ai.DefaultModel(p)
			fmt.Fprintf(cmd.OutOrStdout(), "default for %s: %s\n", p, m)
		}
		if cfg != nil && cfg.SummaryModel != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "configured summary_model: %s\n", cfg.SummaryModel)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
}
