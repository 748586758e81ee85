package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/spf13/cobra"
)

var ontologyCmd = &cobra.Command{
	Use:   "ontology",
	Short: "Inspect or export the keyword and ontology tables",
}

var ontologyDumpCmd = &cobra.Command{
	Use:   "dump <dir>",
	Short: "Write the built-in ontology YAML files to a directory for editing",
	Long: `Write the built-in ontology YAML files to <dir>. Edit them and pass the directory
with --ontology-dir (or set ontology_dir) to override the defaults; files missing
from the directory fall back to the built-in versions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if err := ontology.Dump(dir); err != nil {
			return err
		}
		if !quiet {
			for _, name := range ontology.AssetFiles {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", filepath.Join(dir, name))
			}
		}
		return nil
	},
}

var ontologyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the effective ontology (defaults plus --ontology-dir) and print table sizes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if cfg != nil {
			dir = cfg.OntologyDir
		}
		o, err := ontology.Load(dir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Ontology loaded")
		if dir != "" {
			fmt.Fprintf(out, " (overrides from %s)", dir)
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  synonym fields: %d\n", len(o.Synonyms.Fields()))
		fmt.Fprintf(out, "  domain rules:   %d\n", len(o.Rules))
		fmt.Fprintf(out, "  dishes:         %d\n", len(o.Dishes()))
		fmt.Fprintf(out, "  keywords:       %d\n", len(o.Keywords))
		fmt.Fprintf(out, "  vague phrases:  %d\n", len(o.VaguePhrases))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ontologyCmd)
	ontologyCmd.AddCommand(ontologyDumpCmd)
	ontologyCmd.AddCommand(ontologyCheckCmd)
}
