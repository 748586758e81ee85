package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/reviewloom-cli/internal/ingest"
	"github.com/KaramelBytes/reviewloom-cli/internal/normalize"
	"github.com/KaramelBytes/reviewloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	normOutput    string
	normDelimiter string
	normSheet     string
	normStats     bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Map a review export onto the canonical schema and write it as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := pipelineOptions(cfg)
		if err != nil {
			return err
		}
		if opt.Ingest.Delimiter, err = parseDelimiter(normDelimiter); err != nil {
			return err
		}
		opt.Ingest.Sheet = normSheet

		raw, err := ingest.ReadFile(path, opt.Ingest)
		if err != nil {
			return err
		}
		table, st, err := normalize.Normalize(raw, opt.Ontology.Synonyms, opt.Normalize)
		if err != nil {
			return fmt.Errorf("normalize: %w", err)
		}

		var buf bytes.Buffer
		if err := table.WriteCSV(&buf); err != nil {
			return err
		}
		out := normOutput
		if out == "" {
			base := filepath.Base(path)
			out = strings.TrimSuffix(base, filepath.Ext(base)) + ".standardized.csv"
		}
		if out == "-" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d review(s) to %s\n", table.Len(), out)
			if normStats {
				b, err := utils.PrettyJSON(st)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
			} else if st.DroppedRows > 0 || st.BackfilledTimestamps > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "⚠ %d row(s) dropped, %d timestamp(s) backfilled\n", st.DroppedRows, st.BackfilledTimestamps)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringVarP(&normOutput, "output", "o", "", "output CSV path ('-' for stdout; default <name>.standardized.csv)")
	normalizeCmd.Flags().StringVar(&normDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	normalizeCmd.Flags().StringVar(&normSheet, "sheet", "", "XLSX: read only this sheet (default: stack every sheet)")
	normalizeCmd.Flags().BoolVar(&normStats, "stats", false, "print normalization statistics as JSON")
}
