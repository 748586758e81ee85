package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/reviewloom-cli/internal/ai"
	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
	"github.com/KaramelBytes/reviewloom-cli/internal/relevance"
	"github.com/KaramelBytes/reviewloom-cli/internal/report"
	"github.com/KaramelBytes/reviewloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputDir      string
	anaFormats        []string
	anaDelimiter      string
	anaDecimal        string
	anaSheetName      string
	anaTopQuotes      int
	anaClassification bool
	anaSummarize      bool
	anaProvider       string
	anaModel          string
	anaRequireSummary bool
)

// analyzeSettings is the per-command state shared by analyze and analyze-batch.
type analyzeSettings struct {
	Pipeline       pipeline.Options
	Formats        []string
	Summarize      bool
	Provider       string
	Model          string
	RequireSummary bool
	Out            io.Writer
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a review export (CSV/TSV/XLSX) and write the report artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newAnalyzeSettings(cmd)
		if err != nil {
			return err
		}
		return analyzeOne(cmd.Context(), args[0], outputDirFlag(), s)
	},
}

func outputDirFlag() string {
	if anaOutputDir != "" {
		return anaOutputDir
	}
	if cfg != nil && cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return "reviewloom-out"
}

func newAnalyzeSettings(cmd *cobra.Command) (analyzeSettings, error) {
	s := analyzeSettings{
		Summarize:      anaSummarize,
		Provider:       selectProvider(cfg, anaProvider),
		Model:          anaModel,
		RequireSummary: anaRequireSummary,
		Out:            cmd.OutOrStdout(),
	}
	opt, err := pipelineOptions(cfg)
	if err != nil {
		return s, err
	}
	if opt.Ingest.Delimiter, err = parseDelimiter(anaDelimiter); err != nil {
		return s, err
	}
	switch strings.ToLower(strings.TrimSpace(anaDecimal)) {
	case ",", "comma":
		opt.Normalize.DecimalSeparator = ','
	case ".", "dot":
		opt.Normalize.DecimalSeparator = '.'
	case "":
	default:
		return s, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", anaDecimal)
	}
	opt.Ingest.Sheet = anaSheetName
	switch {
	case anaTopQuotes < 0 || anaTopQuotes > relevance.DefaultTopN:
		return s, fmt.Errorf("unsupported --top-quotes: %d (use 1..%d)", anaTopQuotes, relevance.DefaultTopN)
	case anaTopQuotes > 0:
		opt.TopQuotes = anaTopQuotes
	}
	opt.IncludeClassifications = anaClassification
	opt.Logf = progressf(cmd.ErrOrStderr(), quiet)
	s.Pipeline = opt

	for _, f := range anaFormats {
		switch f = strings.ToLower(strings.TrimSpace(f)); f {
		case "md", "html":
			s.Formats = append(s.Formats, f)
		case "json", "":
			// analysis.json is always written
		default:
			return s, fmt.Errorf("unsupported --format: %s (use md|html|json)", f)
		}
	}
	if s.Summarize && s.Provider == ai.ProviderNone {
		return s, fmt.Errorf("--summarize needs a provider (use --provider or set summary_provider)")
	}
	return s, nil
}

// analyzeOne runs the pipeline on path and writes every artifact into dir.
// A summary failure is a warning unless RequireSummary is set; the analysis
// artifacts are written either way.
func analyzeOne(ctx context.Context, path, dir string, s analyzeSettings) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := pipeline.Run(ctx, path, s.Pipeline)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", filepath.Base(path), err)
	}
	if err := writeOutputs(dir, res, s.Formats); err != nil {
		return err
	}

	var sumErr error
	if s.Summarize {
		points, err := summarize(ctx, cfg, s.Provider, s.Model, res, s.Pipeline.Logf)
		if err != nil {
			sumErr = err
		} else {
			res.Summary = points
			if err := writeOutputs(dir, res, s.Formats); err != nil {
				return err
			}
		}
	}

	if !quiet {
		fmt.Fprintf(s.Out, "✓ Analyzed %s: %d review(s)", res.Source, res.Table.Len())
		if q := res.Results.Quantitative; q != nil && q.Metadata.TotalReviews > 0 {
			fmt.Fprintf(s.Out, ", average rating %.2f", q.Descriptive.KeyInsights.AverageRating)
		}
		fmt.Fprintf(s.Out, "\n✓ Wrote artifacts to %s\n", dir)
		for _, p := range res.Summary {
			fmt.Fprintf(s.Out, "  • %s\n", p)
		}
	}
	if sumErr != nil {
		if s.RequireSummary {
			return fmt.Errorf("summary: %w", sumErr)
		}
		fmt.Fprintf(os.Stderr, "⚠ Summary skipped: %v\n", sumErr)
	}
	return nil
}

// writeOutputs writes analysis.json, the CSV tables and the requested reports.
func writeOutputs(dir string, res *pipeline.Result, formats []string) error {
	if _, err := pipeline.WriteArtifacts(dir, res); err != nil {
		return err
	}
	for _, f := range formats {
		switch f {
		case "md":
			if err := utils.SafeWriteFile(filepath.Join(dir, pipeline.MarkdownFile), []byte(report.Markdown(res))); err != nil {
				return fmt.Errorf("write markdown report: %w", err)
			}
		case "html":
			b, err := report.HTML(res)
			if err != nil {
				return fmt.Errorf("render html report: %w", err)
			}
			if err := utils.SafeWriteFile(filepath.Join(dir, pipeline.HTMLFile), b); err != nil {
				return fmt.Errorf("write html report: %w", err)
			}
		}
	}
	return nil
}

func addAnalyzeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&anaOutputDir, "output-dir", "o", "", "directory for analysis artifacts (default from config: output_dir)")
	f.StringSliceVar(&anaFormats, "format", []string{"md"}, "extra report formats besides analysis.json: md, html")
	f.StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	f.StringVar(&anaDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&anaSheetName, "sheet", "", "XLSX: read only this sheet (default: stack every sheet)")
	f.IntVar(&anaTopQuotes, "top-quotes", 0, "number of top relevant quotes to keep, at most 5 (default 5)")
	f.BoolVar(&anaClassification, "include-classifications", false, "include per-review tier-1 classifications in analysis.json")
	f.BoolVar(&anaSummarize, "summarize", false, "generate a natural-language summary with the configured provider")
	f.StringVar(&anaProvider, "provider", "", "summary provider: openrouter | openai | ollama (overrides config)")
	f.StringVar(&anaModel, "model", "", "summary model (overrides config)")
	f.BoolVar(&anaRequireSummary, "require-summary", false, "fail when the summary cannot be generated")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addAnalyzeFlags(analyzeCmd)
}
