package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/reviewloom-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	quiet   bool
	// Pipeline flags (override config if set)
	flagOntologyDir    string
	flagWorkers        int
	flagHeaderScanRows int
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "reviewloom",
	Short: "ReviewLoom CLI: turn restaurant review exports into an analysis report",
	Long: `ReviewLoom reads messy restaurant review exports (CSV, TSV, XLSX), maps them onto a
canonical schema and runs a quantitative and a qualitative analysis: descriptive
statistics, significance tests, outliers, time trends, complaint themes, issue
domains, food-quality root causes and representative quotes. An optional
language-model summary turns the result into a few readable bullet points.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.reviewloom/config.yaml)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	pf.StringVar(&flagOntologyDir, "ontology-dir", "", "directory with keyword/ontology YAML overrides (overrides config)")
	pf.IntVar(&flagWorkers, "workers", 0, "theme extraction workers (0 = number of CPUs)")
	pf.IntVar(&flagHeaderScanRows, "header-scan-rows", 0, "rows scanned for the header row (overrides config)")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	pf.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	pf.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so local-only commands still run.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{}
	}
	cfg = c
	applyFlagOverrides(cfg)
}

func applyFlagOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("ontology-dir") {
		c.OntologyDir = flagOntologyDir
	}
	if f.Changed("workers") && flagWorkers >= 0 {
		c.Workers = flagWorkers
	}
	if f.Changed("header-scan-rows") && flagHeaderScanRows > 0 {
		c.HeaderScanRows = flagHeaderScanRows
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		c.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		c.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		c.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
}
