package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "github.com/KaramelBytes/reviewloom-cli/internal/config"
	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// sliceFlagVars binds slice flags by name so resetFlags can rebuild them.
var sliceFlagVars = map[string]*[]string{
	"format": &anaFormats,
	"cities": &smpCities,
}

// resetFlags restores every flag to its default so invocations do not leak
// Changed state or slice values into each other. Slice values remember that
// they were set and append on the next Set, so they are re-created.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if target, ok := sliceFlagVars[fl.Name]; ok {
			var defs []string
			if def := strings.Trim(fl.DefValue, "[]"); def != "" {
				defs = strings.Split(def, ",")
			}
			fs := pflag.NewFlagSet("reset", pflag.ContinueOnError)
			fs.StringSliceVar(target, fl.Name, defs, fl.Usage)
			fl.Value = fs.Lookup(fl.Name).Value
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// withConfig installs c as the loaded configuration for the test.
func withConfig(t *testing.T, c *cfgpkg.Global) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

func writeSample(t *testing.T, dir, name string, reviews string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	runCmd(t, "sample", "-o", p, "--reviews", reviews, "-q")
	return p
}

func readResult(t *testing.T, dir string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, pipeline.AnalysisFile))
	if err != nil {
		t.Fatalf("read analysis.json: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode analysis.json: %v", err)
	}
	return out
}

func TestCLI_SampleThenAnalyze(t *testing.T) {
	withConfig(t, nil)
	dir := t.TempDir()
	in := writeSample(t, dir, "reviews.csv", "150")
	out := filepath.Join(dir, "out")

	runCmd(t, "analyze", in, "-o", out, "--format", "md,html", "-q")

	for _, name := range []string{
		pipeline.AnalysisFile, pipeline.ReviewsFile, pipeline.ThemesFile,
		pipeline.QuotesFile, pipeline.MarkdownFile, pipeline.HTMLFile,
	} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	res := readResult(t, out)
	if res["run_id"] == "" || res["source"] != "reviews.csv" {
		t.Fatalf("unexpected header fields: run_id=%v source=%v", res["run_id"], res["source"])
	}
	if _, ok := res["summary"]; ok {
		t.Fatal("summary present without --summarize")
	}
	md, err := os.ReadFile(filepath.Join(out, pipeline.MarkdownFile))
	if err != nil {
		t.Fatalf("read md: %v", err)
	}
	if !strings.Contains(string(md), "[DATASET SUMMARY]") {
		t.Fatalf("markdown report missing dataset section")
	}
}

func TestCLI_AnalyzeXLSXWithClassifications(t *testing.T) {
	withConfig(t, nil)
	dir := t.TempDir()
	in := writeSample(t, dir, "reviews.xlsx", "90")
	out := filepath.Join(dir, "out")

	runCmd(t, "analyze", in, "-o", out, "--format", "json", "--include-classifications", "--top-quotes", "3", "-q")

	res := readResult(t, out)
	results, _ := res["results"].(map[string]any)
	if _, ok := results["tier_1_classifications"]; !ok {
		t.Fatal("classifications missing with --include-classifications")
	}
	if quotes, _ := results["quote_relevance_scoring"].([]any); len(quotes) > 3 {
		t.Fatalf("top quotes = %d, want <= 3", len(quotes))
	}
	if _, err := os.Stat(filepath.Join(out, pipeline.MarkdownFile)); err == nil {
		t.Fatal("markdown written with --format json")
	}
}

func TestCLI_AnalyzeRejectsBadFlags(t *testing.T) {
	withConfig(t, nil)
	dir := t.TempDir()
	in := writeSample(t, dir, "reviews.csv", "20")
	if err := execCmd("analyze", in, "-o", dir, "--format", "pdf"); err == nil {
		t.Fatal("expected error for --format pdf")
	}
	if err := execCmd("analyze", in, "-o", dir, "--delimiter", "#"); err == nil {
		t.Fatal("expected error for --delimiter #")
	}
	if err := execCmd("analyze", in, "-o", dir, "--top-quotes", "8"); err == nil {
		t.Fatal("expected error for --top-quotes above 5")
	}
	if err := execCmd("analyze", in, "-o", dir, "--summarize"); err == nil {
		t.Fatal("expected error for --summarize without a provider")
	}
	if err := execCmd("analyze", filepath.Join(dir, "reviews.pdf"), "-o", dir); err == nil {
		t.Fatal("expected error for a missing input")
	}
}

func TestCLI_FormatFlagDoesNotLeakBetweenRuns(t *testing.T) {
	withConfig(t, nil)
	dir := t.TempDir()
	in := writeSample(t, dir, "reviews.csv", "40")

	first := filepath.Join(dir, "first")
	runCmd(t, "analyze", in, "-o", first, "--format", "html", "-q")
	if _, err := os.Stat(filepath.Join(first, pipeline.HTMLFile)); err != nil {
		t.Fatalf("html not written: %v", err)
	}

	second := filepath.Join(dir, "second")
	runCmd(t, "analyze", in, "-o", second, "--format", "json", "-q")
	for _, name := range []string{pipeline.MarkdownFile, pipeline.HTMLFile} {
		if _, err := os.Stat(filepath.Join(second, name)); err == nil {
			t.Fatalf("%s written with --format json after an earlier --format run", name)
		}
	}

	third := filepath.Join(dir, "third")
	runCmd(t, "analyze", in, "-o", third, "-q")
	if _, err := os.Stat(filepath.Join(third, pipeline.MarkdownFile)); err != nil {
		t.Fatalf("default md not written: %v", err)
	}
}

func TestCLI_NormalizeWritesCanonicalCSV(t *testing.T) {
	withConfig(t, nil)
	dir := t.TempDir()
	in := writeSample(t, dir, "reviews.xlsx", "30")
	out := filepath.Join(dir, "std.csv")

	runCmd(t, "normalize", in, "-o", out, "-q")

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read normalized: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if !strings.HasPrefix(lines[0], "created_at,reviewer_name,review_text,rating_overall") {
		t.Fatalf("header = %q", lines[0])
	}
	if len(lines) != 31 {
		t.Fatalf("rows = %d, want 31", len(lines))
	}
}

func TestCLI_OntologyDumpAndOverride(t *testing.T) {
	dir := t.TempDir()
	ont := filepath.Join(dir, "ontology")
	runCmd(t, "ontology", "dump", ont, "-q")
	for _, name := range []string{"synonyms.yaml", "rule_keywords.yaml", "keywords.yaml"} {
		if _, err := os.Stat(filepath.Join(ont, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	// A broken override must fail the run.
	if err := os.WriteFile(filepath.Join(ont, "keywords.yaml"), []byte("{not: [yaml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	withConfig(t, &cfgpkg.Global{OntologyDir: ont})
	in := writeSample(t, dir, "reviews.csv", "20")
	if err := execCmd("analyze", in, "-o", filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected error for a broken ontology override")
	}
}

func fakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "gen-1",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCLI_AnalyzeSummarize(t *testing.T) {
	dir := t.TempDir()
	srv := fakeChatServer(t, `{"summary_points":["Cold food is the top complaint.","Service is slow on weekends."]}`)
	withConfig(t, &cfgpkg.Global{APIKey: "test-key", BaseURL: srv.URL, RetryMaxAttempts: 1})
	in := writeSample(t, dir, "reviews.csv", "60")
	out := filepath.Join(dir, "out")

	runCmd(t, "analyze", in, "-o", out, "--summarize", "--provider", "openrouter", "--model", "openai/gpt-4o-mini", "-q")

	res := readResult(t, out)
	points, _ := res["summary"].([]any)
	if len(points) != 2 || points[0] != "Cold food is the top complaint." {
		t.Fatalf("summary = %v", res["summary"])
	}
	md, _ := os.ReadFile(filepath.Join(out, pipeline.MarkdownFile))
	if !strings.Contains(string(md), "Cold food is the top complaint.") {
		t.Fatal("markdown report missing summary")
	}
}

func TestCLI_AnalyzeMalformedSummary(t *testing.T) {
	dir := t.TempDir()
	srv := fakeChatServer(t, "Customers mostly enjoyed the food.")
	withConfig(t, &cfgpkg.Global{APIKey: "test-key", BaseURL: srv.URL, RetryMaxAttempts: 1})
	in := writeSample(t, dir, "reviews.csv", "60")
	out := filepath.Join(dir, "out")

	// Without --require-summary the analysis still succeeds.
	runCmd(t, "analyze", in, "-o", out, "--summarize", "--provider", "openrouter", "-q")
	if _, ok := readResult(t, out)["summary"]; ok {
		t.Fatal("malformed summary must not be stored")
	}

	out2 := filepath.Join(dir, "out2")
	if err := execCmd("analyze", in, "-o", out2, "--summarize", "--provider", "openrouter", "--require-summary", "-q"); err == nil {
		t.Fatal("expected error with --require-summary")
	}
	// The analysis is written before the summary is attempted.
	if _, err := os.Stat(filepath.Join(out2, pipeline.AnalysisFile)); err != nil {
		t.Fatalf("analysis.json not written: %v", err)
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	oldFile := cfgFile
	t.Cleanup(func() { cfgFile = oldFile })
	withConfig(t, &cfgpkg.Global{})

	runCmd(t, "--config", path, "config", "set", "summary_provider", "Ollama")
	runCmd(t, "--config", path, "config", "set", "api_key", "sk-abcdef1234")
	if err := execCmd("--config", path, "config", "set", "summary_provider", "bard"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if err := execCmd("--config", path, "config", "set", "max_tokens", "lots"); err == nil {
		t.Fatal("expected error for non-numeric max_tokens")
	}

	c, err := cfgpkg.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SummaryProvider != "ollama" || c.APIKey != "sk-abcdef1234" {
		t.Fatalf("config = %+v", c)
	}

	var buf strings.Builder
	configShowCmd.SetOut(&buf)
	t.Cleanup(func() { configShowCmd.SetOut(nil) })
	runCmd(t, "config", "show")
	if strings.Contains(buf.String(), "sk-abcdef1234") || !strings.Contains(buf.String(), "1234") {
		t.Fatalf("api key not masked: %s", buf.String())
	}
}
