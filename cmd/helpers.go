package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/reviewloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/reviewloom-cli/internal/config"
	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
	"github.com/KaramelBytes/reviewloom-cli/internal/summary"
)

// progressf returns a Logf hook writing "✓ ..." lines to w, or nil when quiet.
func progressf(w io.Writer, quiet bool) func(string, ...any) {
	if quiet {
		return nil
	}
	return func(format string, args ...any) {
		fmt.Fprintf(w, "✓ "+format+"\n", args...)
	}
}

// pipelineOptions maps configuration onto pipeline settings and loads the
// ontology once for the whole command.
func pipelineOptions(cfg *cfgpkg.Global) (pipeline.Options, error) {
	opt := pipeline.DefaultOptions()
	dir := ""
	if cfg != nil {
		dir = cfg.OntologyDir
		if cfg.HeaderScanRows > 0 {
			opt.Normalize.HeaderScanRows = cfg.HeaderScanRows
		}
		if cfg.Workers > 0 {
			opt.Theme.Workers = cfg.Workers
		}
		if cfg.AnomalyDetails > 0 {
			opt.Quant.MaxAnomalyDetails = cfg.AnomalyDetails
		}
	}
	o, err := ontology.Load(dir)
	if err != nil {
		return opt, fmt.Errorf("load ontology: %w", err)
	}
	opt.Ontology = o
	return opt, nil
}

// parseDelimiter accepts a literal delimiter or one of its names.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s (use ','|';'|'tab'|'|')", s)
	}
}

// selectProvider resolves the summary provider: explicit flag, then config.
func selectProvider(cfg *cfgpkg.Global, explicit string) string {
	p := strings.ToLower(strings.TrimSpace(explicit))
	if p == "" && cfg != nil {
		p = strings.ToLower(strings.TrimSpace(cfg.SummaryProvider))
	}
	if p == "" {
		p = ai.ProviderNone
	}
	return p
}

// selectModel resolves the model: explicit flag, then config, then the provider default.
func selectModel(cfg *cfgpkg.Global, provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.SummaryModel != "" {
		return cfg.SummaryModel
	}
	if m, ok := ai.DefaultModel(provider); ok {
		return m
	}
	return ""
}

// buildRuntime constructs the configured summary runtime.
func buildRuntime(cfg *cfgpkg.Global, provider string) (ai.Runtime, error) {
	if provider == ai.ProviderNone {
		return nil, fmt.Errorf("no summary provider configured (use --provider or set summary_provider)")
	}
	rc := ai.RuntimeConfig{}
	if cfg != nil {
		rc.APIKey = cfg.APIKey
		rc.BaseURL = cfg.BaseURL
		rc.Host = cfg.OllamaHost
		if cfg.HTTPTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		}
		if cfg.RetryMaxAttempts > 0 {
			rc.RetryMax = cfg.RetryMaxAttempts
		}
		if cfg.RetryBaseDelayMs > 0 {
			rc.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		}
		if cfg.RetryMaxDelayMs > 0 {
			rc.MaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		}
	}
	return ai.NewRuntime(provider, rc)
}

// summarize generates bullet points for res with the configured runtime.
func summarize(ctx context.Context, cfg *cfgpkg.Global, provider, model string, res *pipeline.Result, logf func(string, ...any)) ([]string, error) {
	rt, err := buildRuntime(cfg, provider)
	if err != nil {
		return nil, err
	}
	g := &summary.Generator{Runtime: rt, Model: selectModel(cfg, provider, model), Logf: logf}
	if cfg != nil {
		g.Temperature = cfg.Temperature
		g.MaxTokens = cfg.MaxTokens
	}
	return g.Generate(ctx, summary.NewInput(res))
}

// expandInputs resolves globs and literal paths into a sorted, de-duplicated list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// outputDirs gives each input its own directory under base. Inputs sharing a
// basename get a "__N" suffix in sorted order.
func outputDirs(base string, files []string) []string {
	dirs := make([]string, len(files))
	if len(files) == 1 {
		dirs[0] = base
		return dirs
	}
	used := map[string]int{}
	for i, f := range files {
		stem := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		used[stem]++
		name := stem
		if n := used[stem]; n > 1 {
			name = fmt.Sprintf("%s__%d", stem, n)
		}
		dirs[i] = filepath.Join(base, name)
	}
	return dirs
}
