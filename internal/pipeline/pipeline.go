package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/reviewloom-cli/internal/ingest"
	"github.com/KaramelBytes/reviewloom-cli/internal/normalize"
	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/quant"
	"github.com/KaramelBytes/reviewloom-cli/internal/relevance"
	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/theme"
	"github.com/KaramelBytes/reviewloom-cli/internal/verbatim"
)

// Options configures one pipeline run.
type Options struct {
	Ingest    ingest.Options
	Normalize normalize.Options
	Quant     quant.Options
	Theme     theme.Options
	// TopQuotes is the number of relevance signals kept; <=0 means 5.
	TopQuotes int
	// Ontology supplies every keyword table; nil loads the embedded defaults.
	Ontology *ontology.Ontology
	// IncludeClassifications adds the per-review tier-1 labels to the result.
	IncludeClassifications bool
	// Logf receives progress lines; nil discards them.
	Logf func(format string, args ...any)
	// Now stamps the run; nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard pipeline settings.
func DefaultOptions() Options {
	return Options{
		Normalize: normalize.DefaultOptions(),
		Quant:     quant.DefaultOptions(),
		Theme:     theme.Options{Concerns: theme.DefaultConcernOptions()},
		TopQuotes: relevance.DefaultTopN,
	}
}

// Results groups the outputs of the quantitative and qualitative branches.
type Results struct {
	Quantitative    *quant.Report             `json:"quantitative_analysis"`
	ThemeInsights   theme.Insights            `json:"theme_insights"`
	Verbatim        *verbatim.Report          `json:"multilayer_verbatim_analysis"`
	Quotes          []relevance.Signal        `json:"quote_relevance_scoring"`
	Classifications []verbatim.Classification `json:"tier_1_classifications,omitempty"`
}

// Result is the composite record of one run.
type Result struct {
	RunID         string           `json:"run_id"`
	GeneratedAt   string           `json:"generated_at"`
	Source        string           `json:"source"`
	Normalization *normalize.Stats `json:"normalization"`
	Results       Results          `json:"results"`
	Summary       []string         `json:"summary,omitempty"`

	Table     *review.Table `json:"-"`
	ThemeRows []theme.Row   `json:"-"`
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Run reads path, normalizes it and analyses the resulting table.
func Run(ctx context.Context, path string, opt Options) (*Result, error) {
	if opt.Ontology == nil {
		o, err := ontology.Default()
		if err != nil {
			return nil, fmt.Errorf("load ontology: %w", err)
		}
		opt.Ontology = o
	}
	raw, err := ingest.ReadFile(path, opt.Ingest)
	if err != nil {
		return nil, err
	}
	opt.logf("Read %d row(s) from %d sheet(s) of %s", raw.Rows(), len(raw.Sheets), raw.Name)

	table, st, err := normalize.Normalize(raw, opt.Ontology.Synonyms, opt.Normalize)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	opt.logf("Normalized %d review(s) (%d dropped, %d timestamp(s) backfilled)", table.Len(), st.DroppedRows, st.BackfilledTimestamps)

	res, err := Analyze(ctx, table, opt)
	if err != nil {
		return nil, err
	}
	res.Source = filepath.Base(path)
	res.Normalization = st
	return res, nil
}

// Analyze runs the quantitative engine and the qualitative chain over a
// normalized table. The two branches run concurrently.
func Analyze(ctx context.Context, table *review.Table, opt Options) (*Result, error) {
	if opt.Ontology == nil {
		o, err := ontology.Default()
		if err != nil {
			return nil, fmt.Errorf("load ontology: %w", err)
		}
		opt.Ontology = o
	}
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	if opt.Quant.Now == nil {
		opt.Quant.Now = now
	}
	res := &Result{
		RunID:       uuid.NewString(),
		GeneratedAt: now().UTC().Format(time.RFC3339),
		Table:       table,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Results.Quantitative = quant.Analyze(table, opt.Quant)
		opt.logf("Quantitative analysis complete")
		return nil
	})
	g.Go(func() error {
		return qualitative(gctx, table, opt, res)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// qualitative runs theme extraction, the verbatim tiers and relevance
// scoring, writing only the qualitative fields of res.
func qualitative(ctx context.Context, table *review.Table, opt Options, res *Result) error {
	themes, err := theme.Extract(ctx, table, opt.Ontology.Keywords, opt.Theme)
	if err != nil {
		return fmt.Errorf("theme extraction: %w", err)
	}
	opt.logf("Extracted %d theme mention(s)", len(themes.Rows))

	vr, err := verbatim.Analyze(table, themes.Rows, opt.Ontology)
	if err != nil {
		return fmt.Errorf("tier-1 classification: %w", err)
	}
	opt.logf("Classified %d review(s) into %d domain(s)", vr.Tier1.TotalValidReviews, len(vr.Tier1.Distribution))

	quotes := relevance.Rank(themes.Rows, vr, relevance.Options{
		TopN:         opt.TopQuotes,
		VaguePhrases: opt.Ontology.VaguePhrases,
		Rules:        opt.Ontology.Rules,
	})
	opt.logf("Ranked %d representative quote(s)", len(quotes))

	res.ThemeRows = themes.Rows
	res.Results.ThemeInsights = themes.Insights
	res.Results.Verbatim = vr
	res.Results.Quotes = quotes
	if opt.IncludeClassifications {
		res.Results.Classifications = vr.Tier1.Classifications
	}
	return nil
}
