// Package summary turns a finished analysis into a handful of user-facing
// bullet points with the help of a language model.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/reviewloom-cli/internal/ai"
	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
	"github.com/KaramelBytes/reviewloom-cli/internal/quant"
	"github.com/KaramelBytes/reviewloom-cli/internal/relevance"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
	"github.com/KaramelBytes/reviewloom-cli/internal/theme"
	"github.com/KaramelBytes/reviewloom-cli/internal/utils"
	"github.com/KaramelBytes/reviewloom-cli/internal/verbatim"
)

// MaxPoints bounds the accepted bullet count.
const MaxPoints = 8

// ErrMalformedResponse reports model output that is not the expected
// {"summary_points": [...]} document.
var ErrMalformedResponse = errors.New("malformed summary response")

// TimeTrends carries the peak periods of the time-series stage.
type TimeTrends struct {
	DailyPeaks   []quant.Bucket `json:"daily_peaks"`
	MonthlyPeaks []quant.Bucket `json:"monthly_peaks"`
}

// QuantSummary is the slice of the quantitative report shown to the model.
type QuantSummary struct {
	DatasetScope      quant.KeyInsights                            `json:"dataset_scope"`
	CityTrends        quant.Outcome[map[string]stats.GroupSummary] `json:"city_trends"`
	CuisineTrends     quant.Outcome[map[string]stats.GroupSummary] `json:"cuisine_trends"`
	TimeTrends        TimeTrends                                   `json:"time_trends"`
	AnomalyPercentage float64                                      `json:"anomaly_percentage"`
}

// Input is the JSON document embedded in the prompt.
type Input struct {
	QuantitativeSummary QuantSummary       `json:"quantitative_summary"`
	ThemeInsights       theme.Insights     `json:"theme_insights"`
	Verbatim            *verbatim.Report   `json:"multilayer_verbatim_analysis"`
	Quotes              []relevance.Signal `json:"quote_relevance_scoring"`
}

// NewInput extracts the summary input from a pipeline result.
func NewInput(res *pipeline.Result) Input {
	in := Input{
		ThemeInsights: res.Results.ThemeInsights,
		Verbatim:      res.Results.Verbatim,
		Quotes:        res.Results.Quotes,
	}
	if q := res.Results.Quantitative; q != nil {
		in.QuantitativeSummary = QuantSummary{
			DatasetScope:  q.Descriptive.KeyInsights,
			CityTrends:    q.Descriptive.ByCity,
			CuisineTrends: q.Descriptive.ByCuisine,
			TimeTrends: TimeTrends{
				DailyPeaks:   q.TimeSeries.DailyTop,
				MonthlyPeaks: q.TimeSeries.MonthlyTop,
			},
			AnomalyPercentage: q.Outliers.AnomalyPercentage,
		}
	}
	return in
}

// response is the structured output contract.
type response struct {
	SummaryPoints []string `json:"summary_points" jsonschema:"minItems=1,maxItems=8"`
}

// Generator asks a runtime for a summary.
type Generator struct {
	Runtime     ai.Runtime
	Model       string
	Temperature float64
	MaxTokens   int
	// Logf receives warnings such as an oversized prompt; nil discards them.
	Logf func(format string, args ...any)
}

func (g *Generator) logf(format string, args ...any) {
	if g.Logf != nil {
		g.Logf(format, args...)
	}
}

// Generate builds the prompt, calls the runtime once and parses the bullets.
func (g *Generator) Generate(ctx context.Context, in Input) ([]string, error) {
	if g.Runtime == nil {
		return nil, errors.New("summary runtime is not configured")
	}
	prompt, err := BuildPrompt(in)
	if err != nil {
		return nil, err
	}
	if mi, ok := ai.LookupModel(g.Model); ok {
		if n := utils.CountTokens(prompt); n > mi.ContextTokens {
			g.logf("prompt is ~%d tokens, above the %d-token context of %s", n, mi.ContextTokens, g.Model)
		}
	}
	schema, err := ai.SchemaFor[response]()
	if err != nil {
		return nil, err
	}
	resp, err := g.Runtime.Generate(ctx, ai.GenerateRequest{
		Model:       g.Model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   g.MaxTokens,
		Temperature: g.Temperature,
		Format: &ai.OutputSchema{
			Name:        "RestaurantSummary",
			Description: "User-facing restaurant review summary",
			Schema:      schema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}
	if cost, ok := ai.EstimateCostUSD(g.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens); ok && cost > 0 {
		g.logf("summary used %d token(s), about $%.4f", resp.Usage.TotalTokens, cost)
	}
	return Parse(resp.Text())
}

// Parse validates model output: a JSON object, possibly wrapped in prose,
// holding 1..MaxPoints non-empty bullets.
func Parse(text string) ([]string, error) {
	var r response
	if err := decodeModelJSON(text, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	points := make([]string, 0, len(r.SummaryPoints))
	for _, p := range r.SummaryPoints {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: empty bullet", ErrMalformedResponse)
		}
		points = append(points, p)
	}
	if len(points) == 0 || len(points) > MaxPoints {
		return nil, fmt.Errorf("%w: %d bullet(s), want 1..%d", ErrMalformedResponse, len(points), MaxPoints)
	}
	return points, nil
}

func decodeModelJSON(text string, v any) error {
	s := strings.TrimSpace(text)
	if s == "" {
		return errors.New("empty output")
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	// Models sometimes wrap the object in prose or a code fence.
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("unmarshal extracted JSON: %w", err)
	}
	return nil
}
