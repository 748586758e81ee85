package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KaramelBytes/reviewloom-cli/internal/ingest"
	"github.com/KaramelBytes/reviewloom-cli/internal/verbatim"
)

const sampleCSV = `Review export,,,,,
created_at,reviewer_name,review_text,rating_overall,like_count,restaurant_name,city,primary_cuisine
2024-01-01 12:00:00,ann,The biryani was served cold and stale,1,3,Spice Hub,Pune,Indian
2024-01-02 13:00:00,bob,Rude waiter and slow service,2,0,Spice Hub,Pune,Indian
2024-01-03 19:30:00,cy,Excellent and tasty food,5,1,Noodle Bar,Mumbai,Chinese
2024-02-05 20:00:00,dee,cold biryani again,1,0,Spice Hub,Pune,Indian
2024-02-06 21:00:00,eve,,4,0,Noodle Bar,Mumbai,Chinese
2024-02-07 10:00:00,fay,stale naan and burnt biryani,2,0,Spice Hub,Pune,Indian
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func fixedOptions() Options {
	opt := DefaultOptions()
	opt.Now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return opt
}

func TestRunEndToEnd(t *testing.T) {
	path := writeFile(t, "reviews.csv", sampleCSV)
	var (
		mu    sync.Mutex
		lines []string
	)
	opt := fixedOptions()
	opt.Logf = func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, format)
	}
	opt.Theme.Workers = 1

	res, err := Run(context.Background(), path, opt)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.RunID == "" || res.GeneratedAt != "2025-03-01T00:00:00Z" || res.Source != "reviews.csv" {
		t.Fatalf("header = %q %q %q", res.RunID, res.GeneratedAt, res.Source)
	}
	if res.Table.Len() != 6 || res.Normalization.HeaderRows[0] != 1 {
		t.Fatalf("table = %d header = %v", res.Table.Len(), res.Normalization.HeaderRows)
	}
	if res.Table.Reviews[4].ReviewText != "good" {
		t.Fatalf("placeholder = %q", res.Table.Reviews[4].ReviewText)
	}
	q := res.Results.Quantitative
	if q == nil || q.Metadata.TotalReviews != 6 {
		t.Fatalf("quant = %+v", q)
	}
	vr := res.Results.Verbatim
	if vr == nil || vr.Tier1.TotalValidReviews == 0 {
		t.Fatalf("verbatim = %+v", vr)
	}
	if len(res.Results.Quotes) == 0 || len(res.Results.Quotes) > 5 {
		t.Fatalf("quotes = %+v", res.Results.Quotes)
	}
	if res.Results.Classifications != nil {
		t.Fatal("classifications included without opt-in")
	}
	if len(lines) == 0 {
		t.Fatal("no progress lines logged")
	}

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(b, &generic); err != nil {
		t.Fatal(err)
	}
	results, _ := generic["results"].(map[string]any)
	for _, k := range []string{"quantitative_analysis", "theme_insights", "multilayer_verbatim_analysis", "quote_relevance_scoring"} {
		if _, ok := results[k]; !ok {
			t.Fatalf("missing results.%s in %s", k, b)
		}
	}
	if _, ok := generic["summary"]; ok {
		t.Fatal("summary should be omitted when absent")
	}
}

func TestRunIncludesClassifications(t *testing.T) {
	path := writeFile(t, "reviews.csv", sampleCSV)
	opt := fixedOptions()
	opt.IncludeClassifications = true
	res, err := Run(context.Background(), path, opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Results.Classifications) != res.Results.Verbatim.Tier1.TotalValidReviews {
		t.Fatalf("classifications = %+v", res.Results.Classifications)
	}
}

func TestRunNoClassifiedReviews(t *testing.T) {
	path := writeFile(t, "plain.csv", "review,rating\nfine,3\nokay,4\n")
	_, err := Run(context.Background(), path, fixedOptions())
	if !errors.Is(err, verbatim.ErrNoClassifiedReviews) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "tier-1 classification") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "reviews.json", "[]")
	_, err := Run(context.Background(), path, fixedOptions())
	if !errors.Is(err, ingest.ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
}

func TestWriteArtifacts(t *testing.T) {
	path := writeFile(t, "reviews.csv", sampleCSV)
	res, err := Run(context.Background(), path, fixedOptions())
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "out")
	written, err := WriteArtifacts(dir, res)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(written) != 4 {
		t.Fatalf("written = %v", written)
	}
	themes, err := os.ReadFile(filepath.Join(dir, ThemesFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(themes), "review_id,rating,theme,subtheme,polarity,phrase\n") {
		t.Fatalf("themes.csv = %s", themes)
	}
	reviews, _ := os.ReadFile(filepath.Join(dir, ReviewsFile))
	if got := strings.Count(string(reviews), "\n"); got != 7 {
		t.Fatalf("standardized rows = %d", got)
	}
	var back map[string]any
	b, _ := os.ReadFile(filepath.Join(dir, AnalysisFile))
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("analysis.json: %v", err)
	}
	if back["run_id"] != res.RunID {
		t.Fatalf("run_id = %v", back["run_id"])
	}
}
