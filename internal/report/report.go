// Package report renders a pipeline result for people: Markdown with
// bracketed section tags, and HTML produced from that Markdown.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
	"github.com/KaramelBytes/reviewloom-cli/internal/quant"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
)

const maxGroupRows = 10

// Markdown renders the composite result as a standalone document.
func Markdown(res *pipeline.Result) string {
	var b strings.Builder
	b.WriteString("# Restaurant review analysis\n\n")
	if len(res.Summary) > 0 {
		b.WriteString("### [SUMMARY]\n\n")
		for _, p := range res.Summary {
			fmt.Fprintf(&b, "- %s\n", safeVal(p))
		}
		b.WriteString("\n")
	}

	b.WriteString("### [DATASET SUMMARY]\n\n")
	if res.Source != "" {
		fmt.Fprintf(&b, "- File: %s\n", res.Source)
	}
	fmt.Fprintf(&b, "- Run: %s (%s)\n", res.RunID, res.GeneratedAt)
	if n := res.Normalization; n != nil {
		fmt.Fprintf(&b, "- Rows: %d read, %d kept, %d dropped\n", n.RawRows, n.RawRows-n.DroppedRows, n.DroppedRows)
		if n.BackfilledTimestamps > 0 {
			fmt.Fprintf(&b, "- Timestamps backfilled: %d\n", n.BackfilledTimestamps)
		}
	}
	if q := res.Results.Quantitative; q != nil {
		writeQuant(&b, q)
	}
	writeThemes(&b, res)
	writeVerbatim(&b, res)
	writeQuotes(&b, res)
	return b.String()
}

func writeQuant(b *strings.Builder, q *quant.Report) {
	k := q.Descriptive.KeyInsights
	fmt.Fprintf(b, "- Scope: %s\n", k.DatasetScope)
	fmt.Fprintf(b, "- Reviews: %d over %s\n", k.TotalReviews, k.DateRange)
	fmt.Fprintf(b, "- Cities %d, restaurants %d, cuisines %d, reviewers %d\n", k.Cities, k.Restaurants, k.Cuisines, k.Reviewers)
	fmt.Fprintf(b, "- Rating: mean %.2f, median %.2f, std %.2f, range %s\n", k.AverageRating, k.MedianRating, k.StdDevRating, k.RatingRange)
	fmt.Fprintf(b, "- Likes: %.2f per review, %s with likes\n\n", k.AvgLikesPerReview, k.ReviewsWithLikes)

	writeGroups(b, "BY CITY", q.Descriptive.ByCity)
	writeGroups(b, "BY CUISINE", q.Descriptive.ByCuisine)

	b.WriteString("### [STATISTICAL TESTS]\n\n")
	t := q.Tests
	writeANOVA(b, "ANOVA by city", t.ANOVAByCity)
	writeANOVA(b, "ANOVA by cuisine", t.ANOVAByCuisine)
	if v, ok := t.TTestLikes.Get(); ok {
		fmt.Fprintf(b, "- Likes t-test: t=%s, p=%s, d=%.3f (%s), significant %s\n",
			fmtFloat(v.TStatistic), fmtFloat(v.PValue), v.CohensD, v.EffectSize, v.Significant)
	} else {
		fmt.Fprintf(b, "- Likes t-test: %s\n", t.TTestLikes.Reason())
	}
	if v, ok := t.CorrelationLikes.Get(); ok {
		fmt.Fprintf(b, "- Rating ~ likes: r=%.3f, p=%.4f (%s)\n", v.PearsonR, v.PValue, v.Strength)
	} else {
		fmt.Fprintf(b, "- Rating ~ likes: %s\n", t.CorrelationLikes.Reason())
	}
	b.WriteString("\n")

	o := q.Outliers
	b.WriteString("### [OUTLIERS]\n\n")
	fmt.Fprintf(b, "- Anomalous reviews: %d (%.2f%%)\n", o.AnomalyCount, o.AnomalyPercentage)
	if v, ok := o.RatingIQR.Get(); ok {
		fmt.Fprintf(b, "- Rating IQR outliers: %d outside [%.2f, %.2f]\n", v.OutlierCount, v.LowerBound, v.UpperBound)
	}
	if v, ok := o.LikesZScore.Get(); ok {
		fmt.Fprintf(b, "- Likes |z|>%.1f: %d\n", v.Threshold, v.OutlierCount)
	}
	b.WriteString("\n")

	ts := q.TimeSeries
	if len(ts.MonthlyTop) > 0 || len(ts.DailyTop) > 0 {
		b.WriteString("### [TIME SERIES]\n\n")
		b.WriteString("| period | mean rating | reviews | mean likes |\n| --- | --- | --- | --- |\n")
		for _, bk := range ts.MonthlyTop {
			fmt.Fprintf(b, "| %s | %.2f | %d | %.2f |\n", bk.Period, bk.MeanRating, bk.RatingCount, bk.MeanLikes)
		}
		for _, bk := range ts.DailyTop {
			fmt.Fprintf(b, "| %s | %.2f | %d | %.2f |\n", bk.Period, bk.MeanRating, bk.RatingCount, bk.MeanLikes)
		}
		b.WriteString("\n")
	}
}

func writeGroups(b *strings.Builder, title string, o quant.Outcome[map[string]stats.GroupSummary]) {
	fmt.Fprintf(b, "### [%s]\n\n", title)
	groups, ok := o.Get()
	if !ok {
		fmt.Fprintf(b, "%s\n\n", o.Reason())
		return
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		gi, gj := groups[keys[i]], groups[keys[j]]
		if gi.Count != gj.Count {
			return gi.Count > gj.Count
		}
		return keys[i] < keys[j]
	})
	b.WriteString("| group | n | mean | median | std |\n| --- | --- | --- | --- | --- |\n")
	for i, k := range keys {
		if i == maxGroupRows {
			fmt.Fprintf(b, "| ... %d more | | | | |\n", len(keys)-maxGroupRows)
			break
		}
		g := groups[k]
		fmt.Fprintf(b, "| %s | %d | %.2f | %.2f | %.2f |\n", safeVal(k), g.Count, g.Mean, g.Median, g.Std)
	}
	b.WriteString("\n")
}

func writeANOVA(b *strings.Builder, label string, o quant.Outcome[quant.ANOVA]) {
	v, ok := o.Get()
	if !ok {
		fmt.Fprintf(b, "- %s: %s\n", label, o.Reason())
		return
	}
	fmt.Fprintf(b, "- %s: F=%s, p=%s, eta²=%.3f (%s), significant %s\n",
		label, fmtFloat(v.FStatistic), fmtFloat(v.PValue), v.EtaSquared, v.EffectSize, v.Significant)
}

func writeThemes(b *strings.Builder, res *pipeline.Result) {
	ti := res.Results.ThemeInsights
	b.WriteString("### [THEMES]\n\n")
	fmt.Fprintf(b, "- Reviews processed: %d\n", ti.Summary.TotalReviewsProcessed)
	fmt.Fprintf(b, "- Theme mentions: %d\n\n", ti.Summary.TotalThemeMentions)
	if len(ti.TopConcerns) == 0 {
		b.WriteString("No recurring concern met the thresholds.\n\n")
		return
	}
	b.WriteString("| theme | subtheme | reviews | negative ratio | avg rating | score |\n| --- | --- | --- | --- | --- | --- |\n")
	for _, c := range ti.TopConcerns {
		fmt.Fprintf(b, "| %s | %s | %d | %.2f | %.2f | %.2f |\n", c.Theme, c.Subtheme, c.UniqueReviews, c.NegativeRatio, c.AvgRating, c.ConcernScore)
	}
	b.WriteString("\n")
}

func writeVerbatim(b *strings.Builder, res *pipeline.Result) {
	vr := res.Results.Verbatim
	if vr == nil {
		return
	}
	b.WriteString("### [ISSUE DOMAINS]\n\n")
	fmt.Fprintf(b, "Classified reviews: %d\n\n", vr.Tier1.TotalValidReviews)
	for _, d := range vr.Tier1.Distribution {
		fmt.Fprintf(b, "- %s: %d (%.2f%%)\n", d.Domain, d.Count, d.Percentage)
	}
	b.WriteString("\n### [FOOD QUALITY]\n\n")
	if vr.Tier2.Interpretation != "" {
		fmt.Fprintf(b, "%s\n\n", safeVal(vr.Tier2.Interpretation))
	}
	for _, d := range vr.Tier2.Distribution {
		fmt.Fprintf(b, "- %s: %d (%.2f%%)\n", d.Concept, d.ReviewCount, d.PercentageWithinTier2)
	}
	b.WriteString("\n### [ROOT CAUSES]\n\n")
	fmt.Fprintf(b, "Negative food reviews: %d\n\n", vr.Tier3.TotalNegativeFoodReviews)
	for _, rc := range vr.Tier3.TopRootCauses {
		fmt.Fprintf(b, "- %s / %s: %d (%.2f%%, avg rating %.2f)\n", rc.Subtheme, rc.Phrase, rc.Count, rc.PercentageOfFoodComplaints, rc.AvgRating)
	}
	if len(vr.Tier3.TopDishFailures) > 0 {
		b.WriteString("\n| dish | negative mentions | breakdown |\n| --- | --- | --- |\n")
		for _, d := range vr.Tier3.TopDishFailures {
			fmt.Fprintf(b, "| %s | %d | %s |\n", d.Dish, d.TotalNegativeMentions, breakdown(d.FailureBreakdown))
		}
	}
	b.WriteString("\n")
}

func writeQuotes(b *strings.Builder, res *pipeline.Result) {
	if len(res.Results.Quotes) == 0 {
		return
	}
	b.WriteString("### [REPRESENTATIVE COMPLAINTS]\n\n")
	for _, s := range res.Results.Quotes {
		fmt.Fprintf(b, "- \"%s\" (%s / %s, rating %.1f, score %.4f, review #%d)\n",
			safeVal(s.Phrase), s.Theme, s.Subtheme, s.Rating, s.RelevanceScore, s.ReviewID)
	}
	b.WriteString("\n")
}

func breakdown(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s(%d)", k, m[k])
	}
	return strings.Join(parts, ", ")
}

func fmtFloat(f quant.Float) string {
	b, err := f.MarshalJSON()
	if err != nil {
		return "?"
	}
	return strings.Trim(string(b), `"`)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// HTML renders the Markdown report into a complete HTML page.
func HTML(res *pipeline.Result) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(res)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Restaurant review analysis</title>\n")
	page.WriteString("<style>body{font-family:sans-serif;max-width:60rem;margin:2rem auto}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25rem .5rem}</style>\n")
	page.WriteString("</head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}
