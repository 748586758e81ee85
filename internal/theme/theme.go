package theme

import (
	"context"
	"regexp"
	"runtime"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/review"
)

// GeneralSubtheme replaces an empty keyword subtheme.
const GeneralSubtheme = "general"

// Polarity values used by the keyword table.
const (
	PolarityNegative = "negative"
	PolarityPositive = "positive"
)

var stopWords = map[string]struct{}{
	"was": {}, "is": {}, "are": {}, "were": {},
	"the": {}, "a": {}, "an": {},
	"and": {}, "or": {}, "but": {},
	"this": {}, "that": {}, "there": {},
	"then": {}, "very": {}, "really": {},
}

var (
	nonLetters = regexp.MustCompile(`[^a-z\s]+`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Row is one keyword match in one review.
type Row struct {
	ReviewID int     `json:"review_id"`
	Rating   float64 `json:"rating"`
	Theme    string  `json:"theme"`
	Subtheme string  `json:"subtheme"`
	Polarity string  `json:"polarity"`
	Phrase   string  `json:"phrase"`
}

// Options controls extraction.
type Options struct {
	// Workers bounds the number of concurrent chunks; <=0 means runtime.NumCPU().
	Workers int
	// ChunkSize is the number of reviews per unit of work; <=0 means 256.
	ChunkSize int
	Concerns  ConcernOptions
}

// Result holds the flattened rows and their aggregate insights.
type Result struct {
	Rows     []Row    `json:"-"`
	Insights Insights `json:"insights"`
}

// Matcher matches normalized review text against a keyword table.
type Matcher struct {
	phrases []ontology.Keyword
	tokens  []ontology.Keyword
}

// NewMatcher splits keywords into multi-word phrases and single tokens.
func NewMatcher(keywords []ontology.Keyword) *Matcher {
	m := &Matcher{}
	for _, k := range keywords {
		if k.IsPhrase() {
			m.phrases = append(m.phrases, k)
		} else {
			m.tokens = append(m.tokens, k)
		}
	}
	return m
}

// NormalizeText folds accents, lowercases, maps non-letters to spaces and
// collapses whitespace.
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = nonLetters.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// Match returns the distinct keyword hits of text, phrases first.
func (m *Matcher) Match(text string) []ontology.Keyword {
	clean := NormalizeText(text)
	tokens := map[string]struct{}{}
	for _, tok := range strings.Fields(clean) {
		if _, stop := stopWords[tok]; !stop {
			tokens[tok] = struct{}{}
		}
	}
	var hits []ontology.Keyword
	seen := map[ontology.Keyword]struct{}{}
	add := func(k ontology.Keyword) {
		if k.Subtheme == "" {
			k.Subtheme = GeneralSubtheme
		}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		hits = append(hits, k)
	}
	for _, k := range m.phrases {
		if strings.Contains(clean, k.Phrase) {
			add(k)
		}
	}
	for _, k := range m.tokens {
		if _, ok := tokens[k.Phrase]; ok {
			add(k)
		}
	}
	return hits
}

// Rows flattens hits for one review, grouped by theme, then subtheme, then
// polarity in first-match order.
func Rows(reviewID int, rating float64, hits []ontology.Keyword) []Row {
	type group struct {
		key     [3]string
		phrases []string
	}
	var themes []string
	bySub := map[string][]string{}
	byPol := map[[2]string][]string{}
	groups := map[[3]string]*group{}
	for _, h := range hits {
		if _, ok := bySub[h.Theme]; !ok {
			themes = append(themes, h.Theme)
			bySub[h.Theme] = nil
		}
		sk := [2]string{h.Theme, h.Subtheme}
		if _, ok := byPol[sk]; !ok {
			bySub[h.Theme] = append(bySub[h.Theme], h.Subtheme)
			byPol[sk] = nil
		}
		gk := [3]string{h.Theme, h.Subtheme, h.Polarity}
		g, ok := groups[gk]
		if !ok {
			byPol[sk] = append(byPol[sk], h.Polarity)
			g = &group{key: gk}
			groups[gk] = g
		}
		g.phrases = append(g.phrases, h.Phrase)
	}
	var out []Row
	for _, th := range themes {
		for _, sub := range bySub[th] {
			for _, pol := range byPol[[2]string{th, sub}] {
				for _, p := range groups[[3]string{th, sub, pol}].phrases {
					out = append(out, Row{ReviewID: reviewID, Rating: rating, Theme: th, Subtheme: sub, Polarity: pol, Phrase: p})
				}
			}
		}
	}
	return out
}

// Extract matches every review against keywords. Reviews are scanned in
// parallel chunks and the rows are concatenated in review order, so the
// output does not depend on the worker count.
func Extract(ctx context.Context, t *review.Table, keywords []ontology.Keyword, opt Options) (*Result, error) {
	m := NewMatcher(keywords)
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	size := opt.ChunkSize
	if size <= 0 {
		size = 256
	}
	n := t.Len()
	chunks := (n + size - 1) / size
	parts := make([][]Row, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := 0; c < chunks; c++ {
		lo, hi := c*size, min((c+1)*size, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var rows []Row
			for i := lo; i < hi; i++ {
				r := t.Reviews[i]
				rows = append(rows, Rows(i, r.RatingOverall, m.Match(r.ReviewText))...)
			}
			parts[c] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := []Row{}
	for _, p := range parts {
		rows = append(rows, p...)
	}
	return &Result{
		Rows: rows,
		Insights: Insights{
			Summary: Summary{
				TotalReviewsProcessed: n,
				TotalThemeMentions:    len(rows),
			},
			TopConcerns: Concerns(rows, opt.Concerns),
		},
	}, nil
}
