package relevance

import (
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/theme"
	"github.com/KaramelBytes/reviewloom-cli/internal/verbatim"
)

// Fallback weights for signals a tier does not cover.
const (
	DefaultThemeWeight    = 0.1
	DefaultSubthemeWeight = 0.05
	DefaultPhraseWeight   = 0.3
	VagueSpecificity      = 0.3
	MinSeverity           = 0.5
	DefaultTopN           = 5
)

// Options controls scoring.
type Options struct {
	// TopN is the number of signals returned, at most DefaultTopN; <=0 means DefaultTopN.
	TopN int
	// VaguePhrases are scored with VagueSpecificity.
	VaguePhrases []string
	// Rules link tier-1 domains to theme names.
	Rules []ontology.DomainRule
}

// Signal is the representative quote of one (theme, subtheme, phrase) key.
type Signal struct {
	ReviewID       int     `json:"review_id"`
	Theme          string  `json:"theme"`
	Subtheme       string  `json:"subtheme"`
	Phrase         string  `json:"phrase"`
	Rating         float64 `json:"rating"`
	RelevanceScore float64 `json:"relevance_score"`
}

func (s Signal) key() string { return s.Theme + "\x00" + s.Subtheme + "\x00" + s.Phrase }

// Weights holds the cross-tier lookup tables.
type Weights struct {
	Theme    map[string]float64
	Subtheme map[string]float64
	Phrase   map[string]float64
	Vague    map[string]bool
}

// NewWeights derives the lookup tables from a verbatim report.
func NewWeights(rep *verbatim.Report, opt Options) Weights {
	w := Weights{
		Theme:    map[string]float64{},
		Subtheme: map[string]float64{},
		Phrase:   map[string]float64{},
		Vague:    map[string]bool{},
	}
	aliases := map[string]string{}
	for _, r := range opt.Rules {
		if r.Theme != "" {
			aliases[r.Domain] = strings.ToLower(r.Theme)
		}
	}
	if rep != nil {
		for _, d := range rep.Tier1.Distribution {
			share := d.Percentage / 100
			w.Theme[strings.ToLower(d.Domain)] = share
			if alias, ok := aliases[d.Domain]; ok {
				if _, taken := w.Theme[alias]; !taken {
					w.Theme[alias] = share
				}
			}
		}
		if m := rep.Tier2.MaxReviewCount(); m > 0 {
			for _, d := range rep.Tier2.Distribution {
				w.Subtheme[strings.ToLower(d.Concept)] = float64(d.ReviewCount) / float64(m)
			}
		}
		counts := map[string]int{}
		for _, rc := range rep.Tier3.TopRootCauses {
			counts[strings.ToLower(rc.Phrase)] += rc.Count
		}
		for p, n := range counts {
			w.Phrase[p] = math.Log1p(float64(n))
		}
	}
	for _, p := range opt.VaguePhrases {
		w.Vague[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return w
}

// Score computes severity * theme * subtheme * phrase * specificity for one
// normalized row.
func (w Weights) Score(rating float64, th, sub, phrase string) float64 {
	severity := math.Max(MinSeverity, 3-rating)
	tw, ok := w.Theme[th]
	if !ok {
		tw = DefaultThemeWeight
	}
	sw, ok := w.Subtheme[sub]
	if !ok {
		sw = DefaultSubthemeWeight
	}
	pw, ok := w.Phrase[phrase]
	if !ok {
		pw = DefaultPhraseWeight
	}
	specificity := 1.0
	if w.Vague[phrase] {
		specificity = VagueSpecificity
	}
	return severity * tw * sw * pw * specificity
}

// better orders representative candidates: higher score, then lower rating,
// then alphabetically later phrase, then lower review id.
func better(a, b Signal) bool {
	if a.RelevanceScore != b.RelevanceScore {
		return a.RelevanceScore > b.RelevanceScore
	}
	if a.Rating != b.Rating {
		return a.Rating < b.Rating
	}
	if a.Phrase != b.Phrase {
		return a.Phrase > b.Phrase
	}
	return a.ReviewID < b.ReviewID
}

// Rank scores every theme row, keeps one representative per signal key and
// returns the top signals by score.
func Rank(rows []theme.Row, rep *verbatim.Report, opt Options) []Signal {
	n := DefaultTopN
	if opt.TopN > 0 {
		n = min(opt.TopN, DefaultTopN)
	}
	w := NewWeights(rep, opt)
	reps := map[string]Signal{}
	for _, r := range rows {
		s := Signal{
			ReviewID: r.ReviewID,
			Theme:    strings.ToLower(strings.TrimSpace(r.Theme)),
			Subtheme: strings.ToLower(strings.TrimSpace(r.Subtheme)),
			Phrase:   strings.ToLower(strings.TrimSpace(r.Phrase)),
			Rating:   r.Rating,
		}
		s.RelevanceScore = w.Score(s.Rating, s.Theme, s.Subtheme, s.Phrase)
		if cur, ok := reps[s.key()]; !ok || better(s, cur) {
			reps[s.key()] = s
		}
	}
	out := make([]Signal, 0, len(reps))
	for _, s := range reps {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].key() < out[j].key()
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
