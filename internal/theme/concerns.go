package theme

import "sort"

// ConcernOptions filters and ranks (theme, subtheme) concerns.
type ConcernOptions struct {
	MinReviews       int
	MinNegativeRatio float64
	MaxAvgRating     float64
	TopK             int
}

// DefaultConcernOptions returns the standard concern filter.
func DefaultConcernOptions() ConcernOptions {
	return ConcernOptions{MinReviews: 3, MinNegativeRatio: 0.6, MaxAvgRating: 3.0, TopK: 10}
}

// Concern aggregates the rows of one (theme, subtheme) pair.
type Concern struct {
	Theme            string  `json:"theme"`
	Subtheme         string  `json:"subtheme"`
	TotalMentions    int     `json:"total_mentions"`
	UniqueReviews    int     `json:"unique_reviews"`
	NegativeMentions int     `json:"negative_mentions"`
	AvgRating        float64 `json:"avg_rating"`
	NegativeRatio    float64 `json:"negative_ratio"`
	ConcernScore     float64 `json:"concern_score"`
}

// Summary counts the extraction volume.
type Summary struct {
	TotalReviewsProcessed int `json:"total_reviews_processed"`
	TotalThemeMentions    int `json:"total_theme_mentions"`
}

// Insights is the theme extraction report.
type Insights struct {
	Summary     Summary   `json:"summary"`
	TopConcerns []Concern `json:"top_genuine_concerns"`
}

// Concerns ranks (theme, subtheme) pairs by
// unique_reviews * negative_ratio * (3.5 - avg_rating).
func Concerns(rows []Row, opt ConcernOptions) []Concern {
	if opt == (ConcernOptions{}) {
		opt = DefaultConcernOptions()
	}
	type key struct{ theme, subtheme string }
	type agg struct {
		Concern
		reviews   map[int]struct{}
		ratingSum float64
	}
	groups := map[key]*agg{}
	for _, r := range rows {
		k := key{r.Theme, r.Subtheme}
		a := groups[k]
		if a == nil {
			a = &agg{Concern: Concern{Theme: r.Theme, Subtheme: r.Subtheme}, reviews: map[int]struct{}{}}
			groups[k] = a
		}
		a.TotalMentions++
		a.reviews[r.ReviewID] = struct{}{}
		a.ratingSum += r.Rating
		if r.Polarity == PolarityNegative {
			a.NegativeMentions++
		}
	}
	out := []Concern{}
	for _, a := range groups {
		c := a.Concern
		c.UniqueReviews = len(a.reviews)
		c.AvgRating = a.ratingSum / float64(c.TotalMentions)
		c.NegativeRatio = float64(c.NegativeMentions) / float64(c.TotalMentions)
		c.ConcernScore = float64(c.UniqueReviews) * c.NegativeRatio * (3.5 - c.AvgRating)
		if c.UniqueReviews < opt.MinReviews || c.NegativeRatio < opt.MinNegativeRatio || c.AvgRating > opt.MaxAvgRating {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConcernScore != out[j].ConcernScore {
			return out[i].ConcernScore > out[j].ConcernScore
		}
		if out[i].Theme != out[j].Theme {
			return out[i].Theme < out[j].Theme
		}
		return out[i].Subtheme < out[j].Subtheme
	})
	if opt.TopK > 0 && len(out) > opt.TopK {
		out = out[:opt.TopK]
	}
	return out
}
