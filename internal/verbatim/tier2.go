package verbatim

import (
	"sort"

	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
	"github.com/KaramelBytes/reviewloom-cli/internal/theme"
)

const tier2Interpretation = "Tier-2 captures actionable food quality complaints describing how the food failed " +
	"(taste, texture, freshness, preparation, quantity), independent of dish identity."

// Dimension is one food quality subtheme within tier 2.
type Dimension struct {
	Concept               string  `json:"concept"`
	ReviewCount           int     `json:"review_count"`
	PercentageWithinTier2 float64 `json:"percentage_within_tier_2"`
}

// Tier2 profiles negative food quality complaints.
type Tier2 struct {
	TotalReviews                   int         `json:"total_reviews"`
	PercentageOfFoodProblemReviews float64     `json:"percentage_of_food_problem_reviews"`
	Distribution                   []Dimension `json:"quality_dimension_distribution"`
	Interpretation                 string      `json:"interpretation"`
}

// FoodQuality counts distinct reviews per negative food quality subtheme.
// foodProblem holds the tier-1 ids of the food problem domain.
func FoodQuality(rows []theme.Row, foodProblem map[int]bool) Tier2 {
	reviews := map[int]struct{}{}
	bySub := map[string]map[int]struct{}{}
	for _, r := range rows {
		if r.Theme != FoodTheme || r.Polarity != theme.PolarityNegative || !Tier2Subthemes[r.Subtheme] {
			continue
		}
		reviews[r.ReviewID] = struct{}{}
		if bySub[r.Subtheme] == nil {
			bySub[r.Subtheme] = map[int]struct{}{}
		}
		bySub[r.Subtheme][r.ReviewID] = struct{}{}
	}
	out := Tier2{
		TotalReviews:   len(reviews),
		Distribution:   []Dimension{},
		Interpretation: tier2Interpretation,
	}
	if len(foodProblem) > 0 {
		out.PercentageOfFoodProblemReviews = stats.Round(percent(len(reviews), len(foodProblem)), 2)
	}
	for sub, ids := range bySub {
		out.Distribution = append(out.Distribution, Dimension{
			Concept:               sub,
			ReviewCount:           len(ids),
			PercentageWithinTier2: stats.Round(percent(len(ids), len(reviews)), 2),
		})
	}
	sort.Slice(out.Distribution, func(i, j int) bool {
		a, b := out.Distribution[i], out.Distribution[j]
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		return a.Concept < b.Concept
	})
	return out
}

// MaxReviewCount returns the largest per-dimension review count.
func (t Tier2) MaxReviewCount() int {
	m := 0
	for _, d := range t.Distribution {
		m = max(m, d.ReviewCount)
	}
	return m
}
