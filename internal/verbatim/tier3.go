package verbatim

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
	"github.com/KaramelBytes/reviewloom-cli/internal/theme"
)

// Tier-3 limits.
const (
	LowRatingMax    = 2.0
	TopRootCauses   = 5
	TopDishFailures = 10
	MinDishMentions = 3
)

// RootCause is one (subtheme, phrase) pair among low-rated food complaints.
type RootCause struct {
	Subtheme                   string  `json:"subtheme"`
	Phrase                     string  `json:"phrase"`
	Count                      int     `json:"count"`
	PercentageOfFoodComplaints float64 `json:"percentage_of_food_complaints"`
	AvgRating                  float64 `json:"avg_rating"`
}

// DishFailure attributes negative food mentions to a dish.
type DishFailure struct {
	Dish                  string         `json:"dish"`
	TotalNegativeMentions int            `json:"total_negative_mentions"`
	FailureBreakdown      map[string]int `json:"failure_breakdown"`
}

// Tier3 is the root cause analysis of low-rated food complaints.
type Tier3 struct {
	TotalNegativeFoodReviews int           `json:"total_negative_food_reviews"`
	TopRootCauses            []RootCause   `json:"top_root_causes"`
	TopDishFailures          []DishFailure `json:"top_10_dish_failures"`
}

type dishHit struct {
	dish   string
	phrase string
}

// RootCauses analyses negative food rows rated at most LowRatingMax.
func RootCauses(t *review.Table, rows []theme.Row, dishes []string, concepts *ontology.Concepts) Tier3 {
	var neg []theme.Row
	for _, r := range rows {
		if r.Theme == FoodTheme && r.Polarity == theme.PolarityNegative && r.Rating <= LowRatingMax {
			neg = append(neg, r)
		}
	}
	return Tier3{
		TotalNegativeFoodReviews: len(neg),
		TopRootCauses:            topRootCauses(neg),
		TopDishFailures:          dishFailures(t, neg, dishes, concepts),
	}
}

func topRootCauses(neg []theme.Row) []RootCause {
	type key struct{ subtheme, phrase string }
	var order []key
	counts := map[key]int{}
	sums := map[key]float64{}
	for _, r := range neg {
		k := key{r.Subtheme, r.Phrase}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
		sums[k] += r.Rating
	}
	out := make([]RootCause, 0, len(order))
	for _, k := range order {
		out = append(out, RootCause{
			Subtheme:                   k.subtheme,
			Phrase:                     k.phrase,
			Count:                      counts[k],
			PercentageOfFoodComplaints: stats.Round(percent(counts[k], len(neg)), 2),
			AvgRating:                  stats.Round(sums[k]/float64(counts[k]), 2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > TopRootCauses {
		out = out[:TopRootCauses]
	}
	return out
}

// matchDishes is the per-row map step: every dish whose name occurs in the
// review text yields one hit for the row's phrase.
func matchDishes(text, phrase string, dishes []string) []dishHit {
	text = strings.ToLower(text)
	var hits []dishHit
	for _, d := range dishes {
		if d != "" && strings.Contains(text, strings.ToLower(d)) {
			hits = append(hits, dishHit{dish: d, phrase: strings.ToLower(phrase)})
		}
	}
	return hits
}

func dishFailures(t *review.Table, neg []theme.Row, dishes []string, concepts *ontology.Concepts) []DishFailure {
	var order []string
	tally := map[string]map[string]int{}
	for _, r := range neg {
		if r.ReviewID < 0 || r.ReviewID >= t.Len() {
			continue
		}
		for _, h := range matchDishes(t.Reviews[r.ReviewID].ReviewText, r.Phrase, dishes) {
			if tally[h.dish] == nil {
				tally[h.dish] = map[string]int{}
				order = append(order, h.dish)
			}
			tally[h.dish][h.phrase]++
		}
	}
	out := []DishFailure{}
	for _, d := range order {
		total := 0
		breakdown := map[string]int{}
		for phrase, n := range tally[d] {
			total += n
			breakdown[concepts.Canonical(phrase)] += n
		}
		if total < MinDishMentions {
			continue
		}
		out = append(out, DishFailure{Dish: d, TotalNegativeMentions: total, FailureBreakdown: breakdown})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalNegativeMentions > out[j].TotalNegativeMentions
	})
	if len(out) > TopDishFailures {
		out = out[:TopDishFailures]
	}
	return out
}
