package quant

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
)

// Dataset scopes.
const (
	ScopeSingleRestaurantSingleCity    = "SINGLE_RESTAURANT_SINGLE_CITY"
	ScopeMultipleRestaurantsSingleCity = "MULTIPLE_RESTAURANTS_SINGLE_CITY"
	ScopeMultipleCities                = "MULTIPLE_CITIES"
)

// KeyInsights are the headline metrics of a dataset.
type KeyInsights struct {
	DatasetScope       string  `json:"Dataset Scope"`
	TotalReviews       int     `json:"Total Reviews"`
	DateRange          string  `json:"Date Range"`
	Cities             int     `json:"Number of Cities"`
	Restaurants        int     `json:"Number of Restaurants"`
	Cuisines           int     `json:"Number of Cuisines"`
	Reviewers          int     `json:"Number of Reviewers"`
	AverageRating      float64 `json:"Average Rating"`
	MedianRating       float64 `json:"Median Rating"`
	StdDevRating       float64 `json:"Std Dev Rating"`
	CVRating           float64 `json:"CV Rating (%)"`
	RatingRange        string  `json:"Rating Range"`
	AvgLikesPerReview  float64 `json:"Avg Likes per Review"`
	CVLikes            float64 `json:"CV Likes (%)"`
	ReviewsWithLikes   string  `json:"Reviews with Likes"`
	ReviewsWithLikesN  int     `json:"-"`
	ReviewsWithLikesPc float64 `json:"-"`
}

// OverallStats summarizes the numeric columns.
type OverallStats struct {
	Rating                stats.Summary `json:"rating_overall"`
	Likes                 stats.Summary `json:"like_count"`
	RestaurantRating      stats.Summary `json:"restaurant_overall_rating"`
	RestaurantReviewCount stats.Summary `json:"restaurant_review_count"`
}

// NamedGroup is a group summary that keeps its rank position.
type NamedGroup struct {
	Name string `json:"name"`
	stats.GroupSummary
}

// Descriptive is stage 1.
type Descriptive struct {
	KeyInsights       KeyInsights                            `json:"key_insights"`
	OverallStats      OverallStats                           `json:"overall_stats"`
	ByCity            Outcome[map[string]stats.GroupSummary] `json:"by_city"`
	ByCuisine         Outcome[map[string]stats.GroupSummary] `json:"by_cuisine"`
	ByRestaurantTop20 Outcome[[]NamedGroup]                  `json:"by_restaurant_top20"`
}

// Scope classifies a dataset by its distinct city and restaurant counts.
func Scope(cities, restaurants int) string {
	switch {
	case cities <= 1 && restaurants <= 1:
		return ScopeSingleRestaurantSingleCity
	case cities <= 1:
		return ScopeMultipleRestaurantsSingleCity
	default:
		return ScopeMultipleCities
	}
}

func describe(t *review.Table, opt Options) Descriptive {
	var d Descriptive
	d.KeyInsights = keyInsights(t)
	d.OverallStats = overallStats(t)

	if d.KeyInsights.Cities > 1 {
		d.ByCity = Computed(groupMap(t, byCity))
	} else {
		d.ByCity = NotApplicable[map[string]stats.GroupSummary](ReasonOneCity)
	}
	if d.KeyInsights.Cuisines > 1 {
		d.ByCuisine = Computed(groupMap(t, byCuisine))
	} else {
		d.ByCuisine = NotApplicable[map[string]stats.GroupSummary](ReasonOneCuisine)
	}
	if d.KeyInsights.Restaurants > 1 {
		d.ByRestaurantTop20 = Computed(topRestaurants(t, opt.TopRestaurants))
	} else {
		d.ByRestaurantTop20 = NotApplicable[[]NamedGroup](ReasonOneRestaurant)
	}
	return d
}

func keyInsights(t *review.Table) KeyInsights {
	n := t.Len()
	ki := KeyInsights{
		TotalReviews: n,
		Cities:       distinct(t, byCity),
		Restaurants:  distinct(t, byRestaurant),
		Cuisines:     distinct(t, byCuisine),
		Reviewers:    distinct(t, byReviewer),
	}
	ki.DatasetScope = Scope(ki.Cities, ki.Restaurants)
	if n == 0 {
		ki.DateRange = "N/A"
		ki.RatingRange = "N/A"
		ki.ReviewsWithLikes = "0 (0.0%)"
		return ki
	}
	start, end := t.DateRange()
	ki.DateRange = fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))

	ratings := stats.Describe(t.Ratings())
	ki.AverageRating = stats.Round(ratings.Mean, 2)
	ki.MedianRating = ratings.Q50
	ki.StdDevRating = stats.Round(ratings.Std, 2)
	ki.CVRating = stats.Round(ratings.CV, 2)
	ki.RatingRange = fmt.Sprintf("%.0f - %.0f", ratings.Min, ratings.Max)

	likes := stats.Describe(t.Likes())
	ki.AvgLikesPerReview = stats.Round(likes.Mean, 2)
	ki.CVLikes = stats.Round(likes.CV, 2)
	for _, r := range t.Reviews {
		if r.LikeCount > 0 {
			ki.ReviewsWithLikesN++
		}
	}
	ki.ReviewsWithLikesPc = float64(ki.ReviewsWithLikesN) / float64(n) * 100
	ki.ReviewsWithLikes = fmt.Sprintf("%d (%.1f%%)", ki.ReviewsWithLikesN, ki.ReviewsWithLikesPc)
	return ki
}

func overallStats(t *review.Table) OverallStats {
	restRating := make([]float64, t.Len())
	restCount := make([]float64, t.Len())
	for i, r := range t.Reviews {
		restRating[i] = r.RestaurantOverallRating
		restCount[i] = float64(r.RestaurantReviewCount)
	}
	return OverallStats{
		Rating:                stats.Describe(t.Ratings()),
		Likes:                 stats.Describe(t.Likes()),
		RestaurantRating:      stats.Describe(restRating),
		RestaurantReviewCount: stats.Describe(restCount),
	}
}

func groupMap(t *review.Table, key func(review.Review) string) map[string]stats.GroupSummary {
	_, groups := groupRatings(t, key)
	out := make(map[string]stats.GroupSummary, len(groups))
	for k, vals := range groups {
		out[k] = stats.SummarizeGroup(vals)
	}
	return out
}

// topRestaurants ranks restaurants by review count (name ascending on ties).
func topRestaurants(t *review.Table, limit int) []NamedGroup {
	order, groups := groupRatings(t, byRestaurant)
	out := make([]NamedGroup, 0, len(order))
	for _, name := range order {
		out = append(out, NamedGroup{Name: name, GroupSummary: stats.SummarizeGroup(groups[name])})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
