package quant

import (
	"time"

	"github.com/KaramelBytes/reviewloom-cli/internal/review"
)

// Options controls the quantitative engine.
type Options struct {
	TopRestaurants    int
	MinGroupSize      int
	MinTTestGroupSize int
	IQRMultiplier     float64
	ZThreshold        float64
	MaxAnomalyDetails int
	TopDays           int
	TopMonths         int
	DailyWindow       int
	MonthlyWindow     int
	CityMonthMinCount int
	CitiesPerMonth    int
	CuisineMinCount   int
	TopCuisines       int
	// Now stamps metadata.generated_at; nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		TopRestaurants:    20,
		MinGroupSize:      3,
		MinTTestGroupSize: 5,
		IQRMultiplier:     1.5,
		ZThreshold:        3,
		MaxAnomalyDetails: 25,
		TopDays:           10,
		TopMonths:         3,
		DailyWindow:       7,
		MonthlyWindow:     3,
		CityMonthMinCount: 5,
		CitiesPerMonth:    3,
		CuisineMinCount:   30,
		TopCuisines:       5,
	}
}

// Metadata describes the analysed dataset.
type Metadata struct {
	TotalReviews   int    `json:"total_reviews"`
	DateRangeStart string `json:"date_range_start"`
	DateRangeEnd   string `json:"date_range_end"`
	GeneratedAt    string `json:"generated_at"`
}

// Report is the four-stage quantitative analysis.
type Report struct {
	Metadata    Metadata    `json:"metadata"`
	Descriptive Descriptive `json:"stage_1_descriptive_statistics"`
	Tests       Tests       `json:"stage_2_statistical_tests"`
	Outliers    Outliers    `json:"stage_3_outlier_detection"`
	TimeSeries  TimeSeries  `json:"stage_4_time_series"`
}

// Analyze runs every stage over t. It never fails: stages lacking data
// report not-applicable outcomes instead.
func Analyze(t *review.Table, opt Options) *Report {
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	rep := &Report{
		Metadata: Metadata{
			TotalReviews: t.Len(),
			GeneratedAt:  now().UTC().Format(time.RFC3339),
		},
	}
	if t.Len() > 0 {
		start, end := t.DateRange()
		rep.Metadata.DateRangeStart = start.Format("2006-01-02")
		rep.Metadata.DateRangeEnd = end.Format("2006-01-02")
	}
	rep.Descriptive = describe(t, opt)
	rep.Tests = runTests(t, opt)
	rep.Outliers = detectOutliers(t, opt)
	rep.TimeSeries = buildTimeSeries(t, opt)
	return rep
}

// groupRatings collects ratings per key in first-seen key order.
func groupRatings(t *review.Table, key func(review.Review) string) ([]string, map[string][]float64) {
	var order []string
	groups := map[string][]float64{}
	for _, r := range t.Reviews {
		k := key(r)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r.RatingOverall)
	}
	return order, groups
}

func byCity(r review.Review) string       { return r.City }
func byCuisine(r review.Review) string    { return r.PrimaryCuisine }
func byRestaurant(r review.Review) string { return r.RestaurantName }
func byReviewer(r review.Review) string   { return r.ReviewerName }

func distinct(t *review.Table, key func(review.Review) string) int {
	seen := map[string]struct{}{}
	for _, r := range t.Reviews {
		seen[key(r)] = struct{}{}
	}
	return len(seen)
}
