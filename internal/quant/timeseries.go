package quant

import (
	"sort"
	"time"

	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
)

// Bucket is one day or month of the overall rating series.
type Bucket struct {
	Period       string   `json:"period"`
	MeanRating   float64  `json:"mean_rating"`
	MedianRating float64  `json:"median_rating"`
	RatingCount  int      `json:"rating_count"`
	MeanLikes    float64  `json:"mean_likes"`
	RollingMean  float64  `json:"mean_rating_roll"`
	Delta        *float64 `json:"delta_rating"`
}

// CityMonth is a city's ratings within one month.
type CityMonth struct {
	Month       string  `json:"month"`
	City        string  `json:"city"`
	MeanRating  float64 `json:"mean_rating"`
	RatingCount int     `json:"rating_count"`
	MeanLikes   float64 `json:"mean_likes"`
}

// CuisineRank is a cuisine's overall rating.
type CuisineRank struct {
	Cuisine     string  `json:"primary_cuisine"`
	MeanRating  float64 `json:"mean_rating"`
	RatingCount int     `json:"rating_count"`
}

// TimeSeries is stage 4.
type TimeSeries struct {
	DailyTop       []Bucket      `json:"ts_daily_overall_top"`
	MonthlyTop     []Bucket      `json:"ts_monthly_overall_top"`
	MonthlyCityTop []CityMonth   `json:"ts_monthly_by_city_top"`
	CuisineTop     []CuisineRank `json:"cuisine_overall_top"`
}

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

type accum struct {
	ratings []float64
	likes   []float64
}

func (a *accum) add(r review.Review) {
	a.ratings = append(a.ratings, r.RatingOverall)
	a.likes = append(a.likes, float64(r.LikeCount))
}

func buildTimeSeries(t *review.Table, opt Options) TimeSeries {
	ts := TimeSeries{
		DailyTop:       []Bucket{},
		MonthlyTop:     []Bucket{},
		MonthlyCityTop: []CityMonth{},
		CuisineTop:     []CuisineRank{},
	}
	if t.Len() == 0 {
		return ts
	}
	start, end := t.DateRange()

	days, daily := calendarBuckets(t, dayLayout, dayStart(start), dayStart(end), func(d time.Time) time.Time { return d.AddDate(0, 0, 1) })
	ts.DailyTop = topBuckets(days, daily, opt.DailyWindow, opt.TopDays)

	months, monthly := calendarBuckets(t, monthLayout, monthStart(start), monthStart(end), func(d time.Time) time.Time { return d.AddDate(0, 1, 0) })
	ts.MonthlyTop = topBuckets(months, monthly, opt.MonthlyWindow, opt.TopMonths)

	ts.MonthlyCityTop = cityMonths(t, opt.CityMonthMinCount, opt.CitiesPerMonth)
	ts.CuisineTop = topCuisines(t, opt.CuisineMinCount, opt.TopCuisines)
	return ts
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// calendarBuckets returns one slot per calendar period from first to last.
// Periods without reviews have a nil accumulator.
func calendarBuckets(t *review.Table, layout string, first, last time.Time, next func(time.Time) time.Time) ([]string, []*accum) {
	byPeriod := map[string]*accum{}
	for _, r := range t.Reviews {
		k := r.CreatedAt.Format(layout)
		a := byPeriod[k]
		if a == nil {
			a = &accum{}
			byPeriod[k] = a
		}
		a.add(r)
	}
	var periods []string
	var slots []*accum
	for d := first; !d.After(last); d = next(d) {
		k := d.Format(layout)
		periods = append(periods, k)
		slots = append(slots, byPeriod[k])
	}
	return periods, slots
}

// topBuckets computes rolling means and deltas over the contiguous series,
// drops empty periods, keeps the n best by mean and returns them in
// chronological order.
func topBuckets(periods []string, slots []*accum, window, n int) []Bucket {
	means := make([]float64, len(slots))
	for i, a := range slots {
		if a != nil {
			means[i] = stats.Mean(a.ratings)
		}
	}
	var out []Bucket
	for i, a := range slots {
		if a == nil {
			continue
		}
		b := Bucket{
			Period:       periods[i],
			MeanRating:   means[i],
			MedianRating: stats.Median(a.ratings),
			RatingCount:  len(a.ratings),
			MeanLikes:    stats.Mean(a.likes),
			RollingMean:  rollingMean(slots, means, i, window),
		}
		if i > 0 && slots[i-1] != nil {
			d := means[i] - means[i-1]
			b.Delta = &d
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeanRating > out[j].MeanRating })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	if out == nil {
		out = []Bucket{}
	}
	return out
}

// rollingMean averages the non-empty bucket means in the window ending at i.
func rollingMean(slots []*accum, means []float64, i, window int) float64 {
	if window < 1 {
		window = 1
	}
	var sum float64
	var n int
	for j := i - window + 1; j <= i; j++ {
		if j < 0 || slots[j] == nil {
			continue
		}
		sum += means[j]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func cityMonths(t *review.Table, minCount, perMonth int) []CityMonth {
	type key struct{ month, city string }
	groups := map[key]*accum{}
	for _, r := range t.Reviews {
		k := key{r.CreatedAt.Format(monthLayout), r.City}
		a := groups[k]
		if a == nil {
			a = &accum{}
			groups[k] = a
		}
		a.add(r)
	}
	byMonth := map[string][]CityMonth{}
	var months []string
	for k, a := range groups {
		if len(a.ratings) < minCount {
			continue
		}
		if _, ok := byMonth[k.month]; !ok {
			months = append(months, k.month)
		}
		byMonth[k.month] = append(byMonth[k.month], CityMonth{
			Month:       k.month,
			City:        k.city,
			MeanRating:  stats.Mean(a.ratings),
			RatingCount: len(a.ratings),
			MeanLikes:   stats.Mean(a.likes),
		})
	}
	sort.Strings(months)
	out := []CityMonth{}
	for _, m := range months {
		rows := byMonth[m]
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].MeanRating != rows[j].MeanRating {
				return rows[i].MeanRating > rows[j].MeanRating
			}
			return rows[i].City < rows[j].City
		})
		if perMonth > 0 && len(rows) > perMonth {
			rows = rows[:perMonth]
		}
		out = append(out, rows...)
	}
	return out
}

func topCuisines(t *review.Table, minCount, n int) []CuisineRank {
	order, groups := groupRatings(t, byCuisine)
	out := []CuisineRank{}
	for _, c := range order {
		if len(groups[c]) < minCount {
			continue
		}
		out = append(out, CuisineRank{Cuisine: c, MeanRating: stats.Mean(groups[c]), RatingCount: len(groups[c])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanRating != out[j].MeanRating {
			return out[i].MeanRating > out[j].MeanRating
		}
		return out[i].Cuisine < out[j].Cuisine
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
