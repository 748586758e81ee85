package review

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// TimeLayout is the export format for timestamps. Fractional seconds are
// kept only when present so re-reading an export yields the same instant.
const TimeLayout = "2006-01-02 15:04:05.999999999"

// Review is one normalized review with its derived features.
type Review struct {
	CreatedAt      time.Time `json:"created_at"`
	ReviewerName   string    `json:"reviewer_name"`
	ReviewText     string    `json:"review_text"`
	RatingOverall  float64   `json:"rating_overall"`
	LikeCount      int       `json:"like_count"`
	RestaurantName string    `json:"restaurant_name"`
	City           string    `json:"city"`
	PrimaryCuisine string    `json:"primary_cuisine"`

	Date      string `json:"date"`
	YearMonth string `json:"year_month"`
	DayOfWeek int    `json:"day_of_week"`
	HourOfDay int    `json:"hour_of_day"`

	RestaurantReviewCount   int     `json:"restaurant_review_count"`
	RestaurantOverallRating float64 `json:"restaurant_overall_rating"`
}

// Table is an ordered set of reviews; a review's index is its review id.
type Table struct {
	Reviews []Review
}

// Len returns the number of reviews.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Reviews)
}

// Ratings returns rating_overall in table order.
func (t *Table) Ratings() []float64 {
	out := make([]float64, len(t.Reviews))
	for i, r := range t.Reviews {
		out[i] = r.RatingOverall
	}
	return out
}

// Likes returns like_count in table order.
func (t *Table) Likes() []float64 {
	out := make([]float64, len(t.Reviews))
	for i, r := range t.Reviews {
		out[i] = float64(r.LikeCount)
	}
	return out
}

// DateRange returns the earliest and latest created_at.
func (t *Table) DateRange() (start, end time.Time) {
	for i, r := range t.Reviews {
		if i == 0 || r.CreatedAt.Before(start) {
			start = r.CreatedAt
		}
		if i == 0 || r.CreatedAt.After(end) {
			end = r.CreatedAt
		}
	}
	return start, end
}

// Header is the exported column order.
var Header = []string{
	"created_at", "reviewer_name", "review_text", "rating_overall", "like_count",
	"restaurant_name", "city", "primary_cuisine", "date", "year_month",
	"day_of_week", "hour_of_day", "restaurant_review_count", "restaurant_overall_rating",
}

// Record renders r as a row matching Header.
func (r Review) Record() []string {
	return []string{
		r.CreatedAt.Format(TimeLayout),
		r.ReviewerName,
		r.ReviewText,
		formatFloat(r.RatingOverall),
		strconv.Itoa(r.LikeCount),
		r.RestaurantName,
		r.City,
		r.PrimaryCuisine,
		r.Date,
		r.YearMonth,
		strconv.Itoa(r.DayOfWeek),
		strconv.Itoa(r.HourOfDay),
		strconv.Itoa(r.RestaurantReviewCount),
		formatFloat(r.RestaurantOverallRating),
	}
}

// Grid returns the header plus one row per review.
func (t *Table) Grid() [][]string {
	out := make([][]string, 0, len(t.Reviews)+1)
	out = append(out, append([]string(nil), Header...))
	for _, r := range t.Reviews {
		out = append(out, r.Record())
	}
	return out
}

// WriteCSV writes the canonical table with derived columns.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Grid()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
