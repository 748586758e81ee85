// Package sample generates synthetic restaurant review exports for demos
// and tests. Output uses export-style column names so it exercises the
// schema normalizer rather than bypassing it.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/xuri/excelize/v2"
)

// Header is the column row written before the reviews.
var Header = []string{"Review Date", "Customer Name", "Review", "Rating", "Likes", "Restaurant", "City", "Cuisine"}

// Options controls the generated dataset.
type Options struct {
	Reviews     int
	Restaurants int
	Cities      []string
	// Seed makes output reproducible; 0 picks a random seed.
	Seed  int64
	Start time.Time
	End   time.Time
}

// DefaultOptions returns a small multi-city dataset over 2024.
func DefaultOptions() Options {
	return Options{
		Reviews:     200,
		Restaurants: 8,
		Cities:      []string{"Pune", "Mumbai", "Bengaluru"},
		Seed:        1,
		Start:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC),
	}
}

var cuisines = map[string][]string{
	"Indian":  {"biryani", "butter chicken", "paneer", "naan", "dal"},
	"Chinese": {"noodles", "fried rice", "manchurian", "dumplings"},
	"Italian": {"pizza", "pasta"},
	"Cafe":    {"sandwich", "burger", "cake"},
}

var cuisineNames = []string{"Indian", "Chinese", "Italian", "Cafe"}

var (
	complaints = []string{
		"The %s was served cold",
		"Stale %s and the portion was small",
		"%s was burnt and tasteless",
		"Undercooked %s, very disappointing",
		"The %s was too salty",
	}
	serviceComplaints = []string{
		"Rude waiter and slow service",
		"Waited forever for our order",
		"Dirty table and unhygienic washroom",
		"Overpriced for what you get",
		"Staff ignored us the whole evening",
	}
	praise = []string{
		"Excellent %s, really tasty",
		"Loved the %s, fresh and hot",
		"Delicious %s and friendly staff",
		"Great ambience and the %s was amazing",
	}
	neutral = []string{
		"The %s was okay, nothing special",
		"Average experience, %s was fine",
	}
)

type restaurant struct {
	name    string
	city    string
	cuisine string
	// bias shifts this restaurant's rating distribution.
	bias int
}

// Rows returns the header followed by one record per review.
func Rows(opt Options) [][]string {
	if opt.Reviews <= 0 {
		opt.Reviews = DefaultOptions().Reviews
	}
	if opt.Restaurants <= 0 {
		opt.Restaurants = 1
	}
	if len(opt.Cities) == 0 {
		opt.Cities = DefaultOptions().Cities
	}
	if opt.Start.IsZero() || opt.End.IsZero() || !opt.End.After(opt.Start) {
		d := DefaultOptions()
		opt.Start, opt.End = d.Start, d.End
	}
	f := gofakeit.New(opt.Seed)

	rests := make([]restaurant, opt.Restaurants)
	for i := range rests {
		rests[i] = restaurant{
			name:    strings.TrimSpace(f.LastName()) + " " + f.RandomString([]string{"Kitchen", "Bistro", "House", "Diner", "Express"}),
			city:    opt.Cities[i%len(opt.Cities)],
			cuisine: cuisineNames[i%len(cuisineNames)],
			bias:    f.Number(-1, 1),
		}
	}

	rows := make([][]string, 0, opt.Reviews+1)
	rows = append(rows, append([]string(nil), Header...))
	for i := 0; i < opt.Reviews; i++ {
		r := rests[f.Number(0, len(rests)-1)]
		text, rating := reviewText(f, r)
		ts := f.DateRange(opt.Start, opt.End)
		rows = append(rows, []string{
			ts.Format("2006-01-02 15:04:05"),
			f.Name(),
			text,
			strconv.Itoa(rating),
			strconv.Itoa(likes(f)),
			r.name,
			r.city,
			r.cuisine,
		})
	}
	return rows
}

func reviewText(f *gofakeit.Faker, r restaurant) (string, int) {
	dish := f.RandomString(cuisines[r.cuisine])
	roll := f.Number(1, 100) + r.bias*15
	switch {
	case roll <= 30:
		return fmt.Sprintf(f.RandomString(complaints), dish), f.Number(1, 2)
	case roll <= 45:
		return f.RandomString(serviceComplaints), f.Number(1, 3)
	case roll <= 60:
		return fmt.Sprintf(f.RandomString(neutral), dish), 3
	case roll <= 97:
		return fmt.Sprintf(f.RandomString(praise), dish), f.Number(4, 5)
	default:
		// Empty text; normalization fills a rating-based placeholder.
		return "", f.Number(1, 5)
	}
}

// likes is mostly zero with a long tail.
func likes(f *gofakeit.Faker) int {
	switch n := f.Number(1, 100); {
	case n <= 70:
		return 0
	case n <= 97:
		return f.Number(1, 6)
	default:
		return f.Number(20, 120)
	}
}

// WriteCSV writes a generated dataset as CSV.
func WriteCSV(w io.Writer, opt Options) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(opt)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a generated dataset to a workbook with one sheet.
func WriteXLSX(path string, opt Options) error {
	x := excelize.NewFile()
	defer x.Close()
	sheet := x.GetSheetName(0)
	for i, row := range Rows(opt) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := x.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := x.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
