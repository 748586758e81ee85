package normalize

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"

	"github.com/KaramelBytes/reviewloom-cli/internal/ingest"
	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
)

func sheet(rows ...[]string) *ingest.RawTable {
	return &ingest.RawTable{Sheets: []ingest.Sheet{{Name: "s", Rows: rows}}}
}

func run(t *testing.T, raw *ingest.RawTable) ([]string, *Stats, func(i int) string) {
	t.Helper()
	tbl, st, err := Normalize(raw, ontology.MustDefault().Synonyms, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	names := make([]string, len(tbl.Reviews))
	for i, r := range tbl.Reviews {
		names[i] = r.ReviewerName
	}
	return names, st, func(i int) string { return tbl.Reviews[i].ReviewText }
}

func TestDetectHeaderSkipsPreamble(t *testing.T) {
	rows := [][]string{
		{"Weekly export", "", ""},
		{"", "", ""},
		{"User", "Stars", "Comment"},
		{"ann", "5", "great"},
	}
	if got := DetectHeader(rows, 10); got != 2 {
		t.Fatalf("DetectHeader = %d want 2", got)
	}
	tbl, st, err := Normalize(sheet(rows...), ontology.MustDefault().Synonyms, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(tbl.Reviews) != 1 || tbl.Reviews[0].ReviewerName != "ann" || tbl.Reviews[0].RatingOverall != 5 {
		t.Fatalf("unexpected reviews: %+v", tbl.Reviews)
	}
	if st.HeaderRows[0] != 2 {
		t.Fatalf("header row = %v", st.HeaderRows)
	}
}

func TestDetectHeaderFirstRowKeepsData(t *testing.T) {
	rows := [][]string{
		{"user", "rating", "review"},
		{"bob", "4", "nice"},
		{"cy", "3", "ok"},
	}
	if got := DetectHeader(rows, 10); got != 0 {
		t.Fatalf("DetectHeader = %d want 0", got)
	}
	names, _, _ := run(t, sheet(rows...))
	if !reflect.DeepEqual(names, []string{"bob", "cy"}) {
		t.Fatalf("names = %v", names)
	}
}

func TestDetectHeaderTieFirstWins(t *testing.T) {
	rows := [][]string{{"a", "b"}, {"c", "d"}}
	if got := DetectHeader(rows, 10); got != 0 {
		t.Fatalf("tie should keep first row, got %d", got)
	}
}

func TestSemanticMappingAndDefaults(t *testing.T) {
	raw := sheet(
		[]string{"Stars", "Feedback", "Favourite Colour"},
		[]string{"5", "", "blue"},
		[]string{"1", "terrible", "red"},
	)
	tbl, st, err := Normalize(raw, ontology.MustDefault().Synonyms, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	r := tbl.Reviews[0]
	if r.ReviewerName != "anonymous" || r.RestaurantName != "unknown" || r.City != "unknown" || r.PrimaryCuisine != "unknown" || r.LikeCount != 0 {
		t.Fatalf("defaults not applied: %+v", r)
	}
	if r.ReviewText != "very good" {
		t.Fatalf("placeholder text = %q", r.ReviewText)
	}
	if tbl.Reviews[1].ReviewText != "terrible" {
		t.Fatalf("text overwritten: %q", tbl.Reviews[1].ReviewText)
	}
	if !reflect.DeepEqual(st.DroppedColumns, []string{"favourite_colour"}) {
		t.Fatalf("dropped columns = %v", st.DroppedColumns)
	}
	if !r.CreatedAt.Equal(Epoch) || st.BackfilledTimestamps != 2 {
		t.Fatalf("expected epoch backfill, got %v (%d)", r.CreatedAt, st.BackfilledTimestamps)
	}
}

func TestNameGoesToReviewerFirst(t *testing.T) {
	names, _, _ := run(t, sheet(
		[]string{"name", "rating"},
		[]string{"dee", "4"},
	))
	if names[0] != "dee" {
		t.Fatalf("name should map to reviewer_name, got %v", names)
	}
}

func TestDuplicateColumnsCoalesceLeftToRight(t *testing.T) {
	raw := sheet(
		[]string{"review", "comment", "rating"},
		[]string{"", "second", "3"},
		[]string{"first", "second", "3"},
	)
	_, _, text := run(t, raw)
	if text(0) != "second" || text(1) != "first" {
		t.Fatalf("coalesce: %q %q", text(0), text(1))
	}
}

func TestRatingCoercionDropsRows(t *testing.T) {
	raw := sheet(
		[]string{"rating", "review"},
		[]string{"4,5", "fine"},
		[]string{"n/a", "dropped"},
		[]string{"", "dropped"},
		[]string{" 2 ", "meh"},
	)
	tbl, st, err := Normalize(raw, ontology.MustDefault().Synonyms, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(tbl.Reviews) != 2 || st.DroppedRows != 2 || st.RawRows != 4 {
		t.Fatalf("rows=%d dropped=%d raw=%d", len(tbl.Reviews), st.DroppedRows, st.RawRows)
	}
	if tbl.Reviews[0].RatingOverall != 4.5 || tbl.Reviews[1].RatingOverall != 2 {
		t.Fatalf("ratings = %v", tbl.Ratings())
	}
}

func TestPlaceholderText(t *testing.T) {
	cases := map[float64]string{5: "very good", 4.9: "good", 3: "average", 2: "bad", 1.5: "very bad", 0: "average", 7: "average"}
	for in, want := range cases {
		if got := PlaceholderText(in); got != want {
			t.Errorf("PlaceholderText(%v) = %q want %q", in, got, want)
		}
	}
}

func TestTimeFeaturesAndBackfill(t *testing.T) {
	raw := sheet(
		[]string{"date", "rating"},
		[]string{"2024-03-05T14:30:00+02:00", "4"},
		[]string{"garbage", "3"},
		[]string{"2024-03-04", "5"},
	)
	tbl, st, err := Normalize(raw, ontology.MustDefault().Synonyms, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	r0 := tbl.Reviews[0]
	if want := time.Date(2024, 3, 5, 12, 30, 0, 0, time.UTC); !r0.CreatedAt.Equal(want) {
		t.Fatalf("created_at = %v want %v", r0.CreatedAt, want)
	}
	if r0.Date != "2024-03-05" || r0.YearMonth != "2024-03" || r0.HourOfDay != 12 || r0.DayOfWeek != 1 {
		t.Fatalf("derived = %+v", r0)
	}
	if got := tbl.Reviews[1].CreatedAt; !got.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("backfill = %v", got)
	}
	if st.BackfilledTimestamps != 1 {
		t.Fatalf("backfilled = %d", st.BackfilledTimestamps)
	}
}

func TestRestaurantAggregates(t *testing.T) {
	raw := sheet(
		[]string{"restaurant", "rating"},
		[]string{"A", "5"},
		[]string{"A", "4"},
		[]string{"A", "4"},
		[]string{"B", "1"},
	)
	tbl, _, err := Normalize(raw, ontology.MustDefault().Synonyms, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r := tbl.Reviews[0]; r.RestaurantReviewCount != 3 || r.RestaurantOverallRating != 4.33 {
		t.Fatalf("A aggregates = %d %v", r.RestaurantReviewCount, r.RestaurantOverallRating)
	}
	if r := tbl.Reviews[3]; r.RestaurantReviewCount != 1 || r.RestaurantOverallRating != 1 {
		t.Fatalf("B aggregates = %d %v", r.RestaurantReviewCount, r.RestaurantOverallRating)
	}
}

func TestSheetsAreStacked(t *testing.T) {
	raw := &ingest.RawTable{Sheets: []ingest.Sheet{
		{Name: "jan", Rows: [][]string{{"user", "rating"}, {"a", "5"}}},
		{Name: "feb", Rows: [][]string{{"Title"}, {"customer", "stars"}, {"b", "1"}}},
	}}
	names, st, _ := run(t, raw)
	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Fatalf("names = %v", names)
	}
	if !reflect.DeepEqual(st.HeaderRows, []int{0, 1}) {
		t.Fatalf("header rows = %v", st.HeaderRows)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := sheet(
		[]string{"Posted On", "User", "Comments", "Stars", "Likes", "Restaurant", "City", "Cuisine"},
		[]string{"2024-01-05 10:00", "ann", "cold food", "2", "3", "Spice Hub", "Pune", "Indian"},
		[]string{"", "", "", "5", "", "Spice Hub", "Pune", "Indian"},
		[]string{"2024-02-01 19:45:10", "bo", "loved it", "4.5", "0", "Noodle Bar", "Mumbai", "Chinese"},
		[]string{"2024-01-05 10:00:00.750", "cy", "slow service", "3", "1,234", "Noodle Bar", "Mumbai", "Chinese"},
		[]string{"2024-03-09T23:59:59.900+00:00", "di", "fine", "4", "12", "Spice Hub", "Pune", "Indian"},
	)
	syn := ontology.MustDefault().Synonyms
	first, _, err := Normalize(raw, syn, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var buf bytes.Buffer
	if err := first.WriteCSV(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	second, _, err := Normalize(sheet(rows...), syn, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize again: %v", err)
	}
	if len(first.Reviews) != len(second.Reviews) {
		t.Fatalf("row count changed: %d -> %d", len(first.Reviews), len(second.Reviews))
	}
	for i := range first.Reviews {
		a, b := first.Reviews[i], second.Reviews[i]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			t.Fatalf("row %d created_at %v -> %v", i, a.CreatedAt, b.CreatedAt)
		}
		if a.CreatedAt.Nanosecond() != b.CreatedAt.Nanosecond() {
			t.Fatalf("row %d lost sub-second precision: %v -> %v", i, a.CreatedAt, b.CreatedAt)
		}
		a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("row %d not idempotent:\n%+v\n%+v", i, a, b)
		}
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		dec  rune
		want int
		ok   bool
	}{
		{"12", 0, 12, true},
		{"1,234", 0, 1234, true},
		{"12,500", 0, 12500, true},
		{"1.234.567", 0, 1234567, true},
		{"1 000", 0, 1000, true},
		{"7,5", 0, 7, true},
		{"12,50", 0, 12, true},
		{"1,234", ',', 1, true},
		{"3.9", 0, 3, true},
		{"many", 0, 0, false},
	}
	for _, c := range cases {
		got, ok := parseCount(c.in, c.dec)
		if ok != c.ok || got != c.want {
			t.Errorf("parseCount(%q, %q) = %v,%v want %v,%v", c.in, c.dec, got, ok, c.want, c.ok)
		}
	}
}

func TestThousandsSeparatedLikes(t *testing.T) {
	raw := sheet(
		[]string{"Stars", "Likes", "Comments"},
		[]string{"4", "1,234", "ok"},
		[]string{"2", "12,500", "bad"},
		[]string{"5", "3", "good"},
	)
	tbl, _, err := Normalize(raw, ontology.MustDefault().Synonyms, DefaultOptions())
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var got []int
	for _, r := range tbl.Reviews {
		got = append(got, r.LikeCount)
	}
	if !reflect.DeepEqual(got, []int{1234, 12500, 3}) {
		t.Fatalf("like counts = %v", got)
	}
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"4", 4, true},
		{"4,5", 4.5, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{" 3 ", 3, true},
		{"", 0, false},
		{"five", 0, false},
		{"NaN", 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in, 0)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("parseNumeric(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
