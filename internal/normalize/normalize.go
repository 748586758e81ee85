package normalize

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/reviewloom-cli/internal/ingest"
	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/review"
	"github.com/KaramelBytes/reviewloom-cli/internal/stats"
)

// Options controls schema normalization.
type Options struct {
	// HeaderScanRows bounds header detection; 0 means 10.
	HeaderScanRows int
	// DecimalSeparator forces numeric parsing; 0 auto-detects per value.
	DecimalSeparator rune
}

// DefaultOptions returns the standard normalization settings.
func DefaultOptions() Options {
	return Options{HeaderScanRows: 10}
}

// Stats describes what normalization did to the input.
type Stats struct {
	RawRows              int      `json:"raw_rows"`
	DroppedRows          int      `json:"dropped_rows"`
	BackfilledTimestamps int      `json:"backfilled_timestamps"`
	HeaderRows           []int    `json:"header_rows"`
	MappedColumns        []string `json:"mapped_columns"`
	DroppedColumns       []string `json:"dropped_columns"`
}

// Defaults applied when a canonical field is absent or blank.
const (
	DefaultReviewerName = "anonymous"
	DefaultUnknown      = "unknown"
)

// Epoch backfills created_at when no row has a valid timestamp.
var Epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

var ratingText = map[int]string{5: "very good", 4: "good", 3: "average", 2: "bad", 1: "very bad"}

// PlaceholderText is the review text substituted for a blank review.
func PlaceholderText(rating float64) string {
	if s, ok := ratingText[int(rating)]; ok {
		return s
	}
	return "average"
}

// ErrNoSynonyms is returned when Normalize is called without a synonym table.
var ErrNoSynonyms = errors.New("normalize: synonym table is required")

// rawRecord is one row after mapping and coalescing, before coercion.
type rawRecord map[string]string

// Normalize turns raw sheets into canonical reviews.
func Normalize(raw *ingest.RawTable, syn *ontology.Synonyms, opt Options) (*review.Table, *Stats, error) {
	if syn == nil {
		return nil, nil, ErrNoSynonyms
	}
	if opt.HeaderScanRows <= 0 {
		opt.HeaderScanRows = 10
	}
	st := &Stats{}
	mapped, dropped := map[string]bool{}, map[string]bool{}
	var records []rawRecord
	for _, sh := range raw.Sheets {
		recs, h := mapSheet(sh.Rows, syn, opt.HeaderScanRows, mapped, dropped)
		st.HeaderRows = append(st.HeaderRows, h)
		records = append(records, recs...)
	}
	st.RawRows = len(records)
	st.MappedColumns = sortedKeys(mapped)
	st.DroppedColumns = sortedKeys(dropped)

	reviews := make([]review.Review, 0, len(records))
	var stamps []string
	for _, rec := range records {
		r, ok := coerce(rec, opt)
		if !ok {
			st.DroppedRows++
			continue
		}
		reviews = append(reviews, r)
		stamps = append(stamps, rec[ontology.FieldCreatedAt])
	}
	st.BackfilledTimestamps = applyTimes(reviews, stamps)
	applyRestaurantAggregates(reviews)
	return &review.Table{Reviews: reviews}, st, nil
}

// DetectHeader returns the index, among the first scan rows, of the row with
// the most non-empty textual cells. The first row wins ties.
func DetectHeader(rows [][]string, scan int) int {
	best, bestScore := 0, 0
	for i := 0; i < scan && i < len(rows); i++ {
		score := 0
		for _, c := range rows[i] {
			c = strings.TrimSpace(c)
			if c != "" && !isNumeric(c) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// mapSheet applies header detection, column normalization, semantic mapping
// and duplicate coalescing to one sheet.
func mapSheet(rows [][]string, syn *ontology.Synonyms, scan int, mapped, dropped map[string]bool) ([]rawRecord, int) {
	if len(rows) == 0 {
		return nil, 0
	}
	h := DetectHeader(rows, scan)
	fields := make([]string, len(rows[h]))
	for i, name := range rows[h] {
		col := ontology.NormalizeColumnName(name)
		if f, ok := syn.Resolve(col); ok {
			fields[i] = f
			mapped[col] = true
		} else if col != "" {
			dropped[col] = true
		}
	}
	var out []rawRecord
	for _, row := range rows[h+1:] {
		if blankRow(row) {
			continue
		}
		rec := rawRecord{}
		for i, cell := range row {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			// left-to-right: the first non-blank duplicate wins
			if cell != "" && rec[fields[i]] == "" {
				rec[fields[i]] = cell
			}
		}
		out = append(out, rec)
	}
	return out, h
}

// coerce enforces the schema on one record. ok is false when the rating is
// missing or not numeric.
func coerce(rec rawRecord, opt Options) (review.Review, bool) {
	rating, ok := parseNumeric(rec[ontology.FieldRatingOverall], opt.DecimalSeparator)
	if !ok {
		return review.Review{}, false
	}
	r := review.Review{
		RatingOverall:  rating,
		ReviewerName:   orDefault(rec[ontology.FieldReviewerName], DefaultReviewerName),
		ReviewText:     rec[ontology.FieldReviewText],
		RestaurantName: orDefault(rec[ontology.FieldRestaurantName], DefaultUnknown),
		City:           orDefault(rec[ontology.FieldCity], DefaultUnknown),
		PrimaryCuisine: orDefault(rec[ontology.FieldPrimaryCuisine], DefaultUnknown),
	}
	if r.ReviewText == "" {
		r.ReviewText = PlaceholderText(rating)
	}
	if likes, ok := parseCount(rec[ontology.FieldLikeCount], opt.DecimalSeparator); ok && likes > 0 {
		r.LikeCount = likes
	}
	return r, true
}

// applyTimes parses created_at, backfills failures and derives calendar
// features. It returns the number of backfilled rows.
func applyTimes(reviews []review.Review, stamps []string) int {
	parsed := make([]bool, len(reviews))
	var earliest time.Time
	found := false
	for i, s := range stamps {
		t, ok := parseTimeMaybe(s)
		if !ok {
			continue
		}
		reviews[i].CreatedAt = t
		parsed[i] = true
		if !found || t.Before(earliest) {
			earliest, found = t, true
		}
	}
	if !found {
		earliest = Epoch
	}
	backfilled := 0
	for i := range reviews {
		if !parsed[i] {
			reviews[i].CreatedAt = earliest
			backfilled++
		}
		t := reviews[i].CreatedAt
		reviews[i].Date = t.Format("2006-01-02")
		reviews[i].YearMonth = t.Format("2006-01")
		reviews[i].DayOfWeek = (int(t.Weekday()) + 6) % 7
		reviews[i].HourOfDay = t.Hour()
	}
	return backfilled
}

// applyRestaurantAggregates joins per-restaurant review count and mean
// rating (two decimals) onto every row.
func applyRestaurantAggregates(reviews []review.Review) {
	type agg struct {
		n   int
		sum float64
	}
	by := map[string]*agg{}
	for _, r := range reviews {
		a := by[r.RestaurantName]
		if a == nil {
			a = &agg{}
			by[r.RestaurantName] = a
		}
		a.n++
		a.sum += r.RatingOverall
	}
	for i := range reviews {
		a := by[reviews[i].RestaurantName]
		reviews[i].RestaurantReviewCount = a.n
		reviews[i].RestaurantOverallRating = stats.Round(a.sum/float64(a.n), 2)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
