package theme

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/KaramelBytes/reviewloom-cli/internal/ontology"
	"github.com/KaramelBytes/reviewloom-cli/internal/review"
)

var testKeywords = []ontology.Keyword{
	{Phrase: "served cold", Theme: "food", Subtheme: "temperature", Polarity: "negative"},
	{Phrase: "cold", Theme: "food", Subtheme: "temperature", Polarity: "negative"},
	{Phrase: "stale", Theme: "food", Subtheme: "freshness", Polarity: "negative"},
	{Phrase: "tasty", Theme: "food", Subtheme: "taste", Polarity: "positive"},
	{Phrase: "rude", Theme: "service", Subtheme: "staff_behavior", Polarity: "negative"},
	{Phrase: "very bad", Theme: "overall", Subtheme: "", Polarity: "negative"},
	{Phrase: "the", Theme: "noise", Subtheme: "", Polarity: "negative"},
}

func TestNormalizeText(t *testing.T) {
	cases := map[string]string{
		"  Café was COLD!!  ": "cafe was cold",
		"Naïve\tcrème-brûlée": "naive creme brulee",
		"4/5 stars":           "stars",
	}
	for in, want := range cases {
		if got := NormalizeText(in); got != want {
			t.Errorf("NormalizeText(%q) = %q want %q", in, got, want)
		}
	}
}

func TestMatchPhrasesTokensAndStopWords(t *testing.T) {
	m := NewMatcher(testKeywords)
	hits := m.Match("The biryani was served COLD and the waiter was rude. Very bad!")
	var got []string
	for _, h := range hits {
		got = append(got, h.Phrase+"/"+h.Subtheme)
	}
	want := []string{"served cold/temperature", "very bad/general", "cold/temperature", "rude/staff_behavior"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("hits = %v want %v", got, want)
	}
}

func TestMatchDedupes(t *testing.T) {
	kws := append([]ontology.Keyword{}, testKeywords...)
	kws = append(kws, ontology.Keyword{Phrase: "cold", Theme: "food", Subtheme: "temperature", Polarity: "negative"})
	hits := NewMatcher(kws).Match("cold cold cold")
	if len(hits) != 1 {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestRowsGroupedByTheme(t *testing.T) {
	hits := []ontology.Keyword{
		{Phrase: "cold", Theme: "food", Subtheme: "temperature", Polarity: "negative"},
		{Phrase: "rude", Theme: "service", Subtheme: "staff_behavior", Polarity: "negative"},
		{Phrase: "stale", Theme: "food", Subtheme: "freshness", Polarity: "negative"},
		{Phrase: "lukewarm", Theme: "food", Subtheme: "temperature", Polarity: "negative"},
	}
	rows := Rows(7, 2, hits)
	var got []string
	for _, r := range rows {
		got = append(got, r.Phrase)
		if r.ReviewID != 7 || r.Rating != 2 {
			t.Fatalf("row = %+v", r)
		}
	}
	want := []string{"cold", "lukewarm", "stale", "rude"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v want %v", got, want)
	}
}

func table(texts []string, ratings []float64) *review.Table {
	t := &review.Table{}
	for i, s := range texts {
		t.Reviews = append(t.Reviews, review.Review{ReviewText: s, RatingOverall: ratings[i]})
	}
	return t
}

func TestExtractIsDeterministicAcrossWorkers(t *testing.T) {
	var texts []string
	var ratings []float64
	for i := 0; i < 500; i++ {
		switch i % 3 {
		case 0:
			texts = append(texts, fmt.Sprintf("order %d served cold and stale", i))
			ratings = append(ratings, 1)
		case 1:
			texts = append(texts, "tasty food")
			ratings = append(ratings, 5)
		default:
			texts = append(texts, "nothing to say")
			ratings = append(ratings, 3)
		}
	}
	tbl := table(texts, ratings)
	base, err := Extract(context.Background(), tbl, testKeywords, Options{Workers: 1, ChunkSize: 1000})
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []int{2, 4, 16} {
		got, err := Extract(context.Background(), tbl, testKeywords, Options{Workers: w, ChunkSize: 7})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(base, got) {
			t.Fatalf("workers=%d produced a different result", w)
		}
	}
	if base.Insights.Summary.TotalReviewsProcessed != 500 {
		t.Fatalf("summary = %+v", base.Insights.Summary)
	}
	for i := 1; i < len(base.Rows); i++ {
		if base.Rows[i].ReviewID < base.Rows[i-1].ReviewID {
			t.Fatal("rows not in review order")
		}
	}
}

func TestExtractEmptyTable(t *testing.T) {
	res, err := Extract(context.Background(), &review.Table{}, testKeywords, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 0 || res.Insights.TopConcerns == nil {
		t.Fatalf("result = %+v", res)
	}
}

func TestConcerns(t *testing.T) {
	var rows []Row
	// food/temperature: 3 reviews, all negative, avg 1.5
	for i, r := range []float64{1, 2, 1.5} {
		rows = append(rows, Row{ReviewID: i, Rating: r, Theme: "food", Subtheme: "temperature", Polarity: "negative"})
	}
	// service/staff_behavior: 4 reviews, avg 2
	for i := 10; i < 14; i++ {
		rows = append(rows, Row{ReviewID: i, Rating: 2, Theme: "service", Subtheme: "staff_behavior", Polarity: "negative"})
	}
	// food/taste: positive, filtered out
	for i := 20; i < 25; i++ {
		rows = append(rows, Row{ReviewID: i, Rating: 5, Theme: "food", Subtheme: "taste", Polarity: "positive"})
	}
	// food/freshness: only 2 reviews, filtered out
	rows = append(rows, Row{ReviewID: 30, Rating: 1, Theme: "food", Subtheme: "freshness", Polarity: "negative"})
	rows = append(rows, Row{ReviewID: 30, Rating: 1, Theme: "food", Subtheme: "freshness", Polarity: "negative"})
	rows = append(rows, Row{ReviewID: 31, Rating: 1, Theme: "food", Subtheme: "freshness", Polarity: "negative"})

	got := Concerns(rows, DefaultConcernOptions())
	if len(got) != 2 {
		t.Fatalf("concerns = %+v", got)
	}
	// 3 * 1 * 2 = 6 and 4 * 1 * 1.5 = 6: tie broken by theme name.
	if got[0].Theme != "food" || got[1].Theme != "service" {
		t.Fatalf("order = %+v", got)
	}
	if got[0].ConcernScore != 6 || got[1].ConcernScore != 6 || got[1].UniqueReviews != 4 {
		t.Fatalf("scores = %+v", got)
	}
}
