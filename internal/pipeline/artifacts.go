package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/KaramelBytes/reviewloom-cli/internal/utils"
)

// Artifact file names written by WriteArtifacts.
const (
	AnalysisFile = "analysis.json"
	ReviewsFile  = "standardized_reviews.csv"
	ThemesFile   = "themes.csv"
	QuotesFile   = "top_relevant_quotes.csv"
	MarkdownFile = "analysis.md"
	HTMLFile     = "analysis.html"
)

// WriteArtifacts writes the composite JSON and the CSV tables into dir and
// returns the written paths.
func WriteArtifacts(dir string, res *Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	files := map[string]func() ([]byte, error){
		AnalysisFile: func() ([]byte, error) { return utils.PrettyJSON(res) },
		ReviewsFile:  func() ([]byte, error) { return reviewsCSV(res) },
		ThemesFile:   func() ([]byte, error) { return themesCSV(res) },
		QuotesFile:   func() ([]byte, error) { return quotesCSV(res) },
	}
	var written []string
	for _, name := range []string{AnalysisFile, ReviewsFile, ThemesFile, QuotesFile} {
		b, err := files[name]()
		if err != nil {
			return written, fmt.Errorf("render %s: %w", name, err)
		}
		p := filepath.Join(dir, name)
		if err := utils.SafeWriteFile(p, b); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, p)
	}
	return written, nil
}

func reviewsCSV(res *Result) ([]byte, error) {
	var buf bytes.Buffer
	if res.Table != nil {
		if err := res.Table.WriteCSV(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func themesCSV(res *Result) ([]byte, error) {
	rows := [][]string{{"review_id", "rating", "theme", "subtheme", "polarity", "phrase"}}
	for _, r := range res.ThemeRows {
		rows = append(rows, []string{strconv.Itoa(r.ReviewID), ftoa(r.Rating), r.Theme, r.Subtheme, r.Polarity, r.Phrase})
	}
	return encodeCSV(rows)
}

func quotesCSV(res *Result) ([]byte, error) {
	rows := [][]string{{"review_id", "theme", "subtheme", "phrase", "rating", "relevance_score"}}
	for _, s := range res.Results.Quotes {
		rows = append(rows, []string{strconv.Itoa(s.ReviewID), s.Theme, s.Subtheme, s.Phrase, ftoa(s.Rating), ftoa(s.RelevanceScore)})
	}
	return encodeCSV(rows)
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
