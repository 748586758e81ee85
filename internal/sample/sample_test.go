package sample

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"

	"github.com/KaramelBytes/reviewloom-cli/internal/pipeline"
)

func TestRowsDeterministic(t *testing.T) {
	opt := DefaultOptions()
	opt.Reviews = 50
	a, b := Rows(opt), Rows(opt)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different rows")
	}
	if len(a) != 51 || !reflect.DeepEqual(a[0], Header) {
		t.Fatalf("rows = %d header = %q", len(a), a[0])
	}
	for _, r := range a[1:] {
		rating, err := strconv.Atoi(r[3])
		if err != nil || rating < 1 || rating > 5 {
			t.Fatalf("bad rating %q", r[3])
		}
		if n, err := strconv.Atoi(r[4]); err != nil || n < 0 {
			t.Fatalf("bad likes %q", r[4])
		}
	}
}

func TestRowsClampsOptions(t *testing.T) {
	rows := Rows(Options{Reviews: 3, Seed: 7})
	if len(rows) != 4 {
		t.Fatalf("rows = %d", len(rows))
	}
}

func TestGeneratedCSVRunsThroughPipeline(t *testing.T) {
	var buf bytes.Buffer
	opt := DefaultOptions()
	opt.Reviews = 120
	if err := WriteCSV(&buf, opt); err != nil {
		t.Fatalf("write: %v", err)
	}
	p := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := pipeline.Run(context.Background(), p, pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Table.Len() != 120 || res.Normalization.DroppedRows != 0 {
		t.Fatalf("reviews = %d dropped = %d", res.Table.Len(), res.Normalization.DroppedRows)
	}
	if _, ok := res.Results.Quantitative.Descriptive.ByCity.Get(); !ok {
		t.Fatal("expected by-city breakdown for a multi-city sample")
	}
}

func TestWriteXLSX(t *testing.T) {
	opt := DefaultOptions()
	opt.Reviews = 40
	p := filepath.Join(t.TempDir(), "sample.xlsx")
	if err := WriteXLSX(p, opt); err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	res, err := pipeline.Run(context.Background(), p, pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Table.Len() != 40 {
		t.Fatalf("reviews = %d", res.Table.Len())
	}
}
