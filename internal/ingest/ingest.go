package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sheet is an untyped cell grid; its header row is not yet known.
type Sheet struct {
	Name string
	Rows [][]string
}

// RawTable is everything read from one input file.
type RawTable struct {
	Name   string
	Sheets []Sheet
}

// Rows returns the total number of grid rows across sheets.
func (t *RawTable) Rows() int {
	n := 0
	for _, s := range t.Sheets {
		n += len(s.Rows)
	}
	return n
}

// Options tunes reading.
type Options struct {
	// Delimiter for delimited text. If 0, sniffed from the first lines.
	Delimiter rune
	// Sheet restricts workbook reading to one sheet name; empty reads all.
	Sheet string
}

// Reader reads one family of file formats into a RawTable.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*RawTable, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ErrUnsupportedFormat indicates no registered reader accepts the file.
var ErrUnsupportedFormat = errors.New("unsupported file format (use .csv, .tsv, .txt or .xlsx)")

// ReadFile selects a reader by file name and returns the raw grid(s).
func ReadFile(path string, opt Options) (*RawTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			t, err := r.Read(path, opt)
			if err != nil {
				return nil, err
			}
			if t.Name == "" {
				t.Name = filepath.Base(path)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
}

// Supported reports whether any reader accepts the file name.
func Supported(filename string) bool {
	for _, r := range registry {
		if r.CanRead(filename) {
			return true
		}
	}
	return false
}

func init() {
	Register(delimitedReader{})
	Register(workbookReader{})
}
