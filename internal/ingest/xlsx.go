package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type workbookReader struct{}

func (workbookReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Read loads every sheet (or opt.Sheet) as formatted cell text.
func (workbookReader) Read(path string, opt Options) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if opt.Sheet != "" {
		idx, err := f.GetSheetIndex(opt.Sheet)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("sheet %q not found (have %s)", opt.Sheet, strings.Join(names, ", "))
		}
		names = []string{opt.Sheet}
	}
	t := &RawTable{}
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		t.Sheets = append(t.Sheets, Sheet{Name: name, Rows: rows})
	}
	return t, nil
}
