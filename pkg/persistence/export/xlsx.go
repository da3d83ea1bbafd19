package export

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/cognicore/persistence/pkg/persistence/occurrence"
	"github.com/cognicore/persistence/pkg/persistence/series"
)

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// TableSheet lays out a persistence table. Values are rounded to
// precision; missing values become empty cells.
func TableSheet(name string, t *series.Table, precision int) Sheet {
	s := Sheet{Name: name, Header: append([]string{"Date"}, t.Labels...)}
	scale := math.Pow(10, float64(precision))
	for i, date := range t.Dates {
		row := make([]any, 0, len(t.Columns)+1)
		row = append(row, date.Format(DateLayout))
		for _, col := range t.Columns {
			v := col[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row = append(row, nil)
				continue
			}
			row = append(row, math.Round(v*scale)/scale)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// CountsSheet lays out one search's counts.
func CountsSheet(name string, r occurrence.Result) Sheet {
	s := Sheet{Name: name, Header: []string{"Date", "Count"}}
	for i, doc := range r.Docs {
		s.Rows = append(s.Rows, []any{doc.Date.Format(DateLayout), r.Counts[i]})
	}
	return s
}

// WriteWorkbook saves sheets, in order, to an .xlsx file at path.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s: no sheets", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return fmt.Errorf("sheet %q: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("sheet %q: %w", s.Name, err)
		}

		header := make([]any, len(s.Header))
		for j, h := range s.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
			return fmt.Errorf("sheet %q header: %w", s.Name, err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
				return fmt.Errorf("sheet %q row %d: %w", s.Name, r, err)
			}
		}
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}
