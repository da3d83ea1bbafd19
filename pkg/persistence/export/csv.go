// Package export writes persistence tables and word counts as CSV files
// and as an optional XLSX workbook.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cognicore/persistence/pkg/persistence/occurrence"
	"github.com/cognicore/persistence/pkg/persistence/series"
)

// DateLayout is how dates appear in every output.
const DateLayout = "2006-01-02"

// FormatValue renders v with the given number of decimals. Missing
// (NaN) values render as an empty cell.
func FormatValue(v float64, precision int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// WriteTable writes a "Date,<label>..." header and one row per date.
func WriteTable(w io.Writer, t *series.Table, precision int) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Date"}, t.Labels...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(header))
	for i, date := range t.Dates {
		rec[0] = date.Format(DateLayout)
		for c, col := range t.Columns {
			rec[c+1] = FormatValue(col[i], precision)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCounts writes a "Date,Count" header and one row per document.
func WriteCounts(w io.Writer, r occurrence.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Count"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, doc := range r.Docs {
		if err := cw.Write([]string{doc.Date.Format(DateLayout), strconv.Itoa(r.Counts[i])}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path (and its directory) and hands a buffered writer
// to write. The file is truncated if it exists.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	start := time.Now()
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	slog.Debug("wrote file", "path", path, "duration", time.Since(start))
	return nil
}
