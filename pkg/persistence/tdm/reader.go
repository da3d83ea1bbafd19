package tdm

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
)

// Files names the three inputs describing one term-document matrix.
type Files struct {
	Sparse string
	Terms  string
	Docs   string
}

// FilesFor returns the conventional file names for a preprocessing suffix,
// e.g. suffix ".np" gives tdm.sparse.np.csv, tdm.words.np.csv, tdm.docs.np.csv.
func FilesFor(dir, suffix string) Files {
	return Files{
		Sparse: filepath.Join(dir, "tdm.sparse"+suffix+".csv"),
		Terms:  filepath.Join(dir, "tdm.words"+suffix+".csv"),
		Docs:   filepath.Join(dir, "tdm.docs"+suffix+".csv"),
	}
}

// ReadTriplets parses comma-separated documentIndex,termIndex,count rows.
// Indices may be written as floats ("3.0") but must be integral.
func ReadTriplets(r io.Reader) ([]Triplet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var out []Triplet
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, internalerr.Malformed("", line, "%v", err)
		}

		var vals [3]float64
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, internalerr.Malformed("", line, "field %d: %v", i+1, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, internalerr.Malformed("", line, "field %d is not finite", i+1)
			}
			vals[i] = v
		}
		if vals[0] != math.Trunc(vals[0]) || vals[1] != math.Trunc(vals[1]) {
			return nil, internalerr.Malformed("", line, "non-integral index (%g, %g)", vals[0], vals[1])
		}
		out = append(out, Triplet{Doc: int(vals[0]), Term: int(vals[1]), Count: vals[2]})
	}
	return out, nil
}

// ReadLabels returns one label per line with trailing whitespace removed.
// Line number i (zero-based) is the label of index i.
func ReadLabels(r io.Reader) ([]string, error) {
	var labels []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		labels = append(labels, strings.TrimRight(sc.Text(), " \t\r\n"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// Load reads the three files, builds the matrix and returns it in
// canonical (sorted) order.
func Load(files Files, offset int, logger *slog.Logger) (*Matrix, error) {
	if logger == nil {
		logger = slog.Default()
	}

	triplets, err := readFile(files.Sparse, ReadTriplets)
	if err != nil {
		return nil, err
	}
	terms, err := readFile(files.Terms, ReadLabels)
	if err != nil {
		return nil, err
	}
	docs, err := readFile(files.Docs, ReadLabels)
	if err != nil {
		return nil, err
	}

	m, err := Build(triplets, terms, docs, offset)
	if err != nil {
		return nil, internalerr.WithPath(err, files.Sparse)
	}

	logger.Debug("loaded term-document matrix",
		"sparse", files.Sparse,
		"entries", len(triplets),
		"terms", m.Rows(),
		"docs", m.Cols(),
	)
	return m.Sorted(), nil
}

// LoadDir is Load over FilesFor(dir, suffix).
func LoadDir(dir, suffix string, offset int, logger *slog.Logger) (*Matrix, error) {
	return Load(FilesFor(dir, suffix), offset, logger)
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, &internalerr.InputError{
			Path:  path,
			Index: -1,
			Err:   fmt.Errorf("%w: %v", internalerr.ErrMalformedInput, err),
		}
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, internalerr.WithPath(err, path)
	}
	return v, nil
}
