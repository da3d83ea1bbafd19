package weight

import (
	"fmt"
	"math"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
	"github.com/cognicore/persistence/pkg/persistence/tdm"
)

// Options controls TF-IDF weighting.
type Options struct {
	// Lenient turns a term with zero document frequency into a NaN row
	// instead of failing with ErrDegenerateTerm.
	Lenient bool
}

// Occurrence returns a 0/1 copy of m marking strictly positive counts.
// The raw counts in m are not touched.
func Occurrence(m *tdm.Matrix) *tdm.Matrix {
	out := tdm.New(m.Terms, m.Docs)
	for i, v := range m.Values {
		if v > 0 {
			out.Values[i] = 1
		}
	}
	return out
}

// DocumentFrequency counts, for every term, the documents it occurs in.
func DocumentFrequency(m *tdm.Matrix) []int {
	occ := Occurrence(m)
	df := make([]int, occ.Rows())
	for t := range df {
		for _, v := range occ.Row(t) {
			df[t] += int(v)
		}
	}
	return df
}

// IDF returns ln(ndocs / n_t) per term. A term found in no document has no
// defined IDF; it is reported as ErrDegenerateTerm unless opts.Lenient, in
// which case its entry is NaN.
func IDF(m *tdm.Matrix, opts Options) ([]float64, error) {
	ndocs := float64(m.Cols())
	df := DocumentFrequency(m)
	idf := make([]float64, len(df))
	for t, n := range df {
		if n == 0 {
			if !opts.Lenient {
				return nil, fmt.Errorf("%w: term %q occurs in no document", internalerr.ErrDegenerateTerm, m.Terms[t])
			}
			idf[t] = math.NaN()
			continue
		}
		idf[t] = math.Log(ndocs / float64(n))
	}
	return idf, nil
}

// Apply weights m by row-level IDF when enabled: every count of term t is
// multiplied by IDF_t. When disabled m is returned as-is; the caller must
// not mutate it. The result never aliases m.
func Apply(m *tdm.Matrix, enabled bool, opts Options) (*tdm.Matrix, error) {
	if !enabled {
		return m, nil
	}
	idf, err := IDF(m, opts)
	if err != nil {
		return nil, err
	}
	out := m.Clone()
	for t, w := range idf {
		row := out.Row(t)
		for d := range row {
			row[d] *= w
		}
	}
	return out, nil
}
