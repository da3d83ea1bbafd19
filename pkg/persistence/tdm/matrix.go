package tdm

import (
	"sort"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
)

// Triplet is one non-zero cell of a sparse term-document matrix.
type Triplet struct {
	Doc   int
	Term  int
	Count float64
}

// Matrix is a dense term × document matrix stored row-major.
// Row t belongs to Terms[t] and column d to Docs[d].
type Matrix struct {
	Terms  []string
	Docs   []Label
	Values []float64
}

// New allocates a zero matrix over the given axes.
func New(terms []string, docs []Label) *Matrix {
	return &Matrix{
		Terms:  terms,
		Docs:   docs,
		Values: make([]float64, len(terms)*len(docs)),
	}
}

// Build assembles a matrix from sparse triplets and the label lists that
// name its rows (terms) and columns (documents). The shape is inferred from
// the largest index on each axis; both label lists must match it exactly.
// Repeated cells accumulate.
func Build(triplets []Triplet, terms []string, docNames []string, offset int) (*Matrix, error) {
	if len(triplets) == 0 {
		return nil, internalerr.Malformed("", -1, "sparse matrix has no entries")
	}

	nterms, ndocs := 0, 0
	for i, tr := range triplets {
		if tr.Doc < 0 || tr.Term < 0 {
			return nil, internalerr.Malformed("", i, "negative index (doc=%d, term=%d)", tr.Doc, tr.Term)
		}
		if tr.Count < 0 {
			return nil, internalerr.Malformed("", i, "negative count %g", tr.Count)
		}
		if tr.Term+1 > nterms {
			nterms = tr.Term + 1
		}
		if tr.Doc+1 > ndocs {
			ndocs = tr.Doc + 1
		}
	}

	if len(terms) != nterms {
		return nil, internalerr.Malformed("", -1, "term labels: got %d lines, matrix has %d rows", len(terms), nterms)
	}
	if len(docNames) != ndocs {
		return nil, internalerr.Malformed("", -1, "document labels: got %d lines, matrix has %d columns", len(docNames), ndocs)
	}

	docs, err := ParseLabels(docNames, offset)
	if err != nil {
		return nil, err
	}

	m := New(append([]string(nil), terms...), docs)
	for _, tr := range triplets {
		m.Values[tr.Term*ndocs+tr.Doc] += tr.Count
	}
	return m, nil
}

// Rows returns the number of terms.
func (m *Matrix) Rows() int { return len(m.Terms) }

// Cols returns the number of documents.
func (m *Matrix) Cols() int { return len(m.Docs) }

// At returns the value for term t in document d.
func (m *Matrix) At(t, d int) float64 {
	return m.Values[t*len(m.Docs)+d]
}

// Set stores v for term t in document d.
func (m *Matrix) Set(t, d int, v float64) {
	m.Values[t*len(m.Docs)+d] = v
}

// Row returns a view of term t's values across all documents.
func (m *Matrix) Row(t int) []float64 {
	n := len(m.Docs)
	return m.Values[t*n : (t+1)*n : (t+1)*n]
}

// Column copies document d's term vector.
func (m *Matrix) Column(d int) []float64 {
	col := make([]float64, len(m.Terms))
	for t := range col {
		col[t] = m.At(t, d)
	}
	return col
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{
		Terms:  append([]string(nil), m.Terms...),
		Docs:   append([]Label(nil), m.Docs...),
		Values: append([]float64(nil), m.Values...),
	}
}

// Sorted returns a new matrix with terms in lexicographic order and
// documents in chronological order. Documents released on the same date
// fall back to label order. The receiver is left untouched.
func (m *Matrix) Sorted() *Matrix {
	tperm := TermOrder(m.Terms)
	dperm := DocOrder(m.Docs)
	return m.Permute(tperm, dperm)
}

// Permute returns a new matrix whose row i is the receiver's row tperm[i]
// and whose column j is the receiver's column dperm[j].
func (m *Matrix) Permute(tperm, dperm []int) *Matrix {
	out := New(make([]string, len(tperm)), make([]Label, len(dperm)))
	for i, src := range tperm {
		out.Terms[i] = m.Terms[src]
	}
	for j, src := range dperm {
		out.Docs[j] = m.Docs[src]
	}
	for i, ts := range tperm {
		row := m.Row(ts)
		dst := out.Row(i)
		for j, ds := range dperm {
			dst[j] = row[ds]
		}
	}
	return out
}

// TermOrder returns the permutation that sorts terms lexicographically.
func TermOrder(terms []string) []int {
	perm := identity(len(terms))
	sort.SliceStable(perm, func(i, j int) bool {
		return terms[perm[i]] < terms[perm[j]]
	})
	return perm
}

// DocOrder returns the permutation that sorts documents by release date.
func DocOrder(docs []Label) []int {
	perm := identity(len(docs))
	sort.SliceStable(perm, func(i, j int) bool {
		a, b := docs[perm[i]], docs[perm[j]]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Name < b.Name
	})
	return perm
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}
