package similarity

import (
	"math"
	"time"

	"github.com/cognicore/persistence/pkg/persistence/tdm"
)

// Cosine returns dot(a,b) / sqrt(dot(a,a)·dot(b,b)).
// If either vector has zero norm the result is NaN.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("similarity: vectors of different length")
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	den := math.Sqrt(na * nb)
	if den == 0 {
		return math.NaN()
	}
	return dot / den
}

// Point is the persistence of one document against its predecessor.
type Point struct {
	Date  time.Time
	Doc   string
	Score float64
}

// Series holds one score per document after the first, in column order.
type Series []Point

// Scores returns the bare score values.
func (s Series) Scores() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Score
	}
	return out
}

// Dates returns the date of each point.
func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

// Degenerate returns the positions whose score is not finite.
func (s Series) Degenerate() []int {
	var idx []int
	for i, p := range s {
		if math.IsNaN(p.Score) || math.IsInf(p.Score, 0) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Persistence scores each column d = 1..n-1 of m against column d-1.
// m is expected in chronological column order (see tdm.Matrix.Sorted).
func Persistence(m *tdm.Matrix) Series {
	n := m.Cols()
	if n < 2 {
		return Series{}
	}
	out := make(Series, 0, n-1)
	prev := m.Column(0)
	for d := 1; d < n; d++ {
		cur := m.Column(d)
		out = append(out, Point{
			Date:  m.Docs[d].Date,
			Doc:   m.Docs[d].Name,
			Score: Cosine(cur, prev),
		})
		prev = cur
	}
	return out
}
