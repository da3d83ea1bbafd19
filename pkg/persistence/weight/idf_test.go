package weight

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
	"github.com/cognicore/persistence/pkg/persistence/tdm"
)

// fixture builds a 3-term × 4-doc matrix:
//
//	common: in every document
//	rare:   in document 2 only
//	some:   in documents 0 and 1
func fixture() *tdm.Matrix {
	m := tdm.New([]string{"common", "rare", "some"}, make([]tdm.Label, 4))
	for d := 0; d < 4; d++ {
		m.Set(0, d, float64(d+1))
	}
	m.Set(1, 2, 3)
	m.Set(2, 0, 2)
	m.Set(2, 1, 1)
	return m
}

func TestDocumentFrequency(t *testing.T) {
	assert.Equal(t, []int{4, 1, 2}, DocumentFrequency(fixture()))
}

func TestOccurrenceIsIndependentCopy(t *testing.T) {
	m := fixture()
	occ := Occurrence(m)
	assert.Equal(t, 1.0, occ.At(0, 3))
	assert.Equal(t, 4.0, m.At(0, 3), "raw counts must survive")

	occ.Set(1, 2, 0)
	assert.Equal(t, 3.0, m.At(1, 2))
}

func TestIDF(t *testing.T) {
	idf, err := IDF(fixture(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 0.0, idf[0], "term in every document has zero IDF")
	assert.InDelta(t, math.Log(4), idf[1], 1e-12)
	assert.InDelta(t, math.Log(2), idf[2], 1e-12)

	for _, v := range idf {
		assert.LessOrEqual(t, v, idf[1], "single-document term has the largest IDF")
	}
}

func TestApplyDisabledPassesThrough(t *testing.T) {
	m := fixture()
	out, err := Apply(m, false, Options{})
	require.NoError(t, err)
	assert.Same(t, m, out)
}

func TestApplyWeightsRows(t *testing.T) {
	m := fixture()
	out, err := Apply(m, true, Options{})
	require.NoError(t, err)

	for d := 0; d < 4; d++ {
		assert.Equal(t, 0.0, out.At(0, d))
	}
	assert.InDelta(t, 3*math.Log(4), out.At(1, 2), 1e-12)
	assert.InDelta(t, 2*math.Log(2), out.At(2, 0), 1e-12)
	assert.Equal(t, 0.0, out.At(1, 0))

	assert.Equal(t, 3.0, m.At(1, 2), "input matrix is not mutated")
}

func TestApplyDegenerateTerm(t *testing.T) {
	m := fixture()
	m.Terms = append(m.Terms, "ghost")
	m.Values = append(m.Values, 0, 0, 0, 0)

	_, err := Apply(m, true, Options{})
	assert.ErrorIs(t, err, internalerr.ErrDegenerateTerm)

	out, err := Apply(m, true, Options{Lenient: true})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.At(3, 0)))
	assert.False(t, math.IsNaN(out.At(2, 0)))
}
