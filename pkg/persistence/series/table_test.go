package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
)

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2000, 1, 1+i, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func TestAddBuildsColumns(t *testing.T) {
	tbl := NewTable()
	require.True(t, tbl.Empty())

	labels := []string{"Baseline", "Preprocessing", "Preprocessing + IDF"}
	for i, l := range labels {
		require.NoError(t, tbl.Add(l, dates(5), []float64{float64(i), 1, 2, 3, 4}))
	}

	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, labels, tbl.Labels)
	assert.Len(t, tbl.Columns, 3)
	assert.Equal(t, []float64{0, 1, 2}, tbl.Row(0))
	assert.Equal(t, []float64{2, 1, 2, 3, 4}, tbl.Column("Preprocessing + IDF"))
	assert.Nil(t, tbl.Column("missing"))
}

func TestAddFirstSeriesFixesIndex(t *testing.T) {
	tbl := NewTable()
	first := dates(3)
	require.NoError(t, tbl.Add("a", first, []float64{1, 2, 3}))

	other := []time.Time{first[2], first[1], first[0]}
	require.NoError(t, tbl.Add("b", other, []float64{4, 5, 6}))
	assert.Equal(t, first, tbl.Dates)
}

func TestAddDuplicateLabel(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Add("Baseline", dates(2), []float64{1, 2}))
	err := tbl.Add("Baseline", dates(2), []float64{3, 4})
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
	assert.Equal(t, []float64{1, 2}, tbl.Column("Baseline"), "no last-write-wins")
}

func TestAddLengthMismatch(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Add("a", dates(3), []float64{1, 2, 3}))
	assert.ErrorIs(t, tbl.Add("b", dates(2), []float64{1, 2}), internalerr.ErrInvalidConfig)
	assert.ErrorIs(t, tbl.Add("c", dates(3), []float64{1, 2}), internalerr.ErrInvalidConfig)
}

func TestMovingAverageWindowEight(t *testing.T) {
	vals := []float64{0.90, 0.88, 0.91, 0.85, 0.89, 0.93, 0.87, 0.90, 0.92}
	ma := MovingAverage(vals, DefaultWindow)
	require.Len(t, ma, len(vals))

	for i := 0; i < 7; i++ {
		assert.True(t, math.IsNaN(ma[i]), "index %d should be missing", i)
	}
	assert.InDelta(t, 0.89125, ma[7], 1e-9)
	assert.InDelta(t, (0.88+0.91+0.85+0.89+0.93+0.87+0.90+0.92)/8, ma[8], 1e-9)
}

func TestMovingAverageWindowOne(t *testing.T) {
	vals := []float64{1, 2, 3}
	assert.Equal(t, vals, MovingAverage(vals, 1))
}

func TestMovingAverageShortSeries(t *testing.T) {
	ma := MovingAverage([]float64{1, 2}, 8)
	assert.True(t, math.IsNaN(ma[0]))
	assert.True(t, math.IsNaN(ma[1]))
}

func TestMovingAverageNaNPropagates(t *testing.T) {
	vals := []float64{1, math.NaN(), 3, 5, 7}
	ma := MovingAverage(vals, 2)
	assert.True(t, math.IsNaN(ma[0]))
	assert.True(t, math.IsNaN(ma[1]))
	assert.True(t, math.IsNaN(ma[2]))
	assert.InDelta(t, 4.0, ma[3], 1e-12)
	assert.InDelta(t, 6.0, ma[4], 1e-12)
}

func TestTableMovingAverage(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Add("a", dates(3), []float64{1, 2, 3}))
	require.NoError(t, tbl.Add("b", dates(3), []float64{2, 4, 6}))

	ma, err := tbl.MovingAverage(2)
	require.NoError(t, err)
	assert.Equal(t, tbl.Dates, ma.Dates)
	assert.Equal(t, tbl.Labels, ma.Labels)
	assert.InDelta(t, 2.5, ma.Column("a")[2], 1e-12)
	assert.InDelta(t, 5.0, ma.Column("b")[2], 1e-12)
	assert.Equal(t, []float64{1, 2, 3}, tbl.Column("a"), "source table untouched")

	_, err = tbl.MovingAverage(0)
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}
