package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson(t *testing.T) {
	t.Run("perfect positive correlation", func(t *testing.T) {
		r, err := pearson([]float64{1, 2, 3, 4}, []float64{10, 20, 30, 40})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, r, 1e-9)
	})

	t.Run("perfect negative correlation", func(t *testing.T) {
		r, err := pearson([]float64{1, 2, 3, 4}, []float64{40, 30, 20, 10})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, r, 1e-9)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := pearson([]float64{1, 2}, []float64{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := pearson([]float64{1}, []float64{1})
		assert.Error(t, err)
	})

	t.Run("zero variance", func(t *testing.T) {
		_, err := pearson([]float64{5, 5, 5}, []float64{1, 2, 3})
		assert.Error(t, err)

		_, err = pearson([]float64{1, 2, 3}, []float64{7, 7, 7})
		assert.Error(t, err)
	})

	t.Run("result stays in bounds", func(t *testing.T) {
		r, err := pearson([]float64{1, 2, 3, 5, 8}, []float64{2, 1, 4, 3, 7})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r, -1.0)
		assert.LessOrEqual(t, r, 1.0)
	})
}

func TestPValue(t *testing.T) {
	t.Run("degenerate sample size", func(t *testing.T) {
		assert.Equal(t, 1.0, pValue(0.9, 2))
		assert.Equal(t, 1.0, pValue(0.9, 1))
	})

	t.Run("perfect correlation", func(t *testing.T) {
		assert.Equal(t, 0.0, pValue(1, 10))
		assert.Equal(t, 0.0, pValue(-1, 10))
	})

	t.Run("small sample thresholds", func(t *testing.T) {
		// r=0.9, n=10 gives t ~ 5.84, past the 1% threshold.
		assert.Equal(t, 0.01, pValue(0.9, 10))
		// r=0.1, n=10 gives t ~ 0.28, below every threshold.
		assert.Equal(t, 0.20, pValue(0.1, 10))
	})

	t.Run("large sample uses the normal approximation", func(t *testing.T) {
		p := pValue(0.5, 50)
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 0.01)

		weak := pValue(0.01, 50)
		assert.Greater(t, weak, 0.5)
		assert.LessOrEqual(t, weak, 1.0)
	})

	t.Run("stronger correlation is never less significant", func(t *testing.T) {
		assert.LessOrEqual(t, pValue(0.8, 40), pValue(0.3, 40))
	})
}

func TestFisherInterval(t *testing.T) {
	t.Run("contains the point estimate", func(t *testing.T) {
		ci := fisherInterval(0.6, 30, 0.95)
		assert.Less(t, ci[0], 0.6)
		assert.Greater(t, ci[1], 0.6)
	})

	t.Run("bounds are clamped", func(t *testing.T) {
		ci := fisherInterval(0.95, 5, 0.99)
		assert.GreaterOrEqual(t, ci[0], -1.0)
		assert.LessOrEqual(t, ci[1], 1.0)
		assert.Less(t, ci[0], ci[1])
	})

	t.Run("degenerate inputs return the full interval", func(t *testing.T) {
		assert.Equal(t, [2]float64{-1, 1}, fisherInterval(1, 30, 0.95))
		assert.Equal(t, [2]float64{-1, 1}, fisherInterval(-1, 30, 0.95))
		assert.Equal(t, [2]float64{-1, 1}, fisherInterval(0.5, 3, 0.95))
	})

	t.Run("more data narrows the interval", func(t *testing.T) {
		wide := fisherInterval(0.4, 10, 0.95)
		narrow := fisherInterval(0.4, 100, 0.95)
		assert.Less(t, narrow[1]-narrow[0], wide[1]-wide[0])
	})
}

func TestCriticalValue(t *testing.T) {
	assert.Equal(t, 1.645, criticalValue(0.90))
	assert.Equal(t, 1.96, criticalValue(0.95))
	assert.Equal(t, 2.576, criticalValue(0.99))
	assert.Equal(t, 1.96, criticalValue(0.80)) // unlisted level falls back
}
