package distribution

import (
	"testing"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlorySchulz(t *testing.T) {
	tests := []struct {
		a, k float64
		want float64
	}{
		{0.5, 1, 0.25},
		{0.95, 1, 0.9025},
		{0.5, 10, 0.25 * 10 * 0.001953125},
		{0.3, 0, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, FlorySchulz(tt.a, tt.k), 1e-12, "a=%g k=%g", tt.a, tt.k)
	}
}

func TestFlorySchulzSeries(t *testing.T) {
	ks := []float64{1, 2, 3}
	got := FlorySchulzSeries(0.5, ks)
	require.Len(t, got, 3)
	for i, k := range ks {
		assert.Equal(t, FlorySchulz(0.5, k), got[i])
	}
	assert.Empty(t, FlorySchulzSeries(0.5, nil))
}

func TestFlorySchulz_SumsToOne(t *testing.T) {
	var sum float64
	for _, v := range FlorySchulzSeries(0.2, Range(1000)) {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRange(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2, 3}, Range(4))
	assert.Equal(t, []float64{0}, Range(1))
	assert.Empty(t, Range(0))
	assert.Empty(t, Range(-2))
	r := Range(100)
	assert.Len(t, r, 100)
	assert.Equal(t, 99.0, r[99])
}

func TestLinspace(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0, 0.005, 0.01, 0.015, 0.02}, Linspace(0, 0.02, 5), 1e-15)
	assert.Equal(t, []float64{3}, Linspace(3, 9, 1))
	assert.Empty(t, Linspace(0, 1, 0))
}

func TestGeneralGaussian(t *testing.T) {
	w := GeneralGaussian(5, 1, 1)
	require.Len(t, w, 5)
	assert.Equal(t, 1.0, w[2])
	assert.Equal(t, w[0], w[4])
	assert.Equal(t, w[1], w[3])
	assert.InDelta(t, 0.6065306597126334, w[1], 1e-12)

	// higher p flattens the top
	flat := GeneralGaussian(5, 4, 2)
	assert.Greater(t, flat[1], GeneralGaussian(5, 1, 2)[1])

	assert.Equal(t, []float64{1}, GeneralGaussian(1, 1, 1))
	assert.Empty(t, GeneralGaussian(0, 1, 1))
}

func TestFlorySchulzPopulation(t *testing.T) {
	p, err := FlorySchulzPopulation(DefaultFloryA, DefaultFloryKMax)
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Equal(t, 100, p.Len())
	assert.Equal(t, 0.0, p.Weights[0])
	assert.Equal(t, 0.0, p.Counts[0])
	assert.Contains(t, p.Name, "flory-schulz")

	mp, err := averages.Mp(p.Counts, p.Weights)
	require.NoError(t, err)
	// mode of k·(1−a)^(k−1) is at k ≈ -1/ln(1−a) ≈ 19.5
	assert.InDelta(t, 19, mp, 1)

	mn, err := averages.Mn(p.Counts, p.Weights)
	require.NoError(t, err)
	mw, err := averages.Mw(p.Counts, p.Weights)
	require.NoError(t, err)
	assert.Less(t, mn, mw)
}

func TestFlorySchulzPopulation_Invalid(t *testing.T) {
	for _, a := range []float64{0, 1, -0.1, 1.5} {
		_, err := FlorySchulzPopulation(a, 10)
		assert.ErrorIs(t, err, ErrInvalidParameter, "a=%g", a)
	}
	for _, k := range []int{0, -1, MaxFloryKMax + 1, 2_000_000_000} {
		_, err := FlorySchulzPopulation(0.5, k)
		assert.ErrorIs(t, err, ErrInvalidParameter, "k_max=%d", k)
	}

	p, err := FlorySchulzPopulation(0.5, MaxFloryKMax)
	require.NoError(t, err)
	assert.Equal(t, MaxFloryKMax, p.Len())
}

func TestGaussianPopulation(t *testing.T) {
	p, err := GaussianPopulation(5000, 500)
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Equal(t, GaussianPoints, p.Len())
	assert.Equal(t, 0.0, p.Weights[0])
	assert.InDelta(t, 10000, p.Weights[GaussianPoints-1], 1e-9)
	assert.Contains(t, p.Name, "gaussian")

	// a symmetric band averages to its centre
	mn, err := averages.Mn(p.Counts, p.Weights)
	require.NoError(t, err)
	assert.InDelta(t, 5000, mn, 1e-6)
}

func TestGeneralGaussianPopulation_Invalid(t *testing.T) {
	tests := [][3]float64{
		{0, 1, 1},
		{10, 0, 1},
		{10, 1, 0},
		{-5, 1, 1},
	}
	for _, tt := range tests {
		_, err := GeneralGaussianPopulation(tt[0], tt[1], tt[2])
		assert.ErrorIs(t, err, ErrInvalidParameter, "%v", tt)
	}
}
