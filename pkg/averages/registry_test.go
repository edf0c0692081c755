package averages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"Mn", "Mp", "Mv", "Mw", "Mz"}, Names())

	// callers get a copy
	n := Names()
	n[0] = "changed"
	assert.Equal(t, "Mn", Names()[0])
}

func TestLookup_MatchesDirectCalls(t *testing.T) {
	direct := map[string]func() (float64, error){
		NameMn: func() (float64, error) { return Mn(testCounts, testWeights) },
		NameMp: func() (float64, error) { return Mp(testCounts, testWeights) },
		NameMv: func() (float64, error) { return Mv(testCounts, testWeights, DefaultAlpha) },
		NameMw: func() (float64, error) { return Mw(testCounts, testWeights) },
		NameMz: func() (float64, error) { return Mz(testCounts, testWeights, DefaultZ) },
	}

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			f, err := Lookup(name)
			require.NoError(t, err)
			require.NotNil(t, f)

			got, err := f(testCounts, testWeights)
			require.NoError(t, err)
			want, err := direct[name]()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	f, err := Lookup("Mq")
	assert.ErrorIs(t, err, ErrUnknownAverage)
	assert.Nil(t, f)
	assert.Contains(t, err.Error(), "Mq")

	// names are case sensitive
	_, err = Lookup("mn")
	assert.ErrorIs(t, err, ErrUnknownAverage)
}

func TestCompute_All(t *testing.T) {
	list, err := Compute(testCounts, testWeights)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, name := range Names() {
		assert.Equal(t, name, list[i].Name)
	}
	assert.Equal(t, 3.0, list[0].Value)
}

func TestCompute_Subset(t *testing.T) {
	list, err := Compute(testCounts, testWeights, "Mp", "Mn", "Mw", "Mz")
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "Mp", list[0].Name)
	assert.Equal(t, "Mz", list[3].Name)
	assert.InDelta(t, 3.774193548387097, list[3].Value, tolerance)
}

func TestCompute_Errors(t *testing.T) {
	_, err := Compute(testCounts, testWeights, "Mn", "nope")
	assert.ErrorIs(t, err, ErrUnknownAverage)

	_, err = Compute([]float64{0, 0}, []float64{1, 2}, "Mn")
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Contains(t, err.Error(), "Mn")
}

func TestNewRegistry_Parameters(t *testing.T) {
	r := NewRegistry(0.7, 3)
	assert.Equal(t, 0.7, r.Alpha())
	assert.Equal(t, 3.0, r.Z())

	mz, err := r.Lookup(NameMz)
	require.NoError(t, err)
	v, err := mz(testCounts, testWeights)
	require.NoError(t, err)
	assert.InDelta(t, 4.0256410256410255, v, tolerance)

	mv, err := r.Lookup(NameMv)
	require.NoError(t, err)
	got, err := mv(testCounts, testWeights)
	require.NoError(t, err)
	want, err := Mv(testCounts, testWeights, 0.7)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, DefaultAlpha, Default().Alpha())
	assert.Equal(t, DefaultZ, Default().Z())
}

func TestRegistry_InvalidAlpha(t *testing.T) {
	r := NewRegistry(0, DefaultZ)
	_, err := r.Compute(testCounts, testWeights, NameMv)
	assert.ErrorIs(t, err, ErrInvalidAlpha)
}
