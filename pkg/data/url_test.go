package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPopulationServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/population", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"counts":[1,2,3,2,1],"weights":[1,2,3,4,5]}`))
	})
	mux.HandleFunc("GET /files/sample.csv", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("count,weight\n1,10\n3,20\n"))
	})
	mux.HandleFunc("GET /files/bad.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"counts":[1],"weights":[]}`))
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("http://example.com/p.json"))
	assert.True(t, IsURL("https://example.com"))
	assert.False(t, IsURL("data/p.json"))
	assert.False(t, IsURL("file:///tmp/p.json"))
	assert.False(t, IsURL("-"))
}

func TestLoadURL_JSON(t *testing.T) {
	s := newPopulationServer(t)

	p, err := LoadURL(context.Background(), s.URL+"/api/population")
	require.NoError(t, err)
	assert.Equal(t, "population", p.Name)
	assert.Equal(t, 5, p.Len())
}

func TestLoadURL_CSV(t *testing.T) {
	s := newPopulationServer(t)

	p, err := LoadURL(context.Background(), s.URL+"/files/sample.csv")
	require.NoError(t, err)
	assert.Equal(t, "sample", p.Name)
	assert.Equal(t, []float64{1, 3}, p.Counts)
}

func TestLoadURL_Errors(t *testing.T) {
	s := newPopulationServer(t)
	ctx := context.Background()

	_, err := LoadURL(ctx, s.URL+"/files/bad.json")
	assert.ErrorIs(t, err, averages.ErrShapeMismatch)

	_, err = LoadURL(ctx, s.URL+"/files/missing.csv")
	assert.Error(t, err)

	_, err = LoadURL(ctx, s.URL+"/files/sample.txt")
	assert.Error(t, err)
}
