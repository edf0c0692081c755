package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"a.csv", FormatCSV, false},
		{"a.JSON", FormatJSON, false},
		{"dir/a.yaml", FormatYAML, false},
		{"a.yml", FormatYAML, false},
		{"a.txt", "", true},
		{"a", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFile_CSV(t *testing.T) {
	path := writeFile(t, "sample.csv", "# sample\ncount,weight\n1,1\n2,2\n3,3\n2,4\n1,5\n")

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", p.Name)
	assert.Equal(t, []float64{1, 2, 3, 2, 1}, p.Counts)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, p.Weights)
}

func TestLoadFile_CSVSwappedHeader(t *testing.T) {
	path := writeFile(t, "swapped.csv", "Weight, Count\n100, 4\n200, 1\n")

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1}, p.Counts)
	assert.Equal(t, []float64{100, 200}, p.Weights)
}

func TestLoadFile_CSVNoHeader(t *testing.T) {
	path := writeFile(t, "bare.csv", "1,10\n2, 20 \n")

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, p.Counts)
	assert.Equal(t, []float64{10, 20}, p.Weights)
}

func TestLoadFile_CSVErrors(t *testing.T) {
	tests := map[string]string{
		"bad header": "foo,bar\n1,2\n",
		"bad value":  "count,weight\n1,abc\n",
		"columns":    "1,2,3\n",
		"empty":      "count,weight\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, "bad.csv", content))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(writeFile(t, "empty.csv", "count,weight\n"))
	assert.ErrorIs(t, err, averages.ErrEmpty)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "pop.json", `{"name":"ps-standard","counts":[1,2,3],"weights":[1000,2000,3000]}`)

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ps-standard", p.Name)
	assert.Equal(t, 3, p.Len())
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "pop.yml", "counts: [1, 2]\nweights: [5, 6]\n")

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pop", p.Name)
	assert.Equal(t, []float64{5, 6}, p.Weights)
}

func TestLoadFile_ShapeMismatch(t *testing.T) {
	path := writeFile(t, "pop.json", `{"counts":[1,2,3],"weights":[1,2]}`)

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, averages.ErrShapeMismatch)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile("")
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "pop.txt", "1,2"))
	assert.Error(t, err)
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := Decode(strings.NewReader("{}"), "xml")
	assert.Error(t, err)
}
