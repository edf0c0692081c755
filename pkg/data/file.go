package data

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"

	csvColumns = 2
)

var (
	// Formats lists the population file formats LoadFile and Decode accept.
	Formats = []string{FormatCSV, FormatJSON, FormatYAML}

	countColumnNames  = []string{"count", "counts", "n", "number", "numbers"}
	weightColumnNames = []string{"weight", "weights", "m", "mw", "molecular_weight"}
)

// FormatFromPath returns the population format implied by the file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "yml" {
		ext = FormatYAML
	}
	if !Contains(Formats, ext) {
		return "", errors.Errorf("unsupported population file extension %q (supported: %s)",
			filepath.Ext(path), strings.Join(Formats, ", "))
	}
	return ext, nil
}

// LoadFile reads a population from a CSV, JSON or YAML file.
func LoadFile(path string) (*Population, error) {
	if path == "" {
		return nil, errors.New("population file path not specified")
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening population file: %s", path)
	}
	defer f.Close()

	p, err := Decode(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading population file: %s", path)
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	slog.Debug("population loaded", "path", path, "species", p.Len())
	return p, nil
}

// Decode parses a population in the given format and validates it.
func Decode(r io.Reader, format string) (*Population, error) {
	var (
		p   *Population
		err error
	)

	switch format {
	case FormatCSV:
		p, err = decodeCSV(r)
	case FormatJSON:
		p = &Population{}
		err = json.NewDecoder(r).Decode(p)
	case FormatYAML:
		p = &Population{}
		err = yaml.NewDecoder(r).Decode(p)
	default:
		return nil, errors.Errorf("unsupported population format: %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding %s population", format)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeCSV reads two columns per row: count then weight. An optional header
// row naming the columns may swap their order.
func decodeCSV(r io.Reader) (*Population, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = csvColumns
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "error parsing CSV")
	}

	countIdx, weightIdx := 0, 1
	if len(rows) > 0 && !isNumericRow(rows[0]) {
		countIdx, weightIdx, err = csvHeader(rows[0])
		if err != nil {
			return nil, err
		}
		rows = rows[1:]
	}

	p := &Population{
		Counts:  make([]float64, 0, len(rows)),
		Weights: make([]float64, 0, len(rows)),
	}
	for i, row := range rows {
		n, err := strconv.ParseFloat(strings.TrimSpace(row[countIdx]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid count", i+1)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(row[weightIdx]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d: invalid weight", i+1)
		}
		p.Counts = append(p.Counts, n)
		p.Weights = append(p.Weights, w)
	}
	return p, nil
}

func csvHeader(row []string) (countIdx, weightIdx int, err error) {
	countIdx, weightIdx = -1, -1
	for i, col := range row {
		col = strings.ToLower(strings.TrimSpace(col))
		switch {
		case Contains(countColumnNames, col):
			countIdx = i
		case Contains(weightColumnNames, col):
			weightIdx = i
		}
	}
	if countIdx < 0 || weightIdx < 0 {
		return 0, 0, errors.Errorf("CSV header must name a count and a weight column, got: %v", row)
	}
	return countIdx, weightIdx, nil
}

func isNumericRow(row []string) bool {
	for _, v := range row {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return false
		}
	}
	return true
}
