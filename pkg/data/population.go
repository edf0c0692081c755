package data

import (
	"math"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/pkg/errors"
)

var errNegativeValue = errors.New("counts and weights must be non-negative numbers")

// Population is a set of species, each with a particle count and a molecular
// weight. Counts and Weights are index-aligned.
type Population struct {
	Name    string    `json:"name,omitempty" yaml:"name,omitempty"`
	Counts  []float64 `json:"counts" yaml:"counts"`
	Weights []float64 `json:"weights" yaml:"weights"`
}

// Len returns the number of species.
func (p *Population) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Counts)
}

// Validate checks the population is usable by the averages package.
func (p *Population) Validate() error {
	if p == nil {
		return errors.New("population is nil")
	}
	if len(p.Counts) != len(p.Weights) {
		return errors.Wrapf(averages.ErrShapeMismatch, "population %q: %d counts, %d weights",
			p.Name, len(p.Counts), len(p.Weights))
	}
	if len(p.Counts) == 0 {
		return errors.Wrapf(averages.ErrEmpty, "population %q", p.Name)
	}
	for i := range p.Counts {
		if !nonNegative(p.Counts[i]) || !nonNegative(p.Weights[i]) {
			return errors.Wrapf(errNegativeValue, "population %q: species %d (count: %g, weight: %g)",
				p.Name, i, p.Counts[i], p.Weights[i])
		}
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
