// Package averages computes molecular-weight averages for a population of
// particles described by parallel counts and weights slices.
//
//	Mn = Σ n·M / Σ n
//	Mp = M at the largest n
//	Mv = (Σ n·M^(α+1) / Σ n·M)^(1/α)
//	Mw = Σ n·M² / Σ n·M
//	Mz = Σ n·M^(z+1) / Σ n·M^z
//
// All functions are pure; inputs are never modified.
package averages

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultAlpha is the Mark-Houwink exponent used for Mv when none is given.
	DefaultAlpha = 0.5

	// DefaultZ is the moment index used for Mz when none is given.
	DefaultZ = 2.0
)

// WeightFractions returns each species' share of the total mass.
// On a zero total mass the returned slice is all NaN and the error wraps
// ErrDivisionByZero.
func WeightFractions(counts, weights []float64) ([]float64, error) {
	if err := check(counts, weights); err != nil {
		return nil, err
	}

	nw := floats.MulTo(make([]float64, len(counts)), counts, weights)
	total := floats.Sum(nw)
	if total == 0 {
		return fill(nw, math.NaN()), fmt.Errorf("%w: total mass is zero", ErrDivisionByZero)
	}

	for i := range nw {
		nw[i] /= total
	}
	return nw, nil
}

// NumberFractions returns each species' share of the total count.
func NumberFractions(counts []float64) ([]float64, error) {
	if len(counts) == 0 {
		return nil, ErrEmpty
	}

	nf := make([]float64, len(counts))
	total := floats.Sum(counts)
	if total == 0 {
		return fill(nf, math.NaN()), fmt.Errorf("%w: total count is zero", ErrDivisionByZero)
	}

	for i, n := range counts {
		nf[i] = n / total
	}
	return nf, nil
}

// Mn returns the number-average molecular weight.
func Mn(counts, weights []float64) (float64, error) {
	if err := check(counts, weights); err != nil {
		return math.NaN(), err
	}
	return ratio(floats.Dot(counts, weights), floats.Sum(counts), "total count")
}

// Mp returns the peak molecular weight: the weight of the species with the
// highest count. Ties go to the first such species.
func Mp(counts, weights []float64) (float64, error) {
	if err := check(counts, weights); err != nil {
		return math.NaN(), err
	}
	return weights[floats.MaxIdx(counts)], nil
}

// Mv returns the viscosity-average molecular weight for exponent alpha.
func Mv(counts, weights []float64, alpha float64) (float64, error) {
	if err := check(counts, weights); err != nil {
		return math.NaN(), err
	}
	if !(alpha > 0) {
		return math.NaN(), fmt.Errorf("%w: %g", ErrInvalidAlpha, alpha)
	}

	r, err := ratio(moment(counts, weights, alpha+1), moment(counts, weights, 1), "total mass")
	if err != nil {
		return r, err
	}
	return math.Pow(r, 1/alpha), nil
}

// Mw returns the weight-average molecular weight, the z=1 case of Mz.
func Mw(counts, weights []float64) (float64, error) {
	return Mz(counts, weights, 1)
}

// Mz returns the higher average for moment index z. Non-integer and negative
// z are evaluated as given.
func Mz(counts, weights []float64, z float64) (float64, error) {
	if err := check(counts, weights); err != nil {
		return math.NaN(), err
	}
	return ratio(moment(counts, weights, z+1), moment(counts, weights, z), fmt.Sprintf("Σ n·M^%g", z))
}

func check(counts, weights []float64) error {
	if len(counts) != len(weights) {
		return fmt.Errorf("%w: %d counts, %d weights", ErrShapeMismatch, len(counts), len(weights))
	}
	if len(counts) == 0 {
		return ErrEmpty
	}
	return nil
}

// moment returns Σ counts[i]·weights[i]^p.
func moment(counts, weights []float64, p float64) float64 {
	if p == 1 {
		return floats.Dot(counts, weights)
	}
	pw := make([]float64, len(weights))
	for i, w := range weights {
		pw[i] = math.Pow(w, p)
	}
	return floats.Dot(counts, pw)
}

func ratio(num, den float64, what string) (float64, error) {
	if den == 0 {
		return math.NaN(), fmt.Errorf("%w: %s is zero", ErrDivisionByZero, what)
	}
	return num / den, nil
}

func fill(s []float64, v float64) []float64 {
	for i := range s {
		s[i] = v
	}
	return s
}
