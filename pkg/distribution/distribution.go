// Package distribution generates synthetic populations: Flory-Schulz chain
// length distributions and (general) Gaussian bands.
package distribution

import (
	"errors"
	"fmt"
	"math"

	"github.com/mchmarny/molweight/pkg/data"
	"gonum.org/v1/gonum/floats"
)

const (
	// GaussianPoints is the number of species in a Gaussian population.
	GaussianPoints = 100

	// Defaults reproduce the reference Flory-Schulz chart.
	DefaultFloryA    = 0.05
	DefaultFloryKMax = 100

	// MaxFloryKMax bounds the number of Flory-Schulz species.
	MaxFloryKMax = 1_000_000
)

// ErrInvalidParameter is returned for out-of-domain distribution parameters.
var ErrInvalidParameter = errors.New("invalid distribution parameter")

// FlorySchulz returns the Flory-Schulz probability mass a²·k·(1−a)^(k−1)
// for shape parameter a (0<a<1) at chain length k.
func FlorySchulz(a, k float64) float64 {
	return a * a * k * math.Pow(1-a, k-1)
}

// FlorySchulzSeries evaluates FlorySchulz for every k in ks.
func FlorySchulzSeries(a float64, ks []float64) []float64 {
	out := make([]float64, len(ks))
	for i, k := range ks {
		out[i] = FlorySchulz(a, k)
	}
	return out
}

// Range returns 0, 1, ..., n-1.
func Range(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	return floats.Span(make([]float64, n+1), 0, float64(n))[:n]
}

// Linspace returns n evenly spaced values from start to end inclusive.
func Linspace(start, end float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, end)
}

// GeneralGaussian returns an m-point symmetric window
// exp(-0.5·|x/sig|^(2p)) centred on (m-1)/2. p=1 is a plain Gaussian,
// p=0.5 is Laplacian-shaped.
func GeneralGaussian(m int, p, sig float64) []float64 {
	if m <= 0 {
		return []float64{}
	}

	w := make([]float64, m)
	center := float64(m-1) / 2
	for i := range w {
		x := float64(i) - center
		w[i] = math.Exp(-0.5 * math.Pow(math.Abs(x/sig), 2*p))
	}
	return w
}

// FlorySchulzPopulation builds species with weights 0..kMax-1 and counts
// given by the Flory-Schulz mass function.
func FlorySchulzPopulation(a float64, kMax int) (*data.Population, error) {
	if !(a > 0 && a < 1) {
		return nil, fmt.Errorf("%w: Flory-Schulz a must be in (0, 1), got %g", ErrInvalidParameter, a)
	}
	if kMax < 1 || kMax > MaxFloryKMax {
		return nil, fmt.Errorf("%w: Flory-Schulz k_max must be in [1, %d], got %d",
			ErrInvalidParameter, MaxFloryKMax, kMax)
	}

	weights := Range(kMax)
	return &data.Population{
		Name:    fmt.Sprintf("flory-schulz(a=%g, k_max=%d)", a, kMax),
		Counts:  FlorySchulzSeries(a, weights),
		Weights: weights,
	}, nil
}

// GaussianPopulation is GeneralGaussianPopulation with p=1.
func GaussianPopulation(mu, sigma float64) (*data.Population, error) {
	p, err := GeneralGaussianPopulation(mu, sigma, 1)
	if err != nil {
		return nil, err
	}
	p.Name = fmt.Sprintf("gaussian(mu=%g, sigma=%g)", mu, sigma)
	return p, nil
}

// GeneralGaussianPopulation builds GaussianPoints species spread over
// [0, 2·mu] with a general Gaussian count profile of shape p and standard
// deviation sigma (in weight units).
func GeneralGaussianPopulation(mu, sigma, p float64) (*data.Population, error) {
	if !(mu > 0) {
		return nil, fmt.Errorf("%w: mean must be positive, got %g", ErrInvalidParameter, mu)
	}
	if !(sigma > 0) {
		return nil, fmt.Errorf("%w: standard deviation must be positive, got %g", ErrInvalidParameter, sigma)
	}
	if !(p > 0) {
		return nil, fmt.Errorf("%w: shape must be positive, got %g", ErrInvalidParameter, p)
	}

	// sigma in weight units -> sigma in sample points
	sig := GaussianPoints * sigma / (2 * mu)
	return &data.Population{
		Name:    fmt.Sprintf("general-gaussian(mu=%g, sigma=%g, p=%g)", mu, sigma, p),
		Counts:  GeneralGaussian(GaussianPoints, p, sig),
		Weights: Linspace(0, 2*mu, GaussianPoints),
	}, nil
}
