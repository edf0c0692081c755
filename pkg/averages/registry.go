package averages

import (
	"fmt"
	"slices"
)

// Average names as they appear in the registry.
const (
	NameMn = "Mn"
	NameMp = "Mp"
	NameMv = "Mv"
	NameMw = "Mw"
	NameMz = "Mz"
)

// canonical is the registry order, used whenever "all averages" are requested.
var canonical = []string{NameMn, NameMp, NameMv, NameMw, NameMz}

var defaultRegistry = NewRegistry(DefaultAlpha, DefaultZ)

// Func computes one named average with its parameters already bound.
type Func func(counts, weights []float64) (float64, error)

// Result is a single computed average.
type Result struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Registry maps average names to their functions. It is never modified after
// construction and is safe for concurrent use.
type Registry struct {
	alpha float64
	z     float64
	funcs map[string]Func
}

// NewRegistry returns a registry whose Mv uses alpha and whose Mz uses z.
func NewRegistry(alpha, z float64) *Registry {
	return &Registry{
		alpha: alpha,
		z:     z,
		funcs: map[string]Func{
			NameMn: Mn,
			NameMp: Mp,
			NameMv: func(counts, weights []float64) (float64, error) {
				return Mv(counts, weights, alpha)
			},
			NameMw: Mw,
			NameMz: func(counts, weights []float64) (float64, error) {
				return Mz(counts, weights, z)
			},
		},
	}
}

// Default returns the registry bound to DefaultAlpha and DefaultZ.
func Default() *Registry {
	return defaultRegistry
}

// Alpha returns the Mv exponent bound in r.
func (r *Registry) Alpha() float64 { return r.alpha }

// Z returns the Mz moment index bound in r.
func (r *Registry) Z() float64 { return r.z }

// Names returns the registered names in canonical order.
func (r *Registry) Names() []string {
	return slices.Clone(canonical)
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Func, error) {
	f, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownAverage, name, canonical)
	}
	return f, nil
}

// Compute evaluates the named averages in the order given, or all of them in
// canonical order when names is empty. It stops at the first failure.
func (r *Registry) Compute(counts, weights []float64, names ...string) ([]Result, error) {
	if len(names) == 0 {
		names = canonical
	}

	list := make([]Result, 0, len(names))
	for _, name := range names {
		f, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		v, err := f(counts, weights)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		list = append(list, Result{Name: name, Value: v})
	}
	return list, nil
}

// Names returns the names in the default registry.
func Names() []string {
	return defaultRegistry.Names()
}

// Lookup resolves name in the default registry.
func Lookup(name string) (Func, error) {
	return defaultRegistry.Lookup(name)
}

// Compute evaluates names against the default registry.
func Compute(counts, weights []float64, names ...string) ([]Result, error) {
	return defaultRegistry.Compute(counts, weights, names...)
}
