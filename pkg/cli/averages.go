package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/mchmarny/molweight/pkg/data"
	"github.com/mchmarny/molweight/pkg/distribution"
	"github.com/urfave/cli/v3"
)

const (
	nameFlagName  = "name"
	alphaFlagName = "alpha"
	zFlagName     = "z"
	kFlagName     = "k"
)

var (
	demoFloryA = []float64{0.5, 0.95}
	demoFloryK = []float64{1, 10}
)

func averagesCmd() *cli.Command {
	return &cli.Command{
		Name:    "averages",
		Aliases: []string{"avg"},
		Usage:   "Compute molecular weight averages of a population",
		Flags: append(populationFlags(),
			&cli.StringSliceFlag{
				Name:    nameFlagName,
				Aliases: []string{"n"},
				Usage:   fmt.Sprintf("Averages to compute [%s] (default: all)", strings.Join(averages.Names(), ", ")),
			},
			&cli.Float64Flag{
				Name:  alphaFlagName,
				Usage: "Mark-Houwink exponent for Mv (default: from config)",
			},
			&cli.Float64Flag{
				Name:  zFlagName,
				Usage: "Moment order for Mz (default: from config)",
			},
		),
		Action: cmdAverages,
	}
}

// registryFromFlags returns the config registry with alpha and z overridden
// by flags when set.
func registryFromFlags(cmd *cli.Command) *averages.Registry {
	reg := getConfig(cmd).Config.Registry()
	alpha, z := reg.Alpha(), reg.Z()
	if cmd.IsSet(alphaFlagName) {
		alpha = cmd.Float64(alphaFlagName)
	}
	if cmd.IsSet(zFlagName) {
		z = cmd.Float64(zFlagName)
	}
	return averages.NewRegistry(alpha, z)
}

// AveragesResult lists the averages computed for one population.
type AveragesResult struct {
	Population string            `json:"population" yaml:"population"`
	Species    int               `json:"species" yaml:"species"`
	Alpha      float64           `json:"alpha" yaml:"alpha"`
	Z          float64           `json:"z" yaml:"z"`
	Averages   []averages.Result `json:"averages" yaml:"averages"`
}

func (r *AveragesResult) header() table.Row {
	return table.Row{"Average", "Value"}
}

func (r *AveragesResult) rows() []table.Row {
	list := make([]table.Row, 0, len(r.Averages))
	for _, a := range r.Averages {
		list = append(list, table.Row{a.Name, a.Value})
	}
	return list
}

func computeAverages(pop *data.Population, reg *averages.Registry, names ...string) (*AveragesResult, error) {
	list, err := reg.Compute(pop.Counts, pop.Weights, names...)
	if err != nil {
		return nil, fmt.Errorf("computing averages for %s: %w", pop.Name, err)
	}
	for _, a := range list {
		if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
			return nil, fmt.Errorf("%s of %s is not finite (%g) with alpha=%g, z=%g",
				a.Name, pop.Name, a.Value, reg.Alpha(), reg.Z())
		}
	}
	return &AveragesResult{
		Population: pop.Name,
		Species:    pop.Len(),
		Alpha:      reg.Alpha(),
		Z:          reg.Z(),
		Averages:   list,
	}, nil
}

func cmdAverages(ctx context.Context, cmd *cli.Command) error {
	pop, err := populationFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	res, err := computeAverages(pop, registryFromFlags(cmd), cmd.StringSlice(nameFlagName)...)
	if err != nil {
		return err
	}

	return printResult(cmd, res)
}

func fractionsCmd() *cli.Command {
	return &cli.Command{
		Name:    "fractions",
		Aliases: []string{"wf"},
		Usage:   "Print number and weight fractions of each species",
		Flags:   populationFlags(),
		Action:  cmdFractions,
	}
}

// FractionsResult lists per species fractions of one population.
type FractionsResult struct {
	Population string     `json:"population" yaml:"population"`
	Species    []Fraction `json:"species" yaml:"species"`
}

// Fraction is the share of one species by count and by mass.
type Fraction struct {
	Weight         float64 `json:"weight" yaml:"weight"`
	Count          float64 `json:"count" yaml:"count"`
	NumberFraction float64 `json:"number_fraction" yaml:"number_fraction"`
	WeightFraction float64 `json:"weight_fraction" yaml:"weight_fraction"`
}

func (r *FractionsResult) header() table.Row {
	return table.Row{"Weight", "Count", "Number Fraction", "Weight Fraction"}
}

func (r *FractionsResult) rows() []table.Row {
	list := make([]table.Row, 0, len(r.Species))
	for _, f := range r.Species {
		list = append(list, table.Row{f.Weight, f.Count, f.NumberFraction, f.WeightFraction})
	}
	return list
}

func computeFractions(pop *data.Population) (*FractionsResult, error) {
	nf, err := averages.NumberFractions(pop.Counts)
	if err != nil {
		return nil, fmt.Errorf("number fractions of %s: %w", pop.Name, err)
	}
	wf, err := averages.WeightFractions(pop.Counts, pop.Weights)
	if err != nil {
		return nil, fmt.Errorf("weight fractions of %s: %w", pop.Name, err)
	}

	res := &FractionsResult{
		Population: pop.Name,
		Species:    make([]Fraction, pop.Len()),
	}
	for i := range res.Species {
		res.Species[i] = Fraction{
			Weight:         pop.Weights[i],
			Count:          pop.Counts[i],
			NumberFraction: nf[i],
			WeightFraction: wf[i],
		}
	}
	return res, nil
}

func cmdFractions(ctx context.Context, cmd *cli.Command) error {
	pop, err := populationFromFlags(ctx, cmd)
	if err != nil {
		return err
	}

	res, err := computeFractions(pop)
	if err != nil {
		return err
	}

	return printResult(cmd, res)
}

func florySchulzCmd() *cli.Command {
	return &cli.Command{
		Name:    "flory-schulz",
		Aliases: []string{"fs"},
		Usage:   "Evaluate the Flory-Schulz distribution a^2 k (1-a)^(k-1)",
		Flags: []cli.Flag{
			&cli.Float64SliceFlag{
				Name:  aFlagName,
				Usage: "Probability parameter, repeatable (default: 0.5, 0.95)",
			},
			&cli.Float64SliceFlag{
				Name:  kFlagName,
				Usage: "Chain length, repeatable (default: 1, 10)",
			},
		},
		Action: cmdFlorySchulz,
	}
}

// FlorySchulzValue is the distribution evaluated at one (a, k) pair.
type FlorySchulzValue struct {
	A     float64 `json:"a" yaml:"a"`
	K     float64 `json:"k" yaml:"k"`
	Value float64 `json:"value" yaml:"value"`
}

// FlorySchulzResult holds every evaluated (a, k) pair.
type FlorySchulzResult struct {
	Values []FlorySchulzValue `json:"values" yaml:"values"`
}

func (r *FlorySchulzResult) header() table.Row {
	return table.Row{"a", "k", "Value"}
}

func (r *FlorySchulzResult) rows() []table.Row {
	list := make([]table.Row, 0, len(r.Values))
	for _, v := range r.Values {
		list = append(list, table.Row{v.A, v.K, v.Value})
	}
	return list
}

func evalFlorySchulz(as, ks []float64) *FlorySchulzResult {
	res := &FlorySchulzResult{Values: make([]FlorySchulzValue, 0, len(as)*len(ks))}
	for _, a := range as {
		for i, v := range distribution.FlorySchulzSeries(a, ks) {
			res.Values = append(res.Values, FlorySchulzValue{A: a, K: ks[i], Value: v})
		}
	}
	return res
}

func cmdFlorySchulz(_ context.Context, cmd *cli.Command) error {
	as := cmd.Float64Slice(aFlagName)
	if len(as) == 0 {
		as = demoFloryA
	}
	ks := cmd.Float64Slice(kFlagName)
	if len(ks) == 0 {
		ks = demoFloryK
	}
	return printResult(cmd, evalFlorySchulz(as, ks))
}
