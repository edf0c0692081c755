package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mchmarny/molweight/pkg/auth"
	"github.com/mchmarny/molweight/pkg/config"
	"github.com/mchmarny/molweight/pkg/data"
	"github.com/mchmarny/molweight/pkg/distribution"
	"github.com/urfave/cli/v3"
)

const (
	stdinInput = "-"

	inputFlagName       = "input"
	inputFormatFlagName = "input-format"
	driverFlagName      = "driver"
	dsnFlagName         = "dsn"
	dsnNameFlagName     = "dsn-name"
	queryFlagName       = "query"
	distFlagName        = "dist"
	aFlagName           = "a"
	kMaxFlagName        = "k-max"
	muFlagName          = "mu"
	sigmaFlagName       = "sigma"
	pFlagName           = "p"
)

// populationFlags select where a command reads its population from.
func populationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      inputFlagName,
			Aliases:   []string{"i"},
			Usage:     "Population file (csv, json, yaml), http(s) URL, or - for stdin",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  inputFormatFlagName,
			Usage: fmt.Sprintf("Format of stdin input [%s]", strings.Join(data.Formats, ", ")),
			Value: data.FormatJSON,
		},
		&cli.StringFlag{
			Name:  driverFlagName,
			Usage: fmt.Sprintf("Database driver [%s]", strings.Join(data.Drivers, ", ")),
			Value: data.DriverSQLite,
		},
		&cli.StringFlag{
			Name:  dsnFlagName,
			Usage: "Database connection string",
		},
		&cli.StringFlag{
			Name:  dsnNameFlagName,
			Usage: "Name of a connection string saved with 'dsn set'",
		},
		&cli.StringFlag{
			Name:  queryFlagName,
			Usage: "SQL query returning count and weight columns",
		},
		&cli.StringFlag{
			Name:  distFlagName,
			Usage: "Synthetic distribution [flory-schulz, gaussian, general-gaussian]",
			Value: config.SourceFlorySchulz,
		},
		&cli.Float64Flag{
			Name:  aFlagName,
			Usage: "Flory-Schulz probability parameter, in (0, 1)",
			Value: distribution.DefaultFloryA,
		},
		&cli.IntFlag{
			Name:  kMaxFlagName,
			Usage: "Flory-Schulz largest chain length",
			Value: distribution.DefaultFloryKMax,
		},
		&cli.Float64Flag{
			Name:  muFlagName,
			Usage: "Gaussian mean molecular weight",
		},
		&cli.Float64Flag{
			Name:  sigmaFlagName,
			Usage: "Gaussian standard deviation",
		},
		&cli.Float64Flag{
			Name:  pFlagName,
			Usage: "General Gaussian shape exponent (1 is Gaussian)",
			Value: 1,
		},
	}
}

// sourceFromFlags maps the population flags to a config source. An input
// flag wins over a query, which wins over the synthetic distribution.
func sourceFromFlags(cmd *cli.Command) (config.Source, error) {
	var s config.Source

	switch input := cmd.String(inputFlagName); {
	case input != "" && data.IsURL(input):
		s = config.Source{Type: config.SourceURL, URL: input}
	case input != "":
		s = config.Source{Type: config.SourceFile, Path: input}
	case cmd.String(queryFlagName) != "":
		s = config.Source{
			Type:    config.SourceSQL,
			Driver:  cmd.String(driverFlagName),
			DSN:     cmd.String(dsnFlagName),
			DSNName: cmd.String(dsnNameFlagName),
			Query:   cmd.String(queryFlagName),
		}
	default:
		s = config.Source{Type: cmd.String(distFlagName)}
		if s.Type == config.SourceFlorySchulz {
			s.A = cmd.Float64(aFlagName)
			s.KMax = cmd.Int(kMaxFlagName)
		} else {
			s.Mu = cmd.Float64(muFlagName)
			s.Sigma = cmd.Float64(sigmaFlagName)
			s.P = cmd.Float64(pFlagName)
		}
	}

	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid population source: %w", err)
	}
	return s, nil
}

// populationResolver turns a source into a population.
type populationResolver struct {
	stdin       io.Reader
	stdinFormat string
	dsns        *auth.Store
}

func newResolver(cmd *cli.Command) *populationResolver {
	r := &populationResolver{
		stdin:       cmd.Root().Reader,
		stdinFormat: data.FormatJSON,
		dsns:        getConfig(cmd).DSNs,
	}
	if f := cmd.String(inputFormatFlagName); f != "" {
		r.stdinFormat = f
	}
	return r
}

func (r *populationResolver) resolve(ctx context.Context, s config.Source) (*data.Population, error) {
	switch s.Type {
	case config.SourceFlorySchulz:
		return distribution.FlorySchulzPopulation(s.A, s.KMax)
	case config.SourceGaussian:
		return distribution.GaussianPopulation(s.Mu, s.Sigma)
	case config.SourceGeneralGaussian:
		return distribution.GeneralGaussianPopulation(s.Mu, s.Sigma, s.P)
	case config.SourceFile:
		if s.Path == stdinInput {
			if r.stdin == nil {
				return nil, fmt.Errorf("stdin not available")
			}
			p, err := data.Decode(r.stdin, r.stdinFormat)
			if err != nil {
				return nil, fmt.Errorf("reading population from stdin: %w", err)
			}
			if p.Name == "" {
				p.Name = "stdin"
			}
			return p, nil
		}
		return data.LoadFile(s.Path)
	case config.SourceURL:
		return data.LoadURL(ctx, s.URL)
	case config.SourceSQL:
		return r.resolveSQL(ctx, s)
	default:
		return nil, fmt.Errorf("unsupported population source %q", s.Type)
	}
}

func (r *populationResolver) resolveSQL(ctx context.Context, s config.Source) (*data.Population, error) {
	dsn := s.DSN
	if dsn == "" {
		if r.dsns == nil {
			return nil, fmt.Errorf("no dsn store to resolve %q", s.DSNName)
		}
		var err error
		if dsn, err = r.dsns.Get(s.DSNName); err != nil {
			return nil, fmt.Errorf("resolving dsn: %w", err)
		}
	}

	db, err := data.GetDB(s.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	p, err := data.LoadSQL(ctx, db, s.Query)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = s.Driver
	}
	return p, nil
}

// populationFromFlags resolves the population selected by the command flags.
func populationFromFlags(ctx context.Context, cmd *cli.Command) (*data.Population, error) {
	s, err := sourceFromFlags(cmd)
	if err != nil {
		return nil, err
	}
	return newResolver(cmd).resolve(ctx, s)
}
