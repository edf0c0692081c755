package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/mchmarny/molweight/pkg/chart"
	"github.com/mchmarny/molweight/pkg/config"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	outputFlagName      = "output"
	averageFlagName     = "average"
	allAveragesFlagName = "all-averages"
	yTickFlagName       = "y-tick"
	titleFlagName       = "title"
	widthFlagName       = "width"
	heightFlagName      = "height"
	parallelFlagName    = "parallel"
	watchFlagName       = "watch"

	batchParallelDefault = 4
)

func renderCmd() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Draw number and weight fraction curves with average markers",
		Flags: append(populationFlags(),
			&cli.StringFlag{
				Name:      outputFlagName,
				Aliases:   []string{"o"},
				Usage:     fmt.Sprintf("Chart file, format from extension %v", chart.Formats),
				Value:     config.DefaultPlotOutput,
				TakesFile: true,
			},
			&cli.StringSliceFlag{
				Name:  averageFlagName,
				Usage: "Average to mark, repeatable (default: Mp, Mn, Mw, Mz)",
			},
			&cli.BoolFlag{
				Name:  allAveragesFlagName,
				Usage: "Mark every known average",
			},
			&cli.Float64SliceFlag{
				Name:  yTickFlagName,
				Usage: "Y axis tick, repeatable (default: 0 to 0.02 by 0.005 for the default plot)",
			},
			&cli.StringFlag{
				Name:  titleFlagName,
				Usage: "Chart title",
			},
			&cli.Float64Flag{
				Name:  widthFlagName,
				Usage: "Chart width in inches (default: from config, or 6.4)",
			},
			&cli.Float64Flag{
				Name:  heightFlagName,
				Usage: "Chart height in inches (default: from config, or 4.8)",
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
		Action: cmdRender,
	}
}

// plotFromFlags builds the plot the render flags describe. With no source
// flags it is the default Flory-Schulz plot.
func plotFromFlags(cmd *cli.Command) (config.Plot, error) {
	src, err := sourceFromFlags(cmd)
	if err != nil {
		return config.Plot{}, err
	}

	p := config.DefaultPlot()
	if src != p.Source {
		// default ticks only fit the default population
		p.YTicks = nil
	}
	p.Source = src
	p.Output = cmd.String(outputFlagName)
	p.Title = cmd.String(titleFlagName)
	p.AllAverages = cmd.Bool(allAveragesFlagName)
	if v := cmd.StringSlice(averageFlagName); len(v) > 0 {
		p.Averages = v
	}
	if v := cmd.Float64Slice(yTickFlagName); len(v) > 0 {
		p.YTicks = v
	}
	return p, nil
}

func chartOptions(cfg *config.Config, p config.Plot, reg *averages.Registry) chart.Options {
	return chart.Options{
		Title:       p.Title,
		Averages:    p.Averages,
		AllAverages: p.AllAverages,
		YTicks:      p.YTicks,
		Width:       cfg.Chart.Width,
		Height:      cfg.Chart.Height,
		Registry:    reg,
	}
}

// renderPlot resolves the plot population and writes its chart.
func renderPlot(ctx context.Context, r *populationResolver, opts chart.Options, p config.Plot) error {
	pop, err := r.resolve(ctx, p.Source)
	if err != nil {
		return fmt.Errorf("plot %s: %w", p.Name, err)
	}
	if err := chart.Save(p.Output, pop, opts); err != nil {
		return fmt.Errorf("plot %s: %w", p.Name, err)
	}
	slog.Info("chart saved", "plot", p.Name, "output", p.Output, "population", pop.Name)
	return nil
}

func cmdRender(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	p, err := plotFromFlags(cmd)
	if err != nil {
		return err
	}

	opts := chartOptions(cfg.Config, p, registryFromFlags(cmd))
	if cmd.IsSet(widthFlagName) {
		opts.Width = cmd.Float64(widthFlagName)
	}
	if cmd.IsSet(heightFlagName) {
		opts.Height = cmd.Float64(heightFlagName)
	}

	return renderPlot(ctx, newResolver(cmd), opts, p)
}

func batchCmd() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Render every plot in the config file",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  parallelFlagName,
				Usage: "Number of charts rendered at once",
				Value: batchParallelDefault,
			},
			&cli.BoolFlag{
				Name:  watchFlagName,
				Usage: "Render again whenever the config file changes",
			},
		},
		Action: cmdBatch,
	}
}

// renderAll renders the plots of cfg concurrently, at most parallel at a time.
func renderAll(ctx context.Context, r *populationResolver, cfg *config.Config, parallel int) error {
	if len(cfg.Plots) == 0 {
		return fmt.Errorf("config has no plots to render")
	}
	if parallel < 1 {
		parallel = 1
	}

	reg := cfg.Registry()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, p := range cfg.Plots {
		opts := chartOptions(cfg, p, reg)
		g.Go(func() error {
			return renderPlot(ctx, r, opts, p)
		})
	}
	return g.Wait()
}

func cmdBatch(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	r := newResolver(cmd)
	parallel := cmd.Int(parallelFlagName)

	if err := renderAll(ctx, r, cfg.Config, parallel); err != nil {
		return err
	}

	if !cmd.Bool(watchFlagName) {
		return nil
	}
	if cfg.ConfigPath == "" {
		return fmt.Errorf("no config file to watch")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return config.Watch(ctx, cfg.ConfigPath, func(c *config.Config) {
		if err := renderAll(ctx, r, c, parallel); err != nil {
			slog.Error("batch render failed", "error", err)
		}
	})
}
