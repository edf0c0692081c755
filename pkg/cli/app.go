package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mchmarny/molweight/pkg/auth"
	"github.com/mchmarny/molweight/pkg/config"
	"github.com/mchmarny/molweight/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "molweight"
	appConfigKey = "app-config"

	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"

	debugFlagName    = "debug"
	logLevelFlagName = "log-level"
	formatFlagName   = "format"
	configFlagName   = "config"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormats = []string{formatJSON, formatYAML, formatTable}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	app := newApp(os.Stdout)
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Config     *config.Config
	ConfigPath string
	HomeDir    string
	Format     string
	Debug      bool
	DSNs       *auth.Store
}

func getConfig(cmd *cli.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Molecular weight averages and distribution charts for polymer populations",
		Writer:                w,
		Metadata:              map[string]any{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&cli.StringFlag{
				Name:  logLevelFlagName,
				Usage: "Log level [debug, info, warn, error]",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml, table]",
				Value: formatJSON,
			},
			&cli.StringFlag{
				Name:      configFlagName,
				Usage:     "Path to the config file (default: ~/.molweight/config.yaml)",
				TakesFile: true,
			},
		},
		Commands: []*cli.Command{
			averagesCmd(),
			fractionsCmd(),
			florySchulzCmd(),
			renderCmd(),
			batchCmd(),
			serverCmd(),
			dsnCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			debug := cmd.Bool(debugFlagName)
			initLogging(cmd.String(logLevelFlagName), debug)

			format, err := parseFormat(cmd.String(formatFlagName))
			if err != nil {
				return ctx, err
			}

			home := getHomeDir()
			c, path, err := loadConfig(cmd.String(configFlagName), home)
			if err != nil {
				return ctx, fmt.Errorf("loading config: %w", err)
			}

			cmd.Metadata[appConfigKey] = &appConfig{
				Config:     c,
				ConfigPath: path,
				HomeDir:    home,
				Format:     format,
				Debug:      debug,
				DSNs:       auth.NewStore(home),
			}
			return ctx, nil
		},
	}
}

func initLogging(level string, debug bool) {
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func parseFormat(f string) (string, error) {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "yml" {
		f = formatYAML
	}
	for _, v := range outputFormats {
		if v == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q (supported: %s)", f, strings.Join(outputFormats, ", "))
}

// loadConfig reads the config at path or, when path is empty, the one in the
// app home dir, creating it with defaults on first run.
func loadConfig(path, home string) (*config.Config, string, error) {
	if path != "" {
		c, err := config.Load(path)
		return c, path, err
	}

	if home == "" {
		return config.Default(), "", nil
	}

	c, err := config.ReadOrCreate(home)
	if err != nil {
		return nil, "", err
	}
	return c, config.Path(home), nil
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using defaults instead", "error", err)
		return ""
	}
	if created {
		slog.Debug("created home dir", "path", dir)
	}
	return dir
}

// tabler is implemented by results that can be printed as a table.
type tabler interface {
	header() table.Row
	rows() []table.Row
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		return yaml.NewEncoder(w).Encode(v)
	case formatTable:
		if t, ok := v.(tabler); ok {
			tw := table.NewWriter()
			tw.SetOutputMirror(w)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(t.header())
			tw.AppendRows(t.rows())
			tw.Render()
			return nil
		}
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// printResult encodes v to the app writer in the selected output format.
func printResult(cmd *cli.Command, v any) error {
	return encode(cmd.Root().Writer, getConfig(cmd).Format, v)
}
