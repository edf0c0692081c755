package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/mchmarny/molweight/pkg/data"
	"github.com/mchmarny/molweight/pkg/distribution"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	SourceFlorySchulz     = "flory-schulz"
	SourceGaussian        = "gaussian"
	SourceGeneralGaussian = "general-gaussian"
	SourceFile            = "file"
	SourceURL             = "url"
	SourceSQL             = "sql"

	DefaultPlotName   = "mw"
	DefaultPlotOutput = "mw.svg"
)

var (
	// SourceTypes lists the population source types a plot can use.
	SourceTypes = []string{
		SourceFlorySchulz,
		SourceGaussian,
		SourceGeneralGaussian,
		SourceFile,
		SourceURL,
		SourceSQL,
	}

	// DefaultPlotAverages are marked on the default plot.
	DefaultPlotAverages = []string{
		averages.NameMp,
		averages.NameMn,
		averages.NameMw,
		averages.NameMz,
	}

	// DefaultPlotYTicks are the y axis ticks of the default plot.
	DefaultPlotYTicks = []float64{0, 0.005, 0.01, 0.015, 0.02}
)

// Config represents app config object.
type Config struct {
	Averages AveragesConfig `yaml:"averages"`
	Chart    ChartConfig    `yaml:"chart"`
	Plots    []Plot         `yaml:"plots,omitempty"`
}

// AveragesConfig holds the parameters of the parameterized averages.
type AveragesConfig struct {
	// Alpha is the Mark-Houwink exponent used by Mv.
	Alpha float64 `yaml:"alpha"`

	// Z is the moment order used by Mz.
	Z float64 `yaml:"z"`
}

// ChartConfig holds the image size in inches.
type ChartConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Plot describes one chart: where its population comes from and what to mark.
type Plot struct {
	Name        string    `yaml:"name"`
	Output      string    `yaml:"output"`
	Title       string    `yaml:"title,omitempty"`
	Source      Source    `yaml:"source"`
	Averages    []string  `yaml:"averages,omitempty"`
	AllAverages bool      `yaml:"all_averages,omitempty"`
	YTicks      []float64 `yaml:"y_ticks,omitempty"`
}

// Source selects a population. Only the fields of its Type are used.
type Source struct {
	Type string `yaml:"type"`

	// flory-schulz
	A    float64 `yaml:"a,omitempty"`
	KMax int     `yaml:"k_max,omitempty"`

	// gaussian, general-gaussian
	Mu    float64 `yaml:"mu,omitempty"`
	Sigma float64 `yaml:"sigma,omitempty"`
	P     float64 `yaml:"p,omitempty"`

	// file
	Path string `yaml:"path,omitempty"`

	// url
	URL string `yaml:"url,omitempty"`

	// sql; DSNName refers to a DSN saved in the keyring
	Driver  string `yaml:"driver,omitempty"`
	DSN     string `yaml:"dsn,omitempty"`
	DSNName string `yaml:"dsn_name,omitempty"`
	Query   string `yaml:"query,omitempty"`
}

// SetDefaults fills unset parameters of synthetic sources.
func (s *Source) SetDefaults() {
	if s.Type == "" {
		s.Type = SourceFlorySchulz
	}
	switch s.Type {
	case SourceFlorySchulz:
		if s.A == 0 {
			s.A = distribution.DefaultFloryA
		}
		if s.KMax == 0 {
			s.KMax = distribution.DefaultFloryKMax
		}
	case SourceGaussian, SourceGeneralGaussian:
		if s.P == 0 {
			s.P = 1
		}
	case SourceSQL:
		if s.Driver == "" {
			s.Driver = data.DriverSQLite
		}
	}
}

// Validate checks the fields required by the source type.
func (s *Source) Validate() error {
	switch s.Type {
	case SourceFlorySchulz:
		if s.A <= 0 || s.A >= 1 {
			return errors.Errorf("flory-schulz a must be in (0, 1), got %g", s.A)
		}
		if s.KMax < 1 || s.KMax > distribution.MaxFloryKMax {
			return errors.Errorf("flory-schulz k_max must be in [1, %d], got %d", distribution.MaxFloryKMax, s.KMax)
		}
	case SourceGaussian, SourceGeneralGaussian:
		if s.Mu <= 0 || s.Sigma <= 0 || s.P <= 0 {
			return errors.Errorf("%s mu, sigma and p must be positive, got %g, %g, %g", s.Type, s.Mu, s.Sigma, s.P)
		}
	case SourceFile:
		if s.Path == "" {
			return errors.New("file source requires path")
		}
	case SourceURL:
		if s.URL == "" {
			return errors.New("url source requires url")
		}
	case SourceSQL:
		if !data.Contains(data.Drivers, s.Driver) {
			return errors.Errorf("unsupported sql driver %q (supported: %s)", s.Driver, strings.Join(data.Drivers, ", "))
		}
		if s.DSN == "" && s.DSNName == "" {
			return errors.New("sql source requires dsn or dsn_name")
		}
		if s.Query == "" {
			return errors.New("sql source requires query")
		}
	default:
		return errors.Errorf("unknown source type %q (supported: %s)", s.Type, strings.Join(SourceTypes, ", "))
	}
	return nil
}

// DefaultPlot is the Flory-Schulz chart rendered when nothing else is asked for.
func DefaultPlot() Plot {
	return Plot{
		Name:   DefaultPlotName,
		Output: DefaultPlotOutput,
		Source: Source{
			Type: SourceFlorySchulz,
			A:    distribution.DefaultFloryA,
			KMax: distribution.DefaultFloryKMax,
		},
		Averages: append([]string(nil), DefaultPlotAverages...),
		YTicks:   append([]float64(nil), DefaultPlotYTicks...),
	}
}

// Default returns the config used when no config file exists.
func Default() *Config {
	return &Config{
		Averages: AveragesConfig{
			Alpha: averages.DefaultAlpha,
			Z:     averages.DefaultZ,
		},
		Plots: []Plot{DefaultPlot()},
	}
}

// Registry returns the averages registry configured by c.
func (c *Config) Registry() *averages.Registry {
	if c == nil {
		return averages.Default()
	}
	return averages.NewRegistry(c.Averages.Alpha, c.Averages.Z)
}

// Load reads and parses the YAML config file at path.
// Unset fields keep their default values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	c := Default()
	c.Plots = nil
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error parsing config file: %s", path)
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return c, nil
}

// Validate applies source defaults and checks structural constraints.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if !(c.Averages.Alpha > 0) {
		return errors.Wrapf(averages.ErrInvalidAlpha, "averages.alpha: %g", c.Averages.Alpha)
	}
	if c.Chart.Width < 0 || c.Chart.Height < 0 {
		return errors.New("chart width and height must not be negative")
	}

	names := make(map[string]bool, len(c.Plots))
	for i := range c.Plots {
		p := &c.Plots[i]
		if p.Name == "" {
			return errors.Errorf("plots[%d]: name is required", i)
		}
		if names[p.Name] {
			return errors.Errorf("plots[%d]: duplicate name %q", i, p.Name)
		}
		names[p.Name] = true
		if p.Output == "" {
			return errors.Errorf("plots[%d] %q: output is required", i, p.Name)
		}
		p.Source.SetDefaults()
		if err := p.Source.Validate(); err != nil {
			return errors.Wrapf(err, "plots[%d] %q", i, p.Name)
		}
	}
	return nil
}

// Save writes c to the config file in dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// Path returns the config file location in dirPath.
func Path(dirPath string) string {
	return filepath.Join(dirPath, configFileName)
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		err := os.Mkdir(dirPath, dirMode)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := Path(dirPath)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
		slog.Debug("default config created", "path", path)
	}

	return Load(path)
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		err := os.Mkdir(dir, dirMode)
		if err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}
