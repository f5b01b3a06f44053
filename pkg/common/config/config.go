// Package config provides configuration utilities.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	filesystem "github.com/arrowarc/farefeatures/integrations/filesystem"
	"github.com/arrowarc/farefeatures/pkg/features"
	"github.com/arrowarc/farefeatures/pkg/geo"
	"github.com/arrowarc/farefeatures/pkg/loader"
	"github.com/arrowarc/farefeatures/pkg/table"
)

type Config struct {
	Loader   LoaderConfig   `yaml:"loader"`
	Filter   FilterConfig   `yaml:"filter"`
	Calendar CalendarConfig `yaml:"calendar"`
	Scaling  ScalingConfig  `yaml:"scaling"`
	Extract  ExtractConfig  `yaml:"extract"`
	Output   OutputConfig   `yaml:"output"`
	LogLevel string         `yaml:"log_level"`
}

type LoaderConfig struct {
	ChunkSize int    `yaml:"chunk_size"`
	Delimiter string `yaml:"delimiter"`
}

type FilterConfig struct {
	BoundingBox   geo.BoundingBox `yaml:"bounding_box"`
	MinFare       float64         `yaml:"min_fare"`
	MaxFare       float64         `yaml:"max_fare"`
	MinPassengers uint8           `yaml:"min_passengers"`
}

type CalendarConfig struct {
	FirstYear int  `yaml:"first_year"`
	LastYear  int  `yaml:"last_year"`
	Observed  bool `yaml:"observed"`
}

type ScalingConfig struct {
	Exclude []string `yaml:"exclude"`
}

type ExtractConfig struct {
	Columns []string `yaml:"columns"`
}

type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Output formats understood by the commands.
const (
	FormatParquet = filesystem.FormatParquet
	FormatIPC     = filesystem.FormatIPC
	FormatCSV     = filesystem.FormatCSV
)

// Default returns the configuration the composer uses when none is given:
// the NYC box, 5,000,000-row chunks, years 2009-2015 and the fare column
// kept out of scaling.
func Default() *Config {
	filter := features.DefaultFilterOptions()
	return &Config{
		Loader: LoaderConfig{
			ChunkSize: loader.DefaultChunkSize,
			Delimiter: ",",
		},
		Filter: FilterConfig{
			BoundingBox:   filter.Box,
			MinFare:       filter.MinFare,
			MaxFare:       filter.MaxFare,
			MinPassengers: filter.MinPassengers,
		},
		Calendar: CalendarConfig{
			FirstYear: 2009,
			LastYear:  2015,
		},
		Scaling: ScalingConfig{
			Exclude: []string{table.FareAmount},
		},
		LogLevel: "info",
	}
}

// ParseConfig reads a YAML file on top of Default.
func ParseConfig(configPath string) (*Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer configFile.Close()

	return Parse(configFile)
}

// Parse decodes YAML from r on top of Default. Keys absent from the
// document keep their default values.
func Parse(r io.Reader) (*Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if err := c.validateLoader(); err != nil {
		return err
	}
	if err := c.FilterOptions().Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if err := c.validateCalendar(); err != nil {
		return err
	}
	return c.validateOutput()
}

func (c *Config) validateLoader() error {
	if c.Loader.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be greater than 0")
	}
	if len([]rune(c.Loader.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Loader.Delimiter)
	}
	return nil
}

func (c *Config) validateCalendar() error {
	if c.Calendar.Observed {
		return nil
	}
	if c.Calendar.FirstYear <= 0 || c.Calendar.LastYear < c.Calendar.FirstYear {
		return fmt.Errorf("calendar years must form a non-empty range, got %d-%d", c.Calendar.FirstYear, c.Calendar.LastYear)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Path == "" {
		return nil
	}
	switch c.OutputFormat() {
	case FormatParquet, FormatIPC, FormatCSV:
		return nil
	default:
		return fmt.Errorf("output format %q is not one of parquet, ipc, csv", c.Output.Format)
	}
}

// OutputFormat returns the configured format, falling back to the output
// path's extension.
func (c *Config) OutputFormat() string {
	if c.Output.Format != "" {
		return strings.ToLower(c.Output.Format)
	}
	switch {
	case strings.HasSuffix(c.Output.Path, ".parquet"):
		return FormatParquet
	case strings.HasSuffix(c.Output.Path, ".arrow"), strings.HasSuffix(c.Output.Path, ".ipc"):
		return FormatIPC
	case strings.HasSuffix(c.Output.Path, ".csv"):
		return FormatCSV
	}
	return ""
}

// LoaderOptions converts the loader section.
func (c *Config) LoaderOptions() loader.Options {
	opts := loader.DefaultOptions()
	opts.ChunkSize = c.Loader.ChunkSize
	if r := []rune(c.Loader.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	return opts
}

// FilterOptions converts the filter section.
func (c *Config) FilterOptions() features.FilterOptions {
	return features.FilterOptions{
		Box:           c.Filter.BoundingBox,
		MinFare:       c.Filter.MinFare,
		MaxFare:       c.Filter.MaxFare,
		MinPassengers: c.Filter.MinPassengers,
	}
}

// CalendarOptions converts the calendar section.
func (c *Config) CalendarOptions() features.CalendarOptions {
	if c.Calendar.Observed {
		return features.CalendarOptions{Observed: true}
	}
	return features.CalendarOptions{Years: features.YearRange(c.Calendar.FirstYear, c.Calendar.LastYear)}
}
