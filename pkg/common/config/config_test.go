package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/farefeatures/pkg/features"
	"github.com/arrowarc/farefeatures/pkg/geo"
	"github.com/arrowarc/farefeatures/pkg/loader"
	"github.com/arrowarc/farefeatures/pkg/table"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, geo.NYC(), cfg.Filter.BoundingBox)
	assert.Equal(t, features.DefaultFilterOptions(), cfg.FilterOptions())
	assert.Equal(t, features.DefaultCalendarOptions(), cfg.CalendarOptions())
	assert.Equal(t, loader.DefaultChunkSize, cfg.LoaderOptions().ChunkSize)
	assert.Equal(t, []string{table.FareAmount}, cfg.Scaling.Exclude)
}

func TestParseOverridesDefaults(t *testing.T) {
	t.Parallel()

	doc := `
loader:
  chunk_size: 1000
  delimiter: ";"
filter:
  bounding_box:
    min_longitude: -74.1
    max_longitude: -73.8
    min_latitude: 40.6
    max_latitude: 40.9
calendar:
  observed: true
extract:
  columns: [haversine, Manhatten]
output:
  path: out/features.parquet
log_level: debug
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1000, cfg.LoaderOptions().ChunkSize)
	assert.Equal(t, ';', cfg.LoaderOptions().Delimiter)
	assert.Equal(t, -74.1, cfg.FilterOptions().Box.MinLongitude)
	assert.Equal(t, 2.5, cfg.FilterOptions().MinFare, "unset keys keep their defaults")
	assert.True(t, cfg.CalendarOptions().Observed)
	assert.Equal(t, []string{table.Haversine, table.Manhatten}, cfg.Extract.Columns)
	assert.Equal(t, FormatParquet, cfg.OutputFormat())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Parse(strings.NewReader("loader:\n  chunk: 10\n"))
	assert.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		description string
		mutate      func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Loader.ChunkSize = 0 }},
		{"multi character delimiter", func(c *Config) { c.Loader.Delimiter = "||" }},
		{"inverted box", func(c *Config) { c.Filter.BoundingBox.MinLatitude = 41 }},
		{"inverted fares", func(c *Config) { c.Filter.MinFare = 1000 }},
		{"inverted years", func(c *Config) { c.Calendar.FirstYear = 2016 }},
		{"unknown output format", func(c *Config) { c.Output.Path = "out.xlsx" }},
	}

	for _, test := range tests {
		test := test
		t.Run(test.description, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			test.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "farefeatures.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scaling:\n  exclude: []\n"), 0644))

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Scaling.Exclude)

	_, err = ParseConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := ParseConfig(filepath.Join("..", "..", "..", "config", "farefeatures.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	want := Default()
	want.Extract.Columns = []string{}
	want.Output.Path = "features.parquet"
	assert.Equal(t, want, cfg)
}
