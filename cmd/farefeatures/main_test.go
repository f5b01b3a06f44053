package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/farefeatures/generator"
)

func writeTrips(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "train.csv")
	require.NoError(t, generator.GenerateTripsFile(path, generator.TripOptions{Rows: 200, Seed: 5, InvalidFraction: 0.1}))
	return path
}

func TestRunWritesParquet(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTrips(t, dir)
	outPath := filepath.Join(dir, "features.parquet")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--csv", csvPath, "--out", outPath, "--log-level", "debug"}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), `"run_id"`)
	assert.Contains(t, stdout.String(), `"mode": "fit_transform"`)
	assert.Contains(t, stderr.String(), "component=pipeline")
	assert.Contains(t, stderr.String(), `msg="features written"`)

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)
}

func TestRunUsesConfigFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTrips(t, dir)
	outPath := filepath.Join(dir, "features.csv")

	cfgPath := filepath.Join(dir, "farefeatures.yaml")
	doc := "extract:\n  columns: [haversine, Manhatten]\noutput:\n  path: " + outPath + "\nlog_level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(doc), 0644))
	t.Setenv(configEnv, cfgPath)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"--csv", csvPath, "--head", "2"}, &stdout, &stderr))
	assert.Empty(t, stderr.String())
	assert.Contains(t, stdout.String(), "Column 0: haversine, Type: float64")
	assert.Contains(t, stdout.String(), "Column 1: Manhatten, Type: float64")

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	header, _, _ := strings.Cut(string(written), "\n")
	assert.Equal(t, "haversine,Manhatten", header)
}

func TestRunReportsLoadErrors(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bad.csv")
	doc := "fare_amount,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count\n" +
		"10.0,not-a-date,-73.98,40.75,-73.97,40.76,2\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(doc), 0644))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--csv", csvPath}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-date")
	assert.Empty(t, stdout.String())
}
