// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/docopt/docopt-go"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"

	filesystem "github.com/arrowarc/farefeatures/integrations/filesystem"
	"github.com/arrowarc/farefeatures/internal/logging"
	"github.com/arrowarc/farefeatures/pipeline"
	"github.com/arrowarc/farefeatures/pkg/common/config"
	"github.com/arrowarc/farefeatures/pkg/common/utils"
	"github.com/arrowarc/farefeatures/pkg/features"
	"github.com/arrowarc/farefeatures/pkg/loader"
)

const usage = `Fare feature pipeline.

Loads a taxi trip CSV, fits the feature pipeline on it and prints the run
metrics as JSON. The processed table is written when an output path is set.

Usage:
  farefeatures --csv=<file> [--config=<file>] [--out=<file>] [--format=<format>] [--log-level=<level>] [--head=<n>]
  farefeatures -h | --help

Options:
  -h --help            Show this screen.
  --csv=<file>         Training CSV with a header row.
  --config=<file>      YAML configuration. Defaults to $FAREFEATURES_CONFIG.
  --out=<file>         Output path, overriding output.path.
  --format=<format>    parquet, ipc or csv. Inferred from the output path when omitted.
  --log-level=<level>  debug, info, warn or error, overriding log_level.
  --head=<n>           Print the output columns and the first n rows as JSON. [default: 0]
`

// configEnv names the environment variable holding the config path.
const configEnv = "FAREFEATURES_CONFIG"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "farefeatures: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	arguments, err := docopt.ParseArgs(usage, args, "")
	if err != nil {
		return err
	}
	csvPath, _ := arguments.String("--csv")
	configPath, _ := arguments.String("--config")
	outPath, _ := arguments.String("--out")
	format, _ := arguments.String("--format")
	logLevel, _ := arguments.String("--log-level")
	head, err := arguments.Int("--head")
	if err != nil {
		return fmt.Errorf("--head: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if outPath != "" {
		cfg.Output.Path = outPath
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := logging.New(stderr, cfg.LogLevel)

	opts := cfg.LoaderOptions()
	opts.Logger = log.With(logger, "component", "loader")
	trips, err := loader.ReadTrainingData(ctx, csvPath, opts)
	if err != nil {
		return err
	}
	defer trips.Release()

	p, err := pipeline.New(cfg, pipeline.WithLogger(log.With(logger, "component", "pipeline")))
	if err != nil {
		return err
	}
	out, err := p.FitTransform(ctx, trips)
	if err != nil {
		return err
	}
	defer func() { out.Release() }()

	if len(cfg.Extract.Columns) > 0 {
		extracted, err := features.FitTransform(ctx, features.NewColumnExtractor(cfg.Extract.Columns...), out)
		if err != nil {
			return err
		}
		out.Release()
		out = extracted
	}

	if cfg.Output.Path != "" {
		if err := filesystem.WriteTableFile(ctx, cfg.Output.Path, cfg.OutputFormat(), out, filesystem.DefaultBatchRows); err != nil {
			return err
		}
		level.Info(logger).Log("msg", "features written", "path", cfg.Output.Path, "format", cfg.OutputFormat(),
			"rows", out.NumRows(), "columns", out.NumCols())
	}

	if head > 0 {
		if err := utils.DescribeRecord(stdout, out.Record()); err != nil {
			return err
		}
		if err := utils.HeadJSON(stdout, out.Record(), head); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}

	_, err = fmt.Fprintln(stdout, p.Metrics().Report())
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.ParseConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
