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
	"log"

	"github.com/docopt/docopt-go"

	"github.com/arrowarc/farefeatures/generator"
)

func main() {
	usage := `Generate Trip CSV.

Usage:
  generate_trips --output=<file> [--rows=<n>] [--seed=<n>] [--invalid=<fraction>]
  generate_trips -h | --help

Options:
  -h --help             Show this screen.
  --output=<file>       Output file path.
  --rows=<n>            Number of trips. [default: 10000]
  --seed=<n>            Random seed. [default: 1]
  --invalid=<fraction>  Fraction of trips that fail the sanity filter. [default: 0.05]
`

	arguments, _ := docopt.ParseDoc(usage)

	opts := generator.DefaultTripOptions()
	opts.Rows, _ = arguments.Int("--rows")
	seed, _ := arguments.Int("--seed")
	opts.Seed = int64(seed)
	opts.InvalidFraction, _ = arguments.Float64("--invalid")
	outputFile, _ := arguments.String("--output")

	if err := generator.GenerateTripsFile(outputFile, opts); err != nil {
		log.Fatalf("Error generating trip file: %v", err)
	}
}
