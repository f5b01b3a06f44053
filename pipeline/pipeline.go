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

package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/arrowarc/farefeatures/internal/json"
	"github.com/arrowarc/farefeatures/internal/logging"
	"github.com/arrowarc/farefeatures/pkg/common/config"
	"github.com/arrowarc/farefeatures/pkg/features"
	"github.com/arrowarc/farefeatures/pkg/table"
)

// StageMetrics describes one stage of a run.
type StageMetrics struct {
	Name     string        `json:"name"`
	RowsIn   int           `json:"rows_in"`
	RowsOut  int           `json:"rows_out"`
	Columns  int           `json:"columns"`
	Duration time.Duration `json:"duration"`
}

// Metrics stores pipeline processing metrics
type Metrics struct {
	RunID       string         `json:"run_id"`
	Mode        string         `json:"mode"`
	RowsIn      int            `json:"rows_in"`
	RowsOut     int            `json:"rows_out"`
	Fingerprint string         `json:"feature_fingerprint"`
	Stages      []StageMetrics `json:"stages"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
}

// Duration returns the total duration of the run
func (m *Metrics) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// Report generates a JSON summary of the collected metrics
func (m *Metrics) Report() string {
	report := struct {
		*Metrics
		TotalDuration string `json:"total_duration"`
	}{
		Metrics:       m,
		TotalDuration: m.Duration().String(),
	}
	out, err := json.PrettyPrint(report)
	if err != nil {
		return fmt.Sprintf("Error generating report: %v", err)
	}
	return out
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger stage progress is reported to.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.OrNop(logger)
	}
}

// Pipeline chains stages into one transformation. Stages run strictly left
// to right; each stage's output is the next stage's input.
type Pipeline struct {
	stages []features.Transformer
	logger log.Logger

	mu      sync.Mutex
	metrics *Metrics
}

// NewPipeline composes stages in the given order.
func NewPipeline(stages []features.Transformer, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages: stages,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// New builds the fare feature pipeline from cfg:
// AbsDiff, RemoveBadData, Haversiner, AddDateTime, Standardizer.
// A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	return NewPipeline([]features.Transformer{
		features.AbsDiff{},
		features.NewRemoveBadData(cfg.FilterOptions()),
		features.Haversiner{},
		features.NewAddDateTime(cfg.CalendarOptions()),
		features.NewStandardizer(cfg.Scaling.Exclude...),
	}, opts...), nil
}

// Stages returns the composed stages in order.
func (p *Pipeline) Stages() []features.Transformer {
	return append([]features.Transformer(nil), p.stages...)
}

// Metrics returns the metrics of the last finished run, or nil before any
// run has finished.
func (p *Pipeline) Metrics() *Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

func (p *Pipeline) setMetrics(m *Metrics) {
	p.mu.Lock()
	p.metrics = m
	p.mu.Unlock()
}

// Fit fits every stage on the output of the previous stage's transform.
func (p *Pipeline) Fit(ctx context.Context, t *table.Table) error {
	out, err := p.run(ctx, t, "fit", true, false)
	if out != nil {
		out.Release()
	}
	return err
}

// FitTransform fits every stage and returns the fully transformed table.
func (p *Pipeline) FitTransform(ctx context.Context, t *table.Table) (*table.Table, error) {
	return p.run(ctx, t, "fit_transform", true, true)
}

// Transform threads t through every stage without refitting.
func (p *Pipeline) Transform(ctx context.Context, t *table.Table) (*table.Table, error) {
	return p.run(ctx, t, "transform", false, true)
}

// run never releases t. Every intermediate table is released as soon as the
// next stage has consumed it. When transformLast is false the final stage is
// only fitted and nil is returned. Metrics are published when the run ends,
// so a Pipeline can serve concurrent Transform calls.
func (p *Pipeline) run(ctx context.Context, t *table.Table, mode string, fit, transformLast bool) (*table.Table, error) {
	m := &Metrics{
		RunID:     uuid.NewString(),
		Mode:      mode,
		RowsIn:    t.NumRows(),
		StartTime: time.Now(),
	}
	defer p.setMetrics(m)

	cur := t
	cur.Retain()
	for i, stage := range p.stages {
		name := stageName(stage)
		if err := ctx.Err(); err != nil {
			cur.Release()
			return nil, err
		}
		start := time.Now()
		if fit {
			if err := stage.Fit(ctx, cur); err != nil {
				cur.Release()
				level.Error(p.logger).Log("msg", "stage fit failed", "run", m.RunID, "stage", name, "err", err)
				return nil, fmt.Errorf("stage %s: fit: %w", name, err)
			}
		}
		if i == len(p.stages)-1 && !transformLast {
			cur.Release()
			m.EndTime = time.Now()
			level.Info(p.logger).Log("msg", "pipeline fitted", "run", m.RunID, "stages", len(p.stages))
			return nil, nil
		}
		next, err := stage.Transform(ctx, cur)
		if err != nil {
			cur.Release()
			level.Error(p.logger).Log("msg", "stage transform failed", "run", m.RunID, "stage", name, "err", err)
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		sm := StageMetrics{
			Name:     name,
			RowsIn:   cur.NumRows(),
			RowsOut:  next.NumRows(),
			Columns:  next.NumCols(),
			Duration: time.Since(start),
		}
		m.Stages = append(m.Stages, sm)
		level.Debug(p.logger).Log("msg", "stage done", "run", m.RunID, "stage", name,
			"rows_in", sm.RowsIn, "rows_out", sm.RowsOut, "columns", sm.Columns, "duration", sm.Duration)
		cur.Release()
		cur = next
	}

	m.RowsOut = cur.NumRows()
	m.Fingerprint = strconv.FormatUint(cur.Fingerprint(), 16)
	m.EndTime = time.Now()
	level.Info(p.logger).Log("msg", "pipeline finished", "run", m.RunID, "mode", mode,
		"rows_in", m.RowsIn, "rows_out", m.RowsOut, "columns", cur.NumCols(), "duration", m.Duration())
	return cur, nil
}

func stageName(s features.Transformer) string {
	if st, ok := s.(fmt.Stringer); ok {
		return st.String()
	}
	return fmt.Sprintf("%T", s)
}
