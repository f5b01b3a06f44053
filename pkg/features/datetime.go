package features

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/arrowarc/farefeatures/pkg/table"
)

// CalendarOptions fixes the category universe of the calendar indicators.
type CalendarOptions struct {
	// Years is the set of pickup years to emit yr_ indicators for.
	Years []int
	// Observed derives every category set from the table instead of the
	// fixed universe. Two tables can then yield different indicator columns.
	Observed bool
}

// DefaultCalendarOptions covers the 2009-2015 span of the fare dataset.
// A pickup outside those years fails AddDateTime with a *table.SchemaError
// on column "year"; widen Years (calendar.first_year and last_year in the config) for later
// data, or set Observed.
func DefaultCalendarOptions() CalendarOptions {
	return CalendarOptions{Years: YearRange(2009, 2015)}
}

// YearRange returns the years from first to last inclusive.
func YearRange(first, last int) []int {
	return intRange(first, last)
}

// calendarGroup is one calendar part and its indicator prefix.
type calendarGroup struct {
	name     string
	prefix   string
	universe []int
	value    func(time.Time) int
}

func (o CalendarOptions) groups() []calendarGroup {
	return []calendarGroup{
		{"hour", "hr_", intRange(0, 23), func(t time.Time) int { return t.Hour() }},
		{"year", "yr_", o.Years, func(t time.Time) int { return t.Year() }},
		{"month", "month_", intRange(1, 12), func(t time.Time) int { return int(t.Month()) }},
		{"week_day", "dow_", intRange(0, 6), weekday},
		{"month_day", "dom_", intRange(1, 31), func(t time.Time) int { return t.Day() }},
	}
}

// weekday numbers days from Monday=0 to Sunday=6.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func intRange(first, last int) []int {
	var out []int
	for v := first; v <= last; v++ {
		out = append(out, v)
	}
	return out
}

// calendarColumns are the scalar parts that must not outlive AddDateTime.
var calendarColumns = []string{"year", "month", "week_day", "month_day", "hour"}

// AddDateTime replaces pickup_datetime with one-hot indicators for hour,
// year, month, weekday and day of month, prefixed hr_, yr_, month_, dow_ and
// dom_. Indicators within a group are ordered by category value.
type AddDateTime struct {
	opts CalendarOptions
}

// NewAddDateTime returns a calendar stage using opts.
func NewAddDateTime(opts CalendarOptions) *AddDateTime {
	return &AddDateTime{opts: opts}
}

func (*AddDateTime) String() string { return "add_date_time" }

func (*AddDateTime) Fit(context.Context, *table.Table) error { return nil }

func (a *AddDateTime) Transform(_ context.Context, t *table.Table) (*table.Table, error) {
	times, err := t.Times(table.PickupDatetime)
	if err != nil {
		return nil, err
	}

	var out columnSet
	mem := t.Allocator()
	for _, g := range a.opts.groups() {
		values := make([]int, len(times))
		for i, ts := range times {
			values[i] = g.value(ts)
		}

		universe := g.universe
		if a.opts.Observed {
			universe = distinct(values)
		}
		slot := make(map[int]int, len(universe))
		for i, v := range universe {
			slot[v] = i
		}

		indicators := make([][]uint8, len(universe))
		for i := range indicators {
			indicators[i] = make([]uint8, len(times))
		}
		for row, v := range values {
			i, ok := slot[v]
			if !ok {
				out.release()
				return nil, &table.SchemaError{
					Column: g.name,
					Reason: fmt.Sprintf("value %d at row %d is outside the configured categories", v, row),
				}
			}
			indicators[i][row] = 1
		}
		for i, v := range universe {
			out.addUint8(mem, g.prefix+strconv.Itoa(v), indicators[i])
		}
	}

	dropped := t.Drop(append([]string{table.PickupDatetime}, calendarColumns...)...)
	defer dropped.Release()
	return out.attach(dropped)
}

func distinct(values []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
