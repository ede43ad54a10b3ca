// Package timeline projects canvas nodes onto calendar days. Everything here
// is a pure function of its inputs and is recomputed on every call.
package timeline

import (
	"fmt"
	"time"

	"jirai-backend/internal/domain/node"
	"jirai-backend/internal/domain/shared"
)

// ZoomLevel is the calendar granularity.
type ZoomLevel string

const (
	ZoomHour  ZoomLevel = "hour"
	ZoomDay   ZoomLevel = "day"
	ZoomWeek  ZoomLevel = "week"
	ZoomMonth ZoomLevel = "month"
	ZoomYear  ZoomLevel = "year"
)

// Valid reports whether z is a declared zoom level.
func (z ZoomLevel) Valid() bool {
	switch z {
	case ZoomHour, ZoomDay, ZoomWeek, ZoomMonth, ZoomYear:
		return true
	}
	return false
}

// Effective maps the declared-but-unrendered levels onto day.
func (z ZoomLevel) Effective() ZoomLevel {
	switch z {
	case ZoomWeek, ZoomMonth:
		return z
	}
	return ZoomDay
}

// ParseZoom validates a zoom level; empty means day.
func ParseZoom(s string) (ZoomLevel, error) {
	if s == "" {
		return ZoomDay, nil
	}
	z := ZoomLevel(s)
	if !z.Valid() {
		return "", fmt.Errorf("invalid zoom level %q", s)
	}
	return z, nil
}

// Options controls calendar conventions.
type Options struct {
	WeekStart time.Weekday
	Location  *time.Location
}

// DefaultOptions starts weeks on Sunday and compares days in UTC.
func DefaultOptions() Options {
	return Options{WeekStart: time.Sunday, Location: time.UTC}
}

func (o Options) loc() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Interval is an inclusive range of calendar days, both ends at midnight.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days enumerates every day of the interval.
func (i Interval) Days() []time.Time {
	var days []time.Time
	for d := i.Start; !d.After(i.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether t falls on one of the interval's days.
func (i Interval) Contains(t time.Time) bool {
	day := shared.StartOfDay(t, i.Start.Location())
	return !day.Before(i.Start) && !day.After(i.End)
}

// IntervalFor computes the days visible at zoom around cursor.
func IntervalFor(zoom ZoomLevel, cursor time.Time, opts Options) Interval {
	loc := opts.loc()
	day := shared.StartOfDay(cursor, loc)
	switch zoom.Effective() {
	case ZoomWeek:
		start := startOfWeek(day, opts.WeekStart)
		return Interval{Start: start, End: start.AddDate(0, 0, 6)}
	case ZoomMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, loc)
		return Interval{Start: first, End: first.AddDate(0, 1, -1)}
	default:
		return Interval{Start: day, End: day}
	}
}

func startOfWeek(day time.Time, weekStart time.Weekday) time.Time {
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

func endOfWeek(day time.Time, weekStart time.Weekday) time.Time {
	return startOfWeek(day, weekStart).AddDate(0, 0, 6)
}

// Next moves the cursor forward by one unit of zoom. Month steps land on the
// first of the next month.
func Next(zoom ZoomLevel, cursor time.Time, opts Options) time.Time {
	return step(zoom, cursor, opts, 1)
}

// Prev moves the cursor back by one unit of zoom.
func Prev(zoom ZoomLevel, cursor time.Time, opts Options) time.Time {
	return step(zoom, cursor, opts, -1)
}

func step(zoom ZoomLevel, cursor time.Time, opts Options, dir int) time.Time {
	switch zoom.Effective() {
	case ZoomWeek:
		return cursor.AddDate(0, 0, 7*dir)
	case ZoomMonth:
		c := cursor.In(opts.loc())
		return time.Date(c.Year(), c.Month()+time.Month(dir), 1, 0, 0, 0, 0, opts.loc())
	default:
		return cursor.AddDate(0, 0, dir)
	}
}

// Scheduled reports the calendar date a node is pinned to: dueDate first,
// then date. Typed payload fields are consulted before the extension bag.
// Missing and unparseable dates both report false.
func Scheduled(n node.Node) (time.Time, bool) {
	var due, date *shared.Date
	switch p := n.Data.Payload.(type) {
	case node.TaskData:
		due = p.DueDate
	case node.TextData:
		date = p.Date
	}
	if due == nil || due.IsZero() {
		due = extraDate(n.Data, "dueDate")
	}
	if due != nil && !due.IsZero() {
		return due.Time, due.Valid
	}
	if date == nil || date.IsZero() {
		date = extraDate(n.Data, "date")
	}
	if date != nil && !date.IsZero() {
		return date.Time, date.Valid
	}
	return time.Time{}, false
}

func extraDate(d node.Data, key string) *shared.Date {
	v, ok := d.ExtraValue(key)
	if !ok || v == nil {
		return nil
	}
	var parsed shared.Date
	switch x := v.(type) {
	case string:
		parsed = shared.ParseDate(x)
	case float64:
		parsed = shared.NewDate(time.UnixMilli(int64(x)).UTC())
	case time.Time:
		parsed = shared.NewDate(x)
	default:
		parsed = shared.Date{Raw: fmt.Sprint(x)}
	}
	return &parsed
}
