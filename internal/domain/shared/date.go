package shared

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when decoding a date string.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date is a date-valued payload field. Values that cannot be parsed keep their
// raw text so they survive a save/load cycle; they are simply never scheduled.
type Date struct {
	Time  time.Time
	Valid bool
	Raw   string
}

// NewDate wraps a valid time.
func NewDate(t time.Time) Date {
	return Date{Time: t, Valid: true}
}

// ParseDate decodes the textual forms accepted on the wire. Unparseable input
// yields an invalid Date that remembers the input.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, Valid: true}
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Date{Time: time.UnixMilli(ms).UTC(), Valid: true}
	}
	return Date{Raw: s}
}

// IsZero reports whether the field is absent.
func (d Date) IsZero() bool {
	return !d.Valid && d.Raw == ""
}

// String renders the date the way it is written to JSON.
func (d Date) String() string {
	if d.Valid {
		return d.Time.Format(time.RFC3339Nano)
	}
	return d.Raw
}

// MarshalJSON writes valid dates as RFC 3339 strings, invalid ones verbatim
// and absent ones as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts strings, epoch milliseconds and null.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = ParseDate(s)
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		*d = Date{Raw: string(data)}
		return nil
	}
	*d = Date{Time: time.UnixMilli(int64(ms)).UTC(), Valid: true}
	return nil
}

// SameDay compares calendar days of a and b in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
