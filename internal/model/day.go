package model

import (
	"errors"
	"strings"
	"time"
)

// DayLayout is the date-only form used in URLs, file names and backup markers.
const DayLayout = "2006-01-02"

// isoLayout matches JavaScript's Date.toISOString output.
const isoLayout = "2006-01-02T15:04:05.000Z"

// DateOf truncates t to midnight of its calendar date in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay compares the calendar dates of a and b, each read in its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayKey renders the calendar date of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// Before reports whether day a falls on an earlier calendar date than b.
func Before(a, b time.Time) bool {
	return DayKey(a) < DayKey(b)
}

// ParseDay reads a serialized day and returns midnight of that date in loc.
// Date-only values are taken as dates in loc; timestamps are first converted
// to loc so that a local midnight written as UTC maps back to its own date.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("day: empty value")
	}

	if len(s) == len(DayLayout) {
		t, err := time.ParseInLocation(DayLayout, s, loc)
		if err != nil {
			return time.Time{}, err
		}
		return t, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t.In(loc)), nil
}

// FormatDay serializes a day as an ISO-8601 UTC timestamp with milliseconds.
func FormatDay(t time.Time) string {
	return t.UTC().Format(isoLayout)
}
