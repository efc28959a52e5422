// Package timeofday converts wall-clock "HH:mm" strings into comparable
// minute offsets and generates the selectable slots of a booking day.
package timeofday

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const layout = "15:04"

// ToMinutes returns hour*60+minute for a "HH:mm" value.
func ToMinutes(s string) (int, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("timeofday: invalid time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Duration returns end-start in hours. The result may be zero or negative;
// callers decide whether that is acceptable.
func Duration(start, end string) (float64, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return 0, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return 0, err
	}
	return float64(e-s) / 60, nil
}

// Format renders a minute offset as "HH:mm".
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Valid reports whether s is a well-formed "HH:mm" value.
func Valid(s string) bool {
	if len(s) != len(layout) {
		return false
	}
	_, err := ToMinutes(s)
	return err == nil
}

// Slots lists every selectable time from startHour:00 through endHour:00
// inclusive, stepMinutes apart, e.g. Slots(7, 21, 30) gives
// 07:00, 07:30, …, 20:30, 21:00.
func Slots(startHour, endHour, stepMinutes int) ([]string, error) {
	if startHour < 0 || endHour > 23 || endHour <= startHour {
		return nil, fmt.Errorf("timeofday: invalid slot window %d-%d", startHour, endHour)
	}
	if stepMinutes <= 0 {
		return nil, fmt.Errorf("timeofday: invalid slot step %d", stepMinutes)
	}

	// Any fixed date works; only the wall clock is kept.
	base := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.MINUTELY,
		Interval: stepMinutes,
		Dtstart:  base.Add(time.Duration(startHour) * time.Hour),
		Until:    base.Add(time.Duration(endHour) * time.Hour),
	})
	if err != nil {
		return nil, err
	}

	occ := r.All()
	out := make([]string, 0, len(occ))
	for _, t := range occ {
		out = append(out, t.Format(layout))
	}
	return out, nil
}
