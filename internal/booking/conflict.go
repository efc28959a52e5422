package booking

import (
	"time"

	appLog "labcal/internal/log"
	"labcal/internal/model"
	"labcal/internal/timeofday"
)

// Candidate is the slice of a proposed booking the conflict check needs.
// Professor is carried for logging only: the lab is one room, so bookings of
// different professors conflict exactly like bookings of the same one.
type Candidate struct {
	Day       time.Time
	StartTime string
	EndTime   string
	Professor string
}

// HasTimeConflict reports whether candidate overlaps any booking in existing
// on the same calendar date, ignoring the booking whose ID is excludeID.
// Intervals are half-open, so touching endpoints do not conflict.
func HasTimeConflict(candidate Candidate, existing []model.Booking, excludeID string) bool {
	return len(conflicts(candidate, existing, excludeID, true)) > 0
}

// Conflicts returns every booking in existing that candidate overlaps.
func Conflicts(candidate Candidate, existing []model.Booking, excludeID string) []model.Booking {
	return conflicts(candidate, existing, excludeID, false)
}

func conflicts(candidate Candidate, existing []model.Booking, excludeID string, first bool) []model.Booking {
	cStart, err := timeofday.ToMinutes(candidate.StartTime)
	if err != nil {
		return nil
	}
	cEnd, err := timeofday.ToMinutes(candidate.EndTime)
	if err != nil {
		return nil
	}

	var out []model.Booking
	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if !model.SameDay(b.Day, candidate.Day) {
			continue
		}

		eStart, err1 := timeofday.ToMinutes(b.StartTime)
		eEnd, err2 := timeofday.ToMinutes(b.EndTime)
		if err1 != nil || err2 != nil {
			appLog.Debug("conflict check: skipping booking with unreadable times",
				"id", b.ID, "start", b.StartTime, "end", b.EndTime)
			continue
		}

		if cStart < eEnd && cEnd > eStart {
			out = append(out, b)
			if first {
				return out
			}
		}
	}
	return out
}
