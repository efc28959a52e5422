package booking

import (
	"time"

	"labcal/internal/model"
)

// HasTeamOverlap reports whether any control number in roster already
// appears, as leader or member, in another booking on the same calendar date.
// Time of day is irrelevant: one booking per person per day.
func HasTeamOverlap(roster []string, day time.Time, existing []model.Booking, excludeID string) bool {
	return len(TeamOverlaps(roster, day, existing, excludeID)) > 0
}

// TeamOverlaps returns the control numbers of roster that are already booked
// on day, in roster order and without repeats.
func TeamOverlaps(roster []string, day time.Time, existing []model.Booking, excludeID string) []string {
	if len(roster) == 0 {
		return nil
	}

	want := make(map[string]bool, len(roster))
	for _, cn := range roster {
		if cn != "" {
			want[cn] = true
		}
	}

	taken := make(map[string]bool)
	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if !model.SameDay(b.Day, day) {
			continue
		}
		for _, cn := range b.Roster() {
			if want[cn] {
				taken[cn] = true
			}
		}
	}

	var out []string
	for _, cn := range roster {
		if taken[cn] {
			out = append(out, cn)
			delete(taken, cn)
		}
	}
	return out
}
