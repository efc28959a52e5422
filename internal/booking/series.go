package booking

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "labcal/internal/log"
	"labcal/internal/model"
)

// MaxSeriesOccurrences caps how many bookings one recurrence rule may create.
const MaxSeriesOccurrences = 52

// SeriesDays expands an RRULE ("FREQ=WEEKLY;COUNT=8") starting at start and
// returns the calendar dates it yields. Rules producing more than
// MaxSeriesOccurrences dates are rejected.
func SeriesDays(rule string, start time.Time) ([]time.Time, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if rule == "" {
		return nil, invalid("rule", "recurrence rule is required")
	}
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, invalid("rule", "invalid recurrence rule: %v", err)
	}
	r.DTStart(start)

	next := r.Iterator()
	var days []time.Time
	for {
		t, ok := next()
		if !ok {
			break
		}
		if len(days) == MaxSeriesOccurrences {
			return nil, invalid("rule", "recurrence yields more than %d bookings; add COUNT or UNTIL", MaxSeriesOccurrences)
		}
		days = append(days, model.DateOf(t))
	}
	if len(days) == 0 {
		return nil, invalid("rule", "recurrence yields no dates")
	}
	return days, nil
}

// CreateSeries books d on every date of rule, starting at d.Day. Each
// occurrence must pass the same checks as a single booking, including
// against the earlier occurrences of the series. Either every occurrence is
// stored or none is.
func (s *Service) CreateSeries(d model.Draft, rule string) ([]model.Booking, error) {
	d = s.normalize(d)
	if err := ValidateDraft(d); err != nil {
		return nil, err
	}

	days, err := SeriesDays(rule, d.Day)
	if err != nil {
		return nil, err
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	existing, err := s.repo.loadLocked()
	if err != nil {
		return nil, err
	}

	created := make([]model.Booking, 0, len(days))
	all := existing
	for _, day := range days {
		occ := d
		occ.Day = day
		if err := s.check(occ, all, "", nil); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Message = model.DayKey(day) + ": " + ve.Message
			}
			appLog.Info("booking series rejected", "occurrence", model.DayKey(day), "reason", err.Error())
			return nil, err
		}
		b := s.repo.build(occ)
		created = append(created, b)
		all = append(all, b)
	}

	if err := s.repo.saveLocked(all, true); err != nil {
		return nil, err
	}
	appLog.Info("booking series created", "count", len(created), "first", model.DayKey(days[0]), "rule", rule)
	return created, nil
}
