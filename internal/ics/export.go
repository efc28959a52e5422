// Package ics publishes bookings as an iCalendar feed so the lab schedule can
// be subscribed to from ordinary calendar clients.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "labcal/internal/log"
	"labcal/internal/model"
	"labcal/internal/timeofday"
)

// Options controls calendar-level properties.
type Options struct {
	// Location interprets each booking's day and HH:mm times.
	Location *time.Location
	Name     string
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// UID returns the stable VEVENT identifier for a booking.
func UID(id string) string {
	return id + "@labcal"
}

// Export renders one VEVENT per booking. Bookings whose times cannot be
// read are skipped and logged.
func Export(bookings []model.Booking, opts Options) ([]byte, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	name := opts.Name
	if name == "" {
		name = "Laboratorio"
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//labcal//bookings//ES")
	cal.SetName(name)
	cal.SetXWRTimezone(loc.String())

	skipped := 0
	for _, b := range bookings {
		start, end, err := span(b, loc)
		if err != nil {
			skipped++
			appLog.Warn("ics: skipping booking with unreadable times", "id", b.ID, "start", b.StartTime, "end", b.EndTime)
			continue
		}
		ev := cal.AddEvent(UID(b.ID))
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(b.Subject + " · " + b.Professor)
		ev.SetDescription(describe(b))
	}

	appLog.Debug("ics export completed", "event_count", len(bookings)-skipped, "skipped", skipped)
	return []byte(cal.Serialize()), nil
}

// span anchors the booking's HH:mm times to its calendar day in loc.
func span(b model.Booking, loc *time.Location) (time.Time, time.Time, error) {
	startMin, err := timeofday.ToMinutes(b.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := timeofday.ToMinutes(b.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endMin <= startMin {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s not after start %s", b.EndTime, b.StartTime)
	}
	y, m, d := b.Day.In(loc).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(startMin) * time.Minute),
		midnight.Add(time.Duration(endMin) * time.Minute), nil
}

func describe(b model.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Responsable: %s (%s)", b.Student.Name, b.Student.ControlNumber)
	if len(b.TeamMembers) > 0 {
		cns := make([]string, 0, len(b.TeamMembers))
		for _, m := range b.TeamMembers {
			cns = append(cns, m.ControlNumber)
		}
		fmt.Fprintf(&sb, "\nEquipo: %s", strings.Join(cns, ", "))
	}
	if len(b.Materials) > 0 {
		sb.WriteString("\nMateriales:")
		for _, m := range b.Materials {
			fmt.Fprintf(&sb, "\n- %s x%d (%s)", m.Name, m.Quantity, m.Category)
		}
	}
	return sb.String()
}
