package snapshot

import (
	"labcal/internal/model"
)

// Record is the JSON shape of a booking in the store and in export files.
type Record struct {
	ID          string            `json:"id"`
	Professor   string            `json:"professor"`
	Student     StudentRecord     `json:"student"`
	Subject     string            `json:"subject"`
	Day         string            `json:"day"`
	StartTime   string            `json:"startTime"`
	EndTime     string            `json:"endTime"`
	Duration    float64           `json:"duration"`
	TeamSize    int               `json:"teamSize,omitempty"`
	TeamMembers []MemberRecord    `json:"teamMembers"`
	Materials   *[]MaterialRecord `json:"materials,omitempty"`
}

type StudentRecord struct {
	Name          string `json:"name"`
	ControlNumber string `json:"controlNumber"`
}

type MemberRecord struct {
	Name          string `json:"name,omitempty"`
	ControlNumber string `json:"controlNumber"`
}

type MaterialRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
}

// ToRecord converts a booking into its wire shape.
func ToRecord(b model.Booking) Record {
	r := Record{
		ID:        b.ID,
		Professor: b.Professor,
		Student: StudentRecord{
			Name:          b.Student.Name,
			ControlNumber: b.Student.ControlNumber,
		},
		Subject:     b.Subject,
		Day:         model.FormatDay(b.Day),
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Duration:    b.Duration,
		TeamSize:    b.TeamSize,
		TeamMembers: make([]MemberRecord, 0, len(b.TeamMembers)),
	}
	for _, m := range b.TeamMembers {
		r.TeamMembers = append(r.TeamMembers, MemberRecord{Name: m.Name, ControlNumber: m.ControlNumber})
	}
	if b.Materials != nil {
		mats := make([]MaterialRecord, 0, len(b.Materials))
		for _, m := range b.Materials {
			mats = append(mats, MaterialRecord{
				ID:       m.ID,
				Name:     m.Name,
				Quantity: m.Quantity,
				Category: string(m.Category),
			})
		}
		r.Materials = &mats
	}
	return r
}

// ToRecords converts a slice of bookings, never returning nil.
func ToRecords(bs []model.Booking) []Record {
	out := make([]Record, 0, len(bs))
	for _, b := range bs {
		out = append(out, ToRecord(b))
	}
	return out
}
