package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "labcal/internal/log"
	"labcal/internal/model"
	"labcal/internal/timeofday"
)

// looseString accepts a JSON string or number. Older files stored control
// numbers as numbers.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = looseString(n.String())
	return nil
}

// looseInt accepts a JSON number or numeric string.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return err
	}
	*n = looseInt(f)
	return nil
}

// rawRecord is the union of every booking shape seen in stored data:
//   - title-based: {id, professor, day, startTime, endTime, title}
//   - student-based without team or materials
//   - the current shape (Record)
type rawRecord struct {
	ID        string   `json:"id"`
	Professor string   `json:"professor"`
	Title     string   `json:"title"`
	Subject   string   `json:"subject"`
	Day       string   `json:"day"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	Duration  *float64 `json:"duration"`
	TeamSize  looseInt `json:"teamSize"`

	Student *struct {
		Name          string      `json:"name"`
		ControlNumber looseString `json:"controlNumber"`
	} `json:"student"`

	TeamMembers []struct {
		Name          string      `json:"name"`
		ControlNumber looseString `json:"controlNumber"`
	} `json:"teamMembers"`

	Materials *[]struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Quantity looseInt `json:"quantity"`
		Category string   `json:"category"`
	} `json:"materials"`
}

// legacyID derives the id of a stored record that has none. It depends only
// on the record's content and position, so every read of the same data
// agrees until the first write persists it.
func (r rawRecord) legacyID(pos int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "labcal:booking:%d|%s|%s|%s|%s|%s|%s", pos, r.Day, r.StartTime, r.EndTime, r.Professor, r.Subject, r.Title)
	if r.Student != nil {
		sb.WriteString("|" + string(r.Student.ControlNumber))
	}
	for _, m := range r.TeamMembers {
		sb.WriteString("|" + string(m.ControlNumber))
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sb.String())).String()
}

func materialID(bookingID string, pos int) string {
	name := fmt.Sprintf("labcal:material:%s:%d", bookingID, pos)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// toBooking migrates a raw record of any known shape into the canonical
// booking. pos is the record's index in its list. Only an unreadable day is
// fatal.
func (r rawRecord) toBooking(loc *time.Location, pos int) (model.Booking, error) {
	day, err := model.ParseDay(r.Day, loc)
	if err != nil {
		return model.Booking{}, fmt.Errorf("booking %q: %w", r.ID, err)
	}

	b := model.Booking{
		ID:        r.ID,
		Professor: r.Professor,
		Subject:   r.Subject,
		Day:       day,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		TeamSize:  int(r.TeamSize),
	}
	if b.ID == "" {
		b.ID = r.legacyID(pos)
		appLog.Debug("snapshot: record without id, derived one", "id", b.ID, "day", model.DayKey(day))
	}

	// Title-based records predate subjects and students.
	if b.Subject == "" && r.Title != "" {
		b.Subject = r.Title
	}
	if r.Student != nil {
		b.Student = model.Student{
			Name:          r.Student.Name,
			ControlNumber: string(r.Student.ControlNumber),
		}
	}

	for _, m := range r.TeamMembers {
		b.TeamMembers = append(b.TeamMembers, model.Member{
			Name:          m.Name,
			ControlNumber: string(m.ControlNumber),
		})
	}

	if r.Duration != nil {
		b.Duration = *r.Duration
	} else if d, err := timeofday.Duration(r.StartTime, r.EndTime); err == nil {
		b.Duration = d
	}

	if r.Materials != nil {
		b.Materials = make([]model.Material, 0, len(*r.Materials))
		for i, m := range *r.Materials {
			mat := model.Material{
				ID:       m.ID,
				Name:     m.Name,
				Quantity: int(m.Quantity),
				Category: model.Category(m.Category),
			}
			if mat.ID == "" {
				mat.ID = materialID(b.ID, i)
			}
			if !mat.Category.Valid() {
				mat.Category = model.CategoryOtros
			}
			b.Materials = append(b.Materials, mat)
		}
	}

	return b, nil
}
