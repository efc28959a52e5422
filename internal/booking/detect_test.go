package booking

import (
	"reflect"
	"testing"
	"time"

	"labcal/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mk(id string, d time.Time, start, end, prof string, roster ...string) model.Booking {
	b := model.Booking{ID: id, Day: d, StartTime: start, EndTime: end, Professor: prof}
	if len(roster) > 0 {
		b.Student = model.Student{Name: "Leader " + id, ControlNumber: roster[0]}
		for _, cn := range roster[1:] {
			b.TeamMembers = append(b.TeamMembers, model.Member{ControlNumber: cn})
		}
	}
	return b
}

func TestHasTimeConflict(t *testing.T) {
	mon := day(2024, 3, 4)
	existing := []model.Booking{mk("a", mon, "09:00", "11:00", "Olivares")}

	cases := []struct {
		name       string
		day        time.Time
		start, end string
		want       bool
	}{
		{"overlap tail", mon, "10:00", "12:00", true},
		{"overlap head", mon, "08:00", "09:30", true},
		{"contained", mon, "09:30", "10:30", true},
		{"containing", mon, "08:00", "12:00", true},
		{"identical", mon, "09:00", "11:00", true},
		{"touch end", mon, "11:00", "12:00", false},
		{"touch start", mon, "07:00", "09:00", false},
		{"other day", mon.AddDate(0, 0, 1), "09:00", "11:00", false},
	}
	for _, c := range cases {
		cand := Candidate{Day: c.day, StartTime: c.start, EndTime: c.end, Professor: "Bernabé"}
		if got := HasTimeConflict(cand, existing, ""); got != c.want {
			t.Errorf("%s: HasTimeConflict = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestHasTimeConflictIsSymmetric(t *testing.T) {
	mon := day(2024, 3, 4)
	pairs := [][2]model.Booking{
		{mk("a", mon, "09:00", "11:00", "Olivares"), mk("b", mon, "10:00", "12:00", "Bernabé")},
		{mk("a", mon, "09:00", "11:00", "Olivares"), mk("b", mon, "11:00", "12:00", "Olivares")},
		{mk("a", mon, "13:30", "14:00", "Miguel"), mk("b", mon, "07:00", "21:00", "Olivares")},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		ab := HasTimeConflict(Candidate{Day: a.Day, StartTime: a.StartTime, EndTime: a.EndTime}, []model.Booking{b}, "")
		ba := HasTimeConflict(Candidate{Day: b.Day, StartTime: b.StartTime, EndTime: b.EndTime}, []model.Booking{a}, "")
		if ab != ba {
			t.Errorf("asymmetric result for %s-%s vs %s-%s: %v vs %v", a.StartTime, a.EndTime, b.StartTime, b.EndTime, ab, ba)
		}
	}
}

func TestHasTimeConflictDifferentProfessorStillConflicts(t *testing.T) {
	existing := []model.Booking{mk("a", day(2024, 3, 4), "09:00", "11:00", "Olivares")}
	cand := Candidate{Day: day(2024, 3, 4), StartTime: "10:00", EndTime: "12:00", Professor: "Bernabé"}
	if !HasTimeConflict(cand, existing, "") {
		t.Fatal("room is shared: different professors must still conflict")
	}
}

func TestHasTimeConflictExcludesSelf(t *testing.T) {
	existing := []model.Booking{
		mk("a", day(2024, 3, 4), "09:00", "11:00", "Olivares"),
		mk("b", day(2024, 3, 4), "14:00", "15:00", "Olivares"),
	}
	cand := Candidate{Day: day(2024, 3, 4), StartTime: "09:30", EndTime: "10:30"}
	if HasTimeConflict(cand, existing, "a") {
		t.Error("self-exclusion should remove the only conflict")
	}
	if !HasTimeConflict(cand, existing, "b") {
		t.Error("excluding an unrelated booking must keep the conflict")
	}
}

func TestHasTimeConflictIgnoresTimeOfDayInDayValue(t *testing.T) {
	existing := []model.Booking{mk("a", time.Date(2024, 3, 4, 18, 30, 0, 0, time.UTC), "09:00", "11:00", "Olivares")}
	cand := Candidate{Day: day(2024, 3, 4), StartTime: "10:00", EndTime: "10:30"}
	if !HasTimeConflict(cand, existing, "") {
		t.Error("same calendar date with different time-of-day must compare equal")
	}
}

func TestHasTimeConflictSkipsUnreadableRecords(t *testing.T) {
	existing := []model.Booking{mk("bad", day(2024, 3, 4), "nine", "eleven", "Olivares")}
	cand := Candidate{Day: day(2024, 3, 4), StartTime: "09:00", EndTime: "11:00"}
	if HasTimeConflict(cand, existing, "") {
		t.Error("records with unreadable times should be skipped")
	}
}

func TestConflictsReturnsAll(t *testing.T) {
	mon := day(2024, 3, 4)
	existing := []model.Booking{
		mk("a", mon, "09:00", "10:00", "Olivares"),
		mk("b", mon, "10:00", "11:00", "Olivares"),
		mk("c", mon, "12:00", "13:00", "Olivares"),
	}
	got := Conflicts(Candidate{Day: mon, StartTime: "09:30", EndTime: "10:30"}, existing, "")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("Conflicts = %+v", got)
	}
}

func TestHasTeamOverlap(t *testing.T) {
	mon := day(2024, 3, 4)
	existing := []model.Booking{
		mk("a", mon, "09:00", "10:00", "Olivares", "20400001", "20400002"),
		mk("b", mon.AddDate(0, 0, 1), "09:00", "10:00", "Olivares", "20400009"),
	}

	cases := []struct {
		name   string
		roster []string
		day    time.Time
		want   bool
	}{
		{"shares leader", []string{"20400001"}, mon, true},
		{"shares member", []string{"20400099", "20400002"}, mon, true},
		{"disjoint", []string{"20400003", "20400004"}, mon, false},
		{"same person other day", []string{"20400001"}, mon.AddDate(0, 0, 2), false},
		{"empty roster", nil, mon, false},
	}
	for _, c := range cases {
		if got := HasTeamOverlap(c.roster, c.day, existing, ""); got != c.want {
			t.Errorf("%s: HasTeamOverlap = %v, want %v", c.name, got, c.want)
		}
	}

	if HasTeamOverlap([]string{"20400001"}, mon, existing, "a") {
		t.Error("excluded booking should not count")
	}
}

func TestTeamOverlapsIgnoresTimeOfDay(t *testing.T) {
	mon := day(2024, 3, 4)
	existing := []model.Booking{mk("a", mon, "09:00", "10:00", "Olivares", "20400001")}
	got := TeamOverlaps([]string{"20400005", "20400001", "20400001"}, mon, existing, "")
	if !reflect.DeepEqual(got, []string{"20400001"}) {
		t.Errorf("TeamOverlaps = %v", got)
	}
}

func TestParseRoster(t *testing.T) {
	got := ParseRoster(" 20400798, 20400799;\n\n20400800 ,, ")
	want := []model.Member{{ControlNumber: "20400798"}, {ControlNumber: "20400799"}, {ControlNumber: "20400800"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseRoster = %+v", got)
	}
	if ParseRoster("  ") != nil {
		t.Error("blank input should yield no members")
	}
}
