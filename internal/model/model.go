package model

import "time"

// Student is the person responsible for a booking (the roster leader).
type Student struct {
	Name          string `validate:"required"`
	ControlNumber string `validate:"required,controlnumber"`
}

// Member is an additional roster entry. Name is optional.
type Member struct {
	Name          string
	ControlNumber string `validate:"required,controlnumber"`
}

// Category is the closed set of equipment kinds a material may belong to.
type Category string

const (
	CategoryCables     Category = "Cables"
	CategoryRouters    Category = "Routers"
	CategoryServidores Category = "Servidores"
	CategoryFirewall   Category = "Firewall"
	CategoryOtros      Category = "Otros"
)

// Categories lists every valid Category in display order.
var Categories = []Category{
	CategoryCables,
	CategoryRouters,
	CategoryServidores,
	CategoryFirewall,
	CategoryOtros,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// CommonMaterials is the catalog of frequently requested equipment offered
// as presets per category. Any other name may still be entered freely.
var CommonMaterials = map[Category][]string{
	CategoryCables:     {"Cable Ethernet", "Cable Consola", "Cable Serial"},
	CategoryRouters:    {"N900", "AC1200"},
	CategoryServidores: {"Servidor PC"},
	CategoryFirewall:   {"Fortinet"},
	CategoryOtros:      {"Switch", "Access Point", "Patch Panel"},
}

// Material is one line of a booking's equipment list.
type Material struct {
	ID       string
	Name     string   `validate:"required"`
	Quantity int      `validate:"min=1"`
	Category Category `validate:"required,category"`
}

// Booking is a single reservation of the lab.
//
// Day only carries a calendar date: it is midnight in the store's timezone.
// StartTime/EndTime form the half-open interval [StartTime, EndTime).
type Booking struct {
	ID string

	Professor string
	Subject   string

	Student     Student
	TeamMembers []Member
	// TeamSize is the declared headcount (leader + members); 0 when undeclared.
	TeamSize int

	Day       time.Time
	StartTime string
	EndTime   string
	// Duration in hours, derived from StartTime/EndTime.
	Duration float64

	Materials []Material
}

// Roster returns the control numbers of the leader followed by every member.
func (b Booking) Roster() []string {
	out := make([]string, 0, 1+len(b.TeamMembers))
	if b.Student.ControlNumber != "" {
		out = append(out, b.Student.ControlNumber)
	}
	for _, m := range b.TeamMembers {
		out = append(out, m.ControlNumber)
	}
	return out
}

// Draft is a booking without its identifier: the payload of create and
// update operations.
type Draft struct {
	Professor string `validate:"required"`
	Subject   string `validate:"required"`

	Student     Student
	TeamMembers []Member `validate:"dive"`
	TeamSize    int      `validate:"min=0"`

	Day       time.Time `validate:"required"`
	StartTime string    `validate:"required,hhmm"`
	EndTime   string    `validate:"required,hhmm"`

	// Materials is Unchanged unless the caller explicitly supplies a list.
	Materials Patch[[]Material]
}

// Roster returns the control numbers of the draft's leader and members.
func (d Draft) Roster() []string {
	return Booking{Student: d.Student, TeamMembers: d.TeamMembers}.Roster()
}

// Apply merges d over prev. The identifier always comes from prev and the
// materials only change when d.Materials is a Replace.
func (d Draft) Apply(prev Booking) Booking {
	next := Booking{
		ID:          prev.ID,
		Professor:   d.Professor,
		Subject:     d.Subject,
		Student:     d.Student,
		TeamMembers: d.TeamMembers,
		TeamSize:    d.TeamSize,
		Day:         d.Day,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Duration:    prev.Duration,
		Materials:   d.Materials.Or(prev.Materials),
	}
	return next
}

// DraftOf turns a stored booking back into an update payload that replaces
// every field, materials included.
func DraftOf(b Booking) Draft {
	return Draft{
		Professor:   b.Professor,
		Subject:     b.Subject,
		Student:     b.Student,
		TeamMembers: b.TeamMembers,
		TeamSize:    b.TeamSize,
		Day:         b.Day,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Materials:   Replace(b.Materials),
	}
}
