package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "labcal/internal/log"
	"labcal/internal/model"
	"labcal/internal/timeofday"
)

// Directory answers which professors and subjects are currently offered.
type Directory interface {
	HasProfessor(name string) bool
	HasSubject(name string) bool
}

// Clock abstracts "now" so past-date checks are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service admits bookings: it validates a draft against the field rules,
// the directory and the existing bookings, then commits it. Validation and
// commit run under the repository lock, so nothing can slip in between.
type Service struct {
	repo  *Repository
	dir   Directory
	clock Clock
}

// NewService wires a Service. dir may be nil to accept any professor/subject.
func NewService(repo *Repository, dir Directory, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, dir: dir, clock: clock}
}

// Repository exposes the underlying repository for read paths.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Today is the current calendar date in the repository's timezone.
func (s *Service) Today() time.Time {
	return model.DateOf(s.clock.Now().In(s.repo.loc))
}

// Validate runs every admission check for d without writing anything.
// excludeID names the booking being edited, if any.
func (s *Service) Validate(d model.Draft, excludeID string) error {
	d = s.normalize(d)

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	existing, err := s.repo.loadLocked()
	if err != nil {
		return err
	}
	var prev *model.Booking
	if excludeID != "" {
		if idx := indexOf(existing, excludeID); idx >= 0 {
			prev = &existing[idx]
		}
	}
	return s.check(d, existing, excludeID, prev)
}

// Create validates d and stores it.
func (s *Service) Create(d model.Draft) (model.Booking, error) {
	d = s.normalize(d)

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	existing, err := s.repo.loadLocked()
	if err != nil {
		return model.Booking{}, err
	}
	if err := s.check(d, existing, "", nil); err != nil {
		appLog.Info("booking rejected", "reason", err.Error(), "day", model.DayKey(d.Day))
		return model.Booking{}, err
	}

	b := s.repo.build(d)
	if err := s.repo.saveLocked(append(existing, b), true); err != nil {
		return model.Booking{}, err
	}
	appLog.Info("booking created", "id", b.ID, "day", model.DayKey(b.Day), "start", b.StartTime, "end", b.EndTime, "professor", b.Professor)
	return b, nil
}

// Update validates d as a replacement for booking id and stores the merge.
func (s *Service) Update(id string, d model.Draft) (model.Booking, error) {
	d = s.normalize(d)

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	existing, err := s.repo.loadLocked()
	if err != nil {
		return model.Booking{}, err
	}
	idx := indexOf(existing, id)
	if idx < 0 {
		return model.Booking{}, ErrNotFound
	}
	prev := existing[idx]
	if err := s.check(d, existing, id, &prev); err != nil {
		appLog.Info("booking update rejected", "id", id, "reason", err.Error())
		return model.Booking{}, err
	}

	next := s.repo.merge(prev, d)
	existing[idx] = next
	if err := s.repo.saveLocked(existing, true); err != nil {
		return model.Booking{}, err
	}
	appLog.Info("booking updated", "id", id, "day", model.DayKey(next.Day))
	return next, nil
}

// UpdateMaterials validates and replaces the equipment list of booking id.
func (s *Service) UpdateMaterials(id string, mats []model.Material) (model.Booking, error) {
	mats = normalizeMaterials(mats)
	if err := ValidateMaterials(mats); err != nil {
		return model.Booking{}, err
	}

	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()

	b, ok, err := s.repo.updateMaterialsLocked(id, mats)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		return model.Booking{}, ErrNotFound
	}
	appLog.Info("booking materials updated", "id", id, "count", len(mats))
	return b, nil
}

// Delete removes booking id.
func (s *Service) Delete(id string) error {
	ok, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	appLog.Info("booking deleted", "id", id)
	return nil
}

// check applies the admission rules in order; the first failure wins.
func (s *Service) check(d model.Draft, existing []model.Booking, excludeID string, prev *model.Booking) error {
	if err := ValidateDraft(d); err != nil {
		return err
	}

	if s.dir != nil {
		keepProf := prev != nil && prev.Professor == d.Professor
		if !keepProf && !s.dir.HasProfessor(d.Professor) {
			return invalid("professor", "%q is not a configured professor", d.Professor)
		}
		keepSubj := prev != nil && prev.Subject == d.Subject
		if !keepSubj && !s.dir.HasSubject(d.Subject) {
			return invalid("subject", "%q is not a configured subject", d.Subject)
		}
	}

	if model.Before(d.Day, s.Today()) {
		return invalid("day", "bookings cannot be made for past dates")
	}

	dur, err := timeofday.Duration(d.StartTime, d.EndTime)
	if err != nil {
		return invalid("startTime", "time must be in HH:mm format")
	}
	if dur <= 0 {
		return invalid("endTime", "end time must be after start time")
	}

	cand := Candidate{Day: d.Day, StartTime: d.StartTime, EndTime: d.EndTime, Professor: d.Professor}
	if hits := Conflicts(cand, existing, excludeID); len(hits) > 0 {
		h := hits[0]
		return conflict("startTime", "the lab is already booked %s-%s on %s (%s)",
			h.StartTime, h.EndTime, model.DayKey(h.Day), h.Professor)
	}

	if taken := TeamOverlaps(d.Roster(), d.Day, existing, excludeID); len(taken) > 0 {
		return conflict("teamMembers", "already booked on %s: %s",
			model.DayKey(d.Day), strings.Join(taken, ", "))
	}
	return nil
}

// normalize trims free text, pins the day to the repository's timezone and
// fills in derived values (team size, material IDs).
func (s *Service) normalize(d model.Draft) model.Draft {
	d.Professor = strings.TrimSpace(d.Professor)
	d.Subject = strings.TrimSpace(d.Subject)
	d.Student.Name = strings.TrimSpace(d.Student.Name)
	d.Student.ControlNumber = strings.TrimSpace(d.Student.ControlNumber)

	members := make([]model.Member, 0, len(d.TeamMembers))
	for _, m := range d.TeamMembers {
		members = append(members, model.Member{
			Name:          strings.TrimSpace(m.Name),
			ControlNumber: strings.TrimSpace(m.ControlNumber),
		})
	}
	d.TeamMembers = members

	if !d.Day.IsZero() {
		d.Day = model.DateOf(d.Day.In(s.repo.loc))
	}
	if d.TeamSize == 0 {
		d.TeamSize = 1 + len(d.TeamMembers)
	}
	if mats, ok := d.Materials.Get(); ok {
		d.Materials = model.Replace(normalizeMaterials(mats))
	}
	return d
}

func normalizeMaterials(mats []model.Material) []model.Material {
	if mats == nil {
		return nil
	}
	out := make([]model.Material, 0, len(mats))
	for _, m := range mats {
		m.Name = strings.TrimSpace(m.Name)
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		out = append(out, m)
	}
	return out
}
