package web

import (
	"net/http"
	"strings"

	"labcal/internal/booking"
	"labcal/internal/model"
	"labcal/internal/snapshot"
)

// bookingRequest is the create/update payload. Materials distinguishes an
// absent key (keep the stored list) from an explicit list or null.
type bookingRequest struct {
	Professor       string                                 `json:"professor"`
	Subject         string                                 `json:"subject"`
	Student         snapshot.StudentRecord                 `json:"student"`
	TeamMembers     []snapshot.MemberRecord                `json:"teamMembers"`
	TeamMembersText string                                 `json:"teamMembersText"`
	TeamSize        int                                    `json:"teamSize"`
	Day             string                                 `json:"day"`
	StartTime       string                                 `json:"startTime"`
	EndTime         string                                 `json:"endTime"`
	Materials       model.Patch[[]snapshot.MaterialRecord] `json:"materials"`
}

func (s *Server) toDraft(req bookingRequest) (model.Draft, error) {
	d := model.Draft{
		Professor: req.Professor,
		Subject:   req.Subject,
		Student:   model.Student{Name: req.Student.Name, ControlNumber: req.Student.ControlNumber},
		TeamSize:  req.TeamSize,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	for _, m := range req.TeamMembers {
		d.TeamMembers = append(d.TeamMembers, model.Member{Name: m.Name, ControlNumber: m.ControlNumber})
	}
	if len(d.TeamMembers) == 0 && strings.TrimSpace(req.TeamMembersText) != "" {
		d.TeamMembers = booking.ParseRoster(req.TeamMembersText)
	}
	if req.Day != "" {
		day, err := model.ParseDay(req.Day, s.repo.Location())
		if err != nil {
			return d, &booking.ValidationError{Kind: booking.KindInvalid, Field: "day", Message: "day must be YYYY-MM-DD or an ISO-8601 timestamp"}
		}
		d.Day = day
	}
	if recs, ok := req.Materials.Get(); ok {
		d.Materials = model.Replace(toMaterials(recs))
	}
	return d, nil
}

func toMaterials(recs []snapshot.MaterialRecord) []model.Material {
	if recs == nil {
		return nil
	}
	out := make([]model.Material, 0, len(recs))
	for _, r := range recs {
		out = append(out, model.Material{
			ID:       r.ID,
			Name:     r.Name,
			Quantity: r.Quantity,
			Category: model.Category(r.Category),
		})
	}
	return out
}

// handleListBookings returns every booking, or one day's bookings ordered by
// start time when ?date= is given.
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeJSON(w, http.StatusOK, snapshot.ToRecords(s.repo.Load()))
		return
	}
	day, err := model.ParseDay(date, s.repo.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	writeJSON(w, http.StatusOK, snapshot.ToRecords(s.repo.ListDay(day)))
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := s.repo.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, snapshot.ToRecord(b))
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := s.toDraft(req)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	b, err := s.svc.Create(d)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot.ToRecord(b))
}

func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := s.toDraft(req)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	b, err := s.svc.Update(r.PathValue("id"), d)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot.ToRecord(b))
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.PathValue("id")); err != nil {
		writeBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateMaterials(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Materials []snapshot.MaterialRecord `json:"materials"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	mats := toMaterials(req.Materials)
	if mats == nil {
		mats = []model.Material{}
	}
	b, err := s.svc.UpdateMaterials(r.PathValue("id"), mats)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot.ToRecord(b))
}

// handleCreateSeries books the same slot on every date of an RRULE.
func (s *Server) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Booking bookingRequest `json:"booking"`
		Rule    string         `json:"rule"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := s.toDraft(req.Booking)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	created, err := s.svc.CreateSeries(d, req.Rule)
	if err != nil {
		writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot.ToRecords(created))
}
