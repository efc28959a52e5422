package web

import (
	"io"
	"net/http"
	"strconv"

	"labcal/internal/ics"
	appLog "labcal/internal/log"
	"labcal/internal/model"
	"labcal/internal/registry"
	"labcal/internal/snapshot"
	"labcal/internal/timeofday"
)

func (s *Server) writeRegistry(w http.ResponseWriter, status int, kind registry.Kind) {
	list, err := s.reg.Load(kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, list)
}

func (s *Server) handleListRegistry(kind registry.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.writeRegistry(w, http.StatusOK, kind)
	}
}

func (s *Server) handleAddRegistry(kind registry.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		ok, err := s.reg.Add(kind, req.Name)
		if err != nil {
			appLog.Error("registry add failed", err, "kind", string(kind))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "name is empty or already present")
			return
		}
		s.writeRegistry(w, http.StatusCreated, kind)
	}
}

func (s *Server) handleRemoveRegistry(kind registry.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.reg.Remove(kind, r.PathValue("name"))
		if err != nil {
			appLog.Error("registry remove failed", err, "kind", string(kind))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "name is not present or is the last entry")
			return
		}
		s.writeRegistry(w, http.StatusOK, kind)
	}
}

func (s *Server) handleResetRegistry(w http.ResponseWriter, _ *http.Request) {
	if err := s.reg.ResetToDefaults(); err != nil {
		appLog.Error("registry reset failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	profs, _ := s.reg.Load(registry.Professors)
	subjs, _ := s.reg.Load(registry.Subjects)
	writeJSON(w, http.StatusOK, map[string][]string{
		string(registry.Professors): profs,
		string(registry.Subjects):   subjs,
	})
}

// handleExport serves the full booking set as a downloadable backup file.
func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	now := s.now().In(s.repo.Location())
	data, err := s.repo.Export(now)
	if err != nil {
		appLog.Error("export failed", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+snapshot.FileName(now)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// handleImport replaces every booking with the uploaded export file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return
	}
	if !s.repo.Import(data) {
		writeError(w, http.StatusBadRequest, "invalid backup file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(s.repo.Load())})
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	data, err := ics.Export(s.repo.Load(), ics.Options{
		Location: s.repo.Location(),
		Name:     "Laboratorio",
		Now:      s.now(),
	})
	if err != nil {
		appLog.Error("calendar export failed", err)
		writeError(w, http.StatusInternalServerError, "calendar export failed")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write(data)
}

type slotsResponse struct {
	StepMinutes int      `json:"stepMinutes"`
	Slots       []string `json:"slots"`
}

func (s *Server) handleSlots(w http.ResponseWriter, _ *http.Request) {
	sc := s.cfg.Slots
	slots, err := timeofday.Slots(sc.StartHour, sc.EndHour, sc.StepMinutes)
	if err != nil {
		appLog.Error("slot generation failed", err)
		writeError(w, http.StatusInternalServerError, "slot generation failed")
		return
	}
	writeJSON(w, http.StatusOK, slotsResponse{StepMinutes: sc.StepMinutes, Slots: slots})
}

type catalogEntry struct {
	Category model.Category `json:"category"`
	Items    []string       `json:"items"`
}

// handleCatalog lists the material categories with their common items,
// in the fixed category order.
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	out := make([]catalogEntry, 0, len(model.Categories))
	for _, c := range model.Categories {
		items := model.CommonMaterials[c]
		if items == nil {
			items = []string{}
		}
		out = append(out, catalogEntry{Category: c, Items: items})
	}
	writeJSON(w, http.StatusOK, out)
}
