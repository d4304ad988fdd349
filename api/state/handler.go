// Package state exposes the incident board and the responder fleet.
package state

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kilianp07/omnidispatch/api/respond"
	"github.com/kilianp07/omnidispatch/core/model"
)

// Engine is the state surface of the dispatch engine.
type Engine interface {
	ListIncidents(all bool) []model.Incident
	Incident(id string) (model.Incident, bool)
	ClearIncidents() []string
	ListResponders() []model.ResponderUnit
	InitFleet(loc model.Location) []model.ResponderUnit
}

var errIncidentNotFound = errors.New("incident not found")

// Handler groups the incident and responder endpoints.
type Handler struct {
	engine Engine
}

// New returns a Handler backed by e.
func New(e Engine) *Handler { return &Handler{engine: e} }

// Incidents serves GET /api/incidents. Cleared incidents are included with ?all=true.
func (h *Handler) Incidents(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	incs := h.engine.ListIncidents(all)
	if incs == nil {
		incs = []model.Incident{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"incidents": incs})
}

// Incident serves GET /api/incidents/{id}.
func (h *Handler) Incident(w http.ResponseWriter, r *http.Request) {
	inc, ok := h.engine.Incident(r.PathValue("id"))
	if !ok {
		respond.JSON(w, http.StatusNotFound, map[string]any{"success": false, "error": errIncidentNotFound.Error()})
		return
	}
	respond.JSON(w, http.StatusOK, inc)
}

// Clear serves POST /api/incidents/clear.
func (h *Handler) Clear(w http.ResponseWriter, _ *http.Request) {
	ids := h.engine.ClearIncidents()
	if ids == nil {
		ids = []string{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "All incidents cleared",
		"cleared": ids,
	})
}

// Responders serves GET /api/responders.
func (h *Handler) Responders(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{"responders": h.engine.ListResponders()})
}

// InitFleet serves POST /api/responders/init with a {"lat","lng"} body.
func (h *Handler) InitFleet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := respond.Decode(r, &req, false); err != nil {
		respond.Error(w, err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respond.Error(w, respond.ErrBadRequest)
		return
	}
	units := h.engine.InitFleet(model.Location{Lat: *req.Lat, Lng: *req.Lng})
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "responders": units})
}
