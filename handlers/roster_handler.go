package handlers

import (
	"net/http"

	"github.com/tns-project/tns-server/services"
)

type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rosterService services.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

// Fetch pulls the roster worksheet from the configured spreadsheet and
// replaces the stored roster. The response carries the built roster and
// every diagnostic the build produced.
func (h *RosterHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	result, err := h.rosterService.Fetch(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) Get(w http.ResponseWriter, r *http.Request) {
	roster, err := h.rosterService.Get(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"roster": roster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) ListDivisions(w http.ResponseWriter, r *http.Request) {
	divisions, err := h.rosterService.ListDivisions(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"divisions": divisions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RosterHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.rosterService.Clear(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
