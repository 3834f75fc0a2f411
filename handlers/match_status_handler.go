package handlers

import (
	"net/http"

	"github.com/tns-project/tns-server/services"
)

type MatchStatusHandler struct {
	matchStatusService services.MatchStatusService
}

func NewMatchStatusHandler(matchStatusService services.MatchStatusService) *MatchStatusHandler {
	return &MatchStatusHandler{matchStatusService: matchStatusService}
}

// Poll triggers one status poll outside the scheduler, for the admin
// refresh button.
func (h *MatchStatusHandler) Poll(w http.ResponseWriter, r *http.Request) {
	changes, err := h.matchStatusService.Poll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"changes": changes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
