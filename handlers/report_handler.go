package handlers

import (
	"net/http"

	"github.com/tns-project/tns-server/services"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(reportService services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) GetSentEmails(w http.ResponseWriter, r *http.Request) {
	report, err := h.reportService.GetSentEmails(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sent_emails": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReportHandler) ClearSentEmails(w http.ResponseWriter, r *http.Request) {
	if err := h.reportService.ClearSentEmails(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
