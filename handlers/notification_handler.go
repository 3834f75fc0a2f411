package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tns-project/tns-server/notify"
	"github.com/tns-project/tns-server/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

type previewMatchesInput struct {
	Query string `json:"query"`
}

type sendMatchesInput struct {
	Query   string `json:"query"`
	Subject string `json:"subject"`
}

type sendBlastInput struct {
	Subject string `json:"subject"`
	Target  struct {
		Type     string `json:"type"`
		Tag      string `json:"tag,omitempty"`
		Division string `json:"division,omitempty"`
	} `json:"target"`
}

// Preview compiles the requested matches without sending anything.
func (h *NotificationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var input previewMatchesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	preview, err := h.notificationService.PreviewMatches(r.Context(), input.Query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, preview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) SendMatches(w http.ResponseWriter, r *http.Request) {
	var input sendMatchesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Subject == "" {
		badRequestResponse(w, r, errors.New("subject is required"))
		return
	}

	report, err := h.notificationService.SendMatchNotifications(r.Context(), input.Query, input.Subject)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) SendBlast(w http.ResponseWriter, r *http.Request) {
	var input sendBlastInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Subject == "" {
		badRequestResponse(w, r, errors.New("subject is required"))
		return
	}

	target, err := parseBlastTarget(input)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.notificationService.SendBlast(r.Context(), input.Subject, target)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseBlastTarget(input sendBlastInput) (notify.BlastTarget, error) {
	switch input.Target.Type {
	case "tag":
		if input.Target.Tag == "" {
			return nil, errors.New("tag target requires a tag name")
		}
		return notify.BlastToTag{Tag: input.Target.Tag}, nil
	case "audience":
		return notify.BlastToAudience{}, nil
	case "division":
		if input.Target.Division == "" {
			return nil, errors.New("division target requires a division")
		}
		return notify.BlastToDivision{Division: input.Target.Division}, nil
	default:
		return nil, fmt.Errorf("unknown blast target type %q", input.Target.Type)
	}
}
