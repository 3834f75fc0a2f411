package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tns-project/tns-server/models"
	"github.com/tns-project/tns-server/services"
)

type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Subscribe is public: spectators use it to follow a team.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var sub models.Subscription
	if err := readJSON(w, r, &sub); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.subscriptionService.Subscribe(r.Context(), &sub); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"subscription": sub}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type unsubscribeInput struct {
	Email string `json:"email"`
}

// Unsubscribe removes every subscription of an email address.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var input unsubscribeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" {
		badRequestResponse(w, r, errors.New("email is required"))
		return
	}

	removed, err := h.subscriptionService.UnsubscribeEmail(r.Context(), input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"removed": removed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "subscriptionID"))
	if err != nil || id <= 0 {
		badRequestResponse(w, r, errors.New("invalid subscription ID"))
		return
	}

	if err := h.subscriptionService.Unsubscribe(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptionService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"subscriptions": subs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
