package handler

import (
	"encoding/json"
	"net/http"

	"gravizot/internal/middleware"
	"gravizot/internal/model"
	"gravizot/internal/service"
	"gravizot/pkg/apierror"
)

type ContactHandler struct {
	service *service.ContactService
}

func NewContactHandler(service *service.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ContactRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	msg, sent, err := h.service.Submit(r.Context(), payload, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.ContactResponse{
		OK:        true,
		ID:        msg.ID,
		CreatedAt: msg.CreatedAt,
		EmailSent: sent,
	})
}

// Csrf mirrors the auth package's safe planting endpoint for the public
// contact page.
func (h *ContactHandler) Csrf(w http.ResponseWriter, _ *http.Request) {
	writeOK(w)
}
