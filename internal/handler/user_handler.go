package handler

import (
	"encoding/json"
	"net/http"

	"gravizot/internal/middleware"
	"gravizot/internal/model"
	"gravizot/internal/service"
	"gravizot/pkg/apierror"
)

type UserHandler struct {
	service *service.AuthService
}

func NewUserHandler(service *service.AuthService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	user, err := h.service.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeUser(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	var payload model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), claims.UserID, model.ProfileUpdate{
		FullName: payload.FullName,
		Locale:   payload.Locale,
		TimeZone: payload.TimeZone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeUser(w, http.StatusOK, user)
}
