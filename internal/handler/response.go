package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gravizot/internal/model"
	"gravizot/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeUser(w http.ResponseWriter, status int, user model.User) {
	writeJSON(w, status, model.UserResponse{OK: true, User: user.Public()})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, model.OKResponse{OK: true})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	case errors.Is(err, model.ErrEmailTaken):
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "Email already registered"
	case errors.Is(err, model.ErrInvalidCredentials), errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid credentials"
	case errors.Is(err, model.ErrTokenNotFound),
		errors.Is(err, model.ErrTokenUserMismatch),
		errors.Is(err, model.ErrTokenRevoked),
		errors.Is(err, model.ErrTokenExpired):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid or expired token"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	default:
		// Unclassified errors stay generic toward the client but are
		// logged with full detail server-side.
		slog.Error("unhandled error", "error", err.Error())
	}

	writeJSON(w, status, model.ErrorResponse{OK: false, Error: body})
}
