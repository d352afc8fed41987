package httpapi

import (
	"errors"
	"net/http"

	"github.com/quartermasterhq/quartermaster/internal/service"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/pkg/cryptox"
	"github.com/quartermasterhq/quartermaster/pkg/httpx"
	"github.com/quartermasterhq/quartermaster/pkg/slogx"
)

// writeServiceError maps the service error taxonomy onto HTTP responses.
// User-facing errors keep their message; anything else becomes a generic
// server error and is logged with detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", ve.Reason)
	case errors.Is(err, cryptox.ErrPasswordTooLong):
		httpx.WriteError(w, http.StatusBadRequest, "password_too_long", "password is too long (max 72 bytes)")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrInvalidOTPCode):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_code", service.ErrInvalidOTPCode.Error())
	case errors.Is(err, service.ErrNotAuthenticated):
		httpx.WriteError(w, http.StatusUnauthorized, "not_authenticated", "login required")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "action not permitted for your role")
	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusConflict, "username_taken", service.ErrUsernameTaken.Error())
	case errors.Is(err, service.ErrInvalidState):
		httpx.WriteError(w, http.StatusConflict, "invalid_state", service.ErrInvalidState.Error())
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
