package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/service"
	"github.com/quartermasterhq/quartermaster/internal/session"
	"github.com/quartermasterhq/quartermaster/pkg/httpx"
)

// AuthHandler exposes the session state-machine events.
type AuthHandler struct {
	AuthService *service.AuthService
	Sessions    *session.Manager
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type sessionResponse struct {
	Step          domain.AuthStep `json:"step"`
	Authenticated bool            `json:"authenticated"`
	Username      string          `json:"username,omitempty"`
	Role          domain.Role     `json:"role,omitempty"`
}

// enrollmentResponse carries the TOTP secret material. It is produced
// exactly once per account and must never be cached; NoCache is applied at
// the write site.
type enrollmentResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRPNG  string `json:"qr_png"` // base64-encoded PNG
}

func sessionState(sess *domain.AuthSession) sessionResponse {
	return sessionResponse{
		Step:          sess.Step,
		Authenticated: sess.Authenticated,
		Username:      sess.Username,
		Role:          sess.Role,
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// HandleLogin handles POST /v1/auth/login (the password step).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.AuthService.SubmitCredentials(r.Context(), sess, req.Username, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionState(sess))
}

// HandleOTP handles POST /v1/auth/otp (the second factor).
func (h *AuthHandler) HandleOTP(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	var req codeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.AuthService.SubmitOTP(r.Context(), sess, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionState(sess))
}

// HandleRegisterStart handles POST /v1/auth/register/start.
func (h *AuthHandler) HandleRegisterStart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	if err := h.AuthService.StartRegistration(sess); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionState(sess))
}

// HandleRegister handles POST /v1/auth/register. On success the response
// carries the enrollment secret and QR code for the authenticator app; this
// is the only time the secret crosses to the client.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	enrollment, err := h.AuthService.SubmitRegistration(r.Context(), sess, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, enrollmentResponse{
		Secret: enrollment.Secret,
		URI:    enrollment.URI,
		QRPNG:  base64.StdEncoding.EncodeToString(enrollment.QRPNG),
	})
}

// HandleRegisterConfirm handles POST /v1/auth/register/confirm.
func (h *AuthHandler) HandleRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	var req codeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.AuthService.ConfirmRegistration(r.Context(), sess, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionState(sess))
}

// HandleCancel handles POST /v1/auth/cancel.
func (h *AuthHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	if err := h.AuthService.Cancel(sess); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionState(sess))
}

// HandleLogout handles POST /v1/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	if err := h.AuthService.Logout(r.Context(), sess); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionState(sess))
}

// HandleSession handles GET /v1/auth/session.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())
	httpx.WriteJSON(w, http.StatusOK, sessionState(sess))
}
