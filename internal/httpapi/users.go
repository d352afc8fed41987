package httpapi

import (
	"encoding/base64"
	"net/http"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/internal/service"
	"github.com/quartermasterhq/quartermaster/pkg/httpx"
)

// UsersHandler exposes admin account management.
type UsersHandler struct {
	UserService *service.UserService
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// HandleCreate handles POST /v1/users. Admin only; the service re-checks the
// actor's stored role. The response carries the new account's enrollment
// material exactly once.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	var req createUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = string(domain.RoleUser)
	}

	enrollment, err := h.UserService.CreateUser(r.Context(), sess.Username,
		req.Username, req.Password, domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, enrollmentResponse{
		Secret: enrollment.Secret,
		URI:    enrollment.URI,
		QRPNG:  base64.StdEncoding.EncodeToString(enrollment.QRPNG),
	})
}
