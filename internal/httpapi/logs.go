package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/quartermasterhq/quartermaster/internal/service"
	"github.com/quartermasterhq/quartermaster/pkg/httpx"
)

// LogsHandler exposes the activity log to admins.
type LogsHandler struct {
	AuditService *service.AuditService
	AuthzService *service.AuthzService
}

type logResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleList handles GET /v1/logs. Log access is admin only and re-checked
// against the store like every other privileged action.
func (h *LogsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r.Context())

	if err := h.AuthzService.Authorize(r.Context(), sess.Username, service.ActionLogsRead); err != nil {
		writeServiceError(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.AuditService.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]logResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, logResponse{
			ID:        e.ID,
			Username:  e.Username,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
