// Package httpapi exposes the auth state-machine events and the inventory,
// user-management and activity-log operations as a JSON API. It is a thin
// collaborator: every decision that matters happens in the service layer.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/quartermasterhq/quartermaster/internal/service"
	"github.com/quartermasterhq/quartermaster/internal/session"
	"github.com/quartermasterhq/quartermaster/internal/store"
	"github.com/quartermasterhq/quartermaster/pkg/httpx"
	"github.com/quartermasterhq/quartermaster/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	startTime time.Time
	logger    *slog.Logger
	store     store.Store
	sessions  *session.Manager

	AuthService      *service.AuthService
	AuthzService     *service.AuthzService
	InventoryService *service.InventoryService
	UserService      *service.UserService
	AuditService     *service.AuditService
}

func NewRouter(st store.Store, sessions *session.Manager, logger *slog.Logger) *Router {
	r := &Router{
		Mux:       http.NewServeMux(),
		startTime: time.Now(),
		logger:    logger,
		store:     st,
		sessions:  sessions,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInventory()
	r.registerUsers()
	r.registerLogs()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService, Sessions: r.sessions}

	// Credential and OTP submissions carry the brute-force risk; everything
	// else on the auth surface is state plumbing.
	strict := httpx.RateLimitByIP(httpx.StrictLimit)

	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(r.withSession(h.HandleLogin), strict))
	r.Mux.Handle("POST /v1/auth/otp",
		httpx.Chain(r.withSession(h.HandleOTP), strict))
	r.Mux.Handle("POST /v1/auth/register/start",
		r.withSession(h.HandleRegisterStart))
	r.Mux.Handle("POST /v1/auth/register",
		r.withSession(h.HandleRegister))
	r.Mux.Handle("POST /v1/auth/register/confirm",
		httpx.Chain(r.withSession(h.HandleRegisterConfirm), strict))
	r.Mux.Handle("POST /v1/auth/cancel",
		r.withSession(h.HandleCancel))
	r.Mux.Handle("POST /v1/auth/logout",
		r.withSession(h.HandleLogout))
	r.Mux.Handle("GET /v1/auth/session",
		r.withSession(h.HandleSession))
}

func (r *Router) registerInventory() {
	h := &InventoryHandler{InventoryService: r.InventoryService}

	lenient := httpx.RateLimitByIP(httpx.LenientLimit)

	r.Mux.Handle("GET /v1/inventory",
		httpx.Chain(r.requireAuth(h.HandleList), lenient))
	r.Mux.Handle("POST /v1/inventory",
		httpx.Chain(r.requireAuth(h.HandleCreate), lenient))
	r.Mux.Handle("PUT /v1/inventory/{id}",
		httpx.Chain(r.requireAuth(h.HandleUpdate), lenient))
	r.Mux.Handle("DELETE /v1/inventory/{id}",
		httpx.Chain(r.requireAuth(h.HandleDelete), lenient))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	r.Mux.Handle("POST /v1/users", r.requireAuth(h.HandleCreate))
}

func (r *Router) registerLogs() {
	h := &LogsHandler{AuditService: r.AuditService, AuthzService: r.AuthzService}

	r.Mux.Handle("GET /v1/logs", r.requireAuth(h.HandleList))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"uptime": time.Since(r.startTime).String(),
		})
	})

	r.Mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := r.store.Ping(req.Context()); err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
