package httpapi

import (
	"context"
	"net/http"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/pkg/httpx"
	"github.com/quartermasterhq/quartermaster/pkg/slogx"
)

// SessionCookie is the cookie carrying the opaque session token.
const SessionCookie = "qm_session"

type ctxKey string

const ctxKeySession ctxKey = "auth_session"

func sessionFromCtx(ctx context.Context) *domain.AuthSession {
	s, _ := ctx.Value(ctxKeySession).(*domain.AuthSession)
	return s
}

// withSession resolves the caller's AuthSession from the session cookie,
// creating a fresh session (and setting the cookie) when none exists, and
// injects it into the request context.
func (r *Router) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var sess *domain.AuthSession
		if c, err := req.Cookie(SessionCookie); err == nil {
			sess, _ = r.sessions.Get(c.Value)
		}

		if sess == nil {
			token, created, err := r.sessions.Create()
			if err != nil {
				slogx.FromContext(ctx).Error("failed to create session", "err", err)
				httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not create session")
				return
			}
			sess = created
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteStrictMode,
			})
		}

		next.ServeHTTP(w, req.WithContext(context.WithValue(ctx, ctxKeySession, sess)))
	})
}

// requireAuth is withSession plus a completed-login check. Handlers behind it
// may assume a dashboard-stage session with a username.
func (r *Router) requireAuth(next http.HandlerFunc) http.Handler {
	return r.withSession(func(w http.ResponseWriter, req *http.Request) {
		sess := sessionFromCtx(req.Context())
		if sess == nil || !sess.Authenticated {
			httpx.WriteError(w, http.StatusUnauthorized, "not_authenticated", "login required")
			return
		}
		next.ServeHTTP(w, req)
	})
}
