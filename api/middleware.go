package api

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/havenforum/haven/auth"
	authcontext "github.com/havenforum/haven/auth/context"
)

const sessionIDKey = "session_id"

// authMiddleware resolves the cookie session into a subject on the request
// context. Requests without a valid session continue as anonymous; handlers
// that need a user enforce it themselves.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := h.cookieStore.Get(r, h.sessionName)

		sessionID, ok := session.Values[sessionIDKey].(string)
		if !ok || sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}

		authSession, err := h.authSvc.GetSession(r.Context(), sessionID)
		if err != nil {
			var (
				sessionNotFoundErr *auth.SessionNotFoundError
				sessionExpiredErr  *auth.SessionExpiredError
			)

			if errors.As(err, &sessionNotFoundErr) || errors.As(err, &sessionExpiredErr) {
				// Stale cookie, continue anonymous.
				next.ServeHTTP(w, r)
				return
			}

			slog.ErrorContext(r.Context(), "failed to get session", "error", err)
			writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})

			return
		}

		ctx := authcontext.WithSessionID(r.Context(), authSession.ID)
		ctx = authcontext.WithSubject(ctx, authSession.UserID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			slog.ErrorContext(r.Context(), "panic in handler", "panic", rec, "stack", string(debug.Stack()))
			writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}()

		next.ServeHTTP(w, r)
	})
}

// requireUser returns the authenticated subject or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	sub := authcontext.GetSubject(r.Context())
	if sub == authcontext.Anonymous {
		writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return "", false
	}

	return sub, true
}
