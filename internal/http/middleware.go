package http

import (
	"context"
	"net/http"
	"strings"

	"bollette/internal/auth"
)

type contextKey string

const principalKey contextKey = "principal"

// principalFrom returns the authenticated principal stored by authed.
func principalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(auth.Principal)
	return p, ok
}

// authed validates the bearer token and stores the principal in the
// request context.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, r, auth.ErrMissingToken)
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}

		principal, err := s.tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next(w, r.WithContext(ctx))
	}
}

// adminOnly rejects non-administrator principals with 403.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r.Context())
		if !ok || principal.Role != auth.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "administrator role required"})
			return
		}
		next(w, r)
	})
}
