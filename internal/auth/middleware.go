package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Gate guards protected routes: CheckCookie authenticates, Authorize checks the
// caller's group against the requested path.
type Gate struct {
	tokens *Tokens
	perms  PermissionStore
	log    *zap.Logger
}

func NewGate(tokens *Tokens, perms PermissionStore, zaplog *zap.Logger) *Gate {
	return &Gate{tokens: tokens, perms: perms, log: zaplog}
}

type envelope struct {
	DT any    `json:"DT"`
	EC int    `json:"EC"`
	EM string `json:"EM"`
}

func deny(w http.ResponseWriter, code, ec int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{DT: "", EC: ec, EM: msg})
}

func (g *Gate) CheckCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			deny(w, http.StatusUnauthorized, http.StatusUnauthorized, "Not authenticated the user")
			return
		}
		claims, err := g.tokens.Verify(cookie.Value)
		if err != nil {
			deny(w, http.StatusUnauthorized, http.StatusUnauthorized, "Not authenticated the user")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// Authorize must run after CheckCookie.
func (g *Gate) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, http.StatusUnauthorized, "Not authenticated the user")
			return
		}
		roles, err := g.perms.GroupRoles(r.Context(), claims.GroupID)
		// a store outage is a 500, not a denial
		if err != nil {
			g.log.Error("load group roles", zap.Int("group_id", claims.GroupID), zap.Error(err))
			deny(w, http.StatusInternalServerError, -1, "error from server")
			return
		}
		if !Allows(roles, r.Method, r.URL.Path) {
			deny(w, http.StatusForbidden, http.StatusForbidden, "You don't have permission to access this resource")
			return
		}
		next.ServeHTTP(w, r)
	})
}
