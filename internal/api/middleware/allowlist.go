package middleware

import (
	"net/http"

	"github.com/paperdeck/paperdeck/internal/api/response"
	"github.com/paperdeck/paperdeck/internal/service"
)

// AllowListMiddleware rejects requests whose username query parameter is not
// on the allow-list. Routes that carry the username in the body check it in
// their handlers instead.
type AllowListMiddleware struct {
	allowList *service.AllowList
}

// NewAllowListMiddleware creates a new allow-list middleware
func NewAllowListMiddleware(allowList *service.AllowList) *AllowListMiddleware {
	return &AllowListMiddleware{allowList: allowList}
}

// Require checks the username query parameter
func (m *AllowListMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.URL.Query().Get("username")
		if username == "" {
			response.BadRequest(w, "username is required")
			return
		}
		if !m.allowList.Contains(username) {
			response.Forbidden(w, "user is not allowed: "+username)
			return
		}
		next.ServeHTTP(w, r)
	})
}
