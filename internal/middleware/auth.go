package middleware

import (
	"net/http"

	"github.com/khyberwear/khyber-shawls-sub000/internal/identity"
	"github.com/khyberwear/khyber-shawls-sub000/pkg/utils"
)

// WithIdentity resolves the current identity once per request and puts
// it on the context. Anonymous requests pass through with a zero
// identity; checkout does not require an account.
func WithIdentity(provider identity.Provider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := identity.WithIdentity(r.Context(), provider.FromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identity.FromContext(r.Context()).IsAdmin {
			utils.WriteError(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
