package middleware

import (
	"context"
	"net/http"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/internal/auth"
	contextkeys "github.com/CLDWare/evaluations-backend/internal/contextKeys"
)

type AuthenticationMiddleware struct {
	Auth *auth.Service
}

// AuthenticationMiddleware.Required checks for a valid admin session cookie and stores its claims on the context under contextkeys.AdminClaimsKey
func (mw AuthenticationMiddleware) Required(next func(w http.ResponseWriter, r *http.Request)) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.CookieName)
		if err == http.ErrNoCookie {
			gecho.Unauthorized(w).WithMessage("'" + auth.CookieName + "' cookie is required for authenticated requests").Send()
			return
		} else if err != nil {
			gecho.InternalServerError(w).Send()
			return
		}

		claims, err := mw.Auth.Validate(cookie.Value)
		if err != nil {
			gecho.Unauthorized(w).WithMessage("Invalid or expired session").Send()
			return
		}

		ctx := context.WithValue(r.Context(), contextkeys.AdminClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// AdminFromContext returns the admin claims set by Required
func AdminFromContext(ctx context.Context) (*auth.AdminClaims, bool) {
	claims, ok := ctx.Value(contextkeys.AdminClaimsKey).(*auth.AdminClaims)
	return claims, ok
}
