package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"mocca-storefront/services/auth"
	"mocca-storefront/utils"
)

// Session loads the cookie session once per request and places it in the
// request context.
func Session(sessions *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := sessions.Load(r)
			next.ServeHTTP(w, r.WithContext(auth.WithState(r.Context(), st)))
		})
	}
}

// RequireAuth rejects requests without a logged-in shopper.
func RequireAuth(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.FromContext(r.Context()).IsAuthenticated() {
				logger.Debug("unauthenticated request", zap.String("path", r.URL.Path))
				utils.SendErrorResponse(w, http.StatusUnauthorized, "Please log in to continue")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests without an admin token.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.FromContext(r.Context()).IsAdmin() {
				logger.Warn("non-admin request to admin endpoint",
					zap.String("path", r.URL.Path),
					zap.String("ip", clientIP(r)))
				utils.SendErrorResponse(w, http.StatusUnauthorized, "Admin login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGuest keeps logged-in shoppers away from the login and register
// endpoints.
func RequireGuest() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.FromContext(r.Context()).IsAuthenticated() {
				utils.SendErrorResponse(w, http.StatusConflict, "You are already logged in")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdminGuest() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.FromContext(r.Context()).IsAdmin() {
				utils.SendErrorResponse(w, http.StatusConflict, "Admin is already logged in")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
