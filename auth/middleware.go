package auth

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/user/weather-api-go/apperror"
	"github.com/user/weather-api-go/respond"
)

// TokenHeader is the request header carrying the opaque session token.
const TokenHeader = "Auth-Key"

// RequireRole returns middleware that resolves the Auth-Key token to a user
// and enforces role membership before the request reaches a handler.
//
// Missing header yields 400, an unresolvable token 401, a resolved user whose
// role is outside the allow-list 403. On success the user is stored in the
// request context so handlers can read it without another lookup. The gate
// keeps no state between requests beyond the backing store.
func RequireRole(store UserStore, allowedRoles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				respond.Error(w, apperror.NewBadRequestError("Authorization token not provided.", nil))
				return
			}

			user, err := store.ByToken(r.Context(), token)
			if err != nil {
				respond.Error(w, apperror.NewDatabaseError("Failed to resolve authorization token.", err))
				return
			}
			if user == nil {
				respond.Error(w, apperror.NewAuthError("Invalid authorization token.", nil))
				return
			}

			if _, ok := allowed[user.Role]; !ok {
				respond.Error(w, apperror.NewForbiddenError("Access forbidden for this role.", nil))
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithUser(r.Context(), user)))
		})
	}
}

// RecordStudentAccess returns middleware that stamps lastAccess on the
// caller's user record when the Auth-Key token resolves to a student.
//
// This is telemetry, not authorization: anonymous requests pass through
// without any store lookup, and every failure along the way is logged and
// swallowed so the underlying request is never blocked.
func RecordStudentAccess(store UserStore, logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := store.ByToken(r.Context(), token)
			if err != nil {
				logger.Warn().Err(err).Msg("access recorder: token lookup failed")
				next.ServeHTTP(w, r)
				return
			}
			if user != nil && user.Role == RoleStudent {
				if _, err := store.UpdateByID(r.Context(), user.ID, map[string]interface{}{
					"lastAccess": time.Now(),
				}); err != nil {
					logger.Warn().Err(err).Str("user", user.ID.Hex()).
						Msg("access recorder: failed to update last access timestamp")
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
