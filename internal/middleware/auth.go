package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/josh-kwaku/remittance-api/internal/auth"
	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/handler"
	"github.com/josh-kwaku/remittance-api/internal/logging"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Auth requires a bearer token belonging to an active user and stores the
// caller's identity on the request context.
func Auth(authn authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, ok := handler.BearerToken(r)
			if !ok {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			identity, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrUserInactive):
					handler.RespondAppError(w, handler.ErrUserInactive, nil)
				case errors.Is(err, domain.ErrInvalidCredentials):
					handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				default:
					logging.FromContext(r.Context()).Error("authentication failed", "error", err)
					handler.RespondAppError(w, handler.ErrInternalError, nil)
				}
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), *identity)
			ctx = logging.With(ctx, "user_id", identity.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
