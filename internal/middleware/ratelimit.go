package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/josh-kwaku/remittance-api/internal/auth"
	"github.com/josh-kwaku/remittance-api/internal/handler"
	"github.com/josh-kwaku/remittance-api/internal/logging"
	"github.com/josh-kwaku/remittance-api/internal/ratelimit"
)

type limiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, subject string) (ratelimit.Decision, error)
}

// SubjectFunc picks the identity a rate limit is counted against.
type SubjectFunc func(r *http.Request) string

// ByClientIP is used on unauthenticated routes.
func ByClientIP(r *http.Request) string {
	return ClientIP(r)
}

// ByUser falls back to the client IP when no identity is on the context.
func ByUser(r *http.Request) string {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return userID.String()
	}
	return ClientIP(r)
}

// RateLimit rejects requests over rule with 429. If the limiter itself fails
// the request is let through.
func RateLimit(l limiter, rule ratelimit.Rule, subject SubjectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := l.Allow(r.Context(), rule, subject(r))
			if err != nil {
				logging.FromContext(r.Context()).Warn("rate limiter unavailable, allowing request",
					"scope", rule.Scope,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
				handler.RespondAppError(w, handler.ErrRateLimited, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
