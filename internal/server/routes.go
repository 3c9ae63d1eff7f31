package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/api"
	"github.com/josh-kwaku/remittance-api/internal/auth"
	"github.com/josh-kwaku/remittance-api/internal/handler"
	"github.com/josh-kwaku/remittance-api/internal/middleware"
	"github.com/josh-kwaku/remittance-api/internal/ratelimit"
	"github.com/josh-kwaku/remittance-api/internal/repository"
)

var (
	LoginLimit       = ratelimit.Rule{Scope: "login", Limit: 20, Window: 15 * time.Minute}
	BeneficiaryLimit = ratelimit.Rule{Scope: "beneficiary_write", Limit: 20, Window: 10 * time.Minute}
	TransferLimit    = ratelimit.Rule{Scope: "transfer_create", Limit: 10, Window: 15 * time.Minute}
)

type limiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, subject string) (ratelimit.Decision, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

type idempotencyStore interface {
	Lookup(ctx context.Context, key string, userID uuid.UUID) (*repository.IdempotencyRecord, error)
	Save(ctx context.Context, rec *repository.IdempotencyRecord) error
}

type Deps struct {
	Auth          *handler.AuthHandler
	Beneficiaries *handler.BeneficiaryHandler
	Transfers     *handler.TransferHandler
	Health        *handler.HealthHandler

	Authenticator  authenticator
	Idempotency    idempotencyStore
	IdempotencyTTL time.Duration
	Limiter        limiter
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// NewRouter builds the full HTTP surface with its middleware stack.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.Auth(d.Authenticator)
	limit := func(rule ratelimit.Rule, subject middleware.SubjectFunc) func(http.Handler) http.Handler {
		if d.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimit(d.Limiter, rule, subject)
	}
	protected := func(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
		return middleware.Chain(h, append([]func(http.Handler) http.Handler{requireAuth}, mws...)...)
	}

	mux.HandleFunc("GET /{$}", d.Health.Root)
	mux.HandleFunc("GET /api/v1/health", d.Health.Health)
	mux.HandleFunc("GET /api/v1/health/ready", d.Health.Readiness)
	mux.HandleFunc("GET /api/v1/health/live", d.Health.Liveness)
	mux.Handle("GET /api/v1/docs", handler.ServeDocs())
	mux.Handle("GET /api/v1/docs/openapi.yaml", handler.ServeSpec(api.OpenAPI))

	mux.HandleFunc("POST /api/v1/auth/register", d.Auth.Register)
	mux.Handle("POST /api/v1/auth/login", middleware.Chain(http.HandlerFunc(d.Auth.Login),
		limit(LoginLimit, middleware.ByClientIP)))
	mux.HandleFunc("POST /api/v1/auth/refresh", d.Auth.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", d.Auth.Logout)

	beneficiaryWrite := limit(BeneficiaryLimit, middleware.ByUser)
	mux.Handle("POST /api/v1/beneficiaries", protected(d.Beneficiaries.Create, beneficiaryWrite))
	mux.Handle("GET /api/v1/beneficiaries", protected(d.Beneficiaries.List))
	mux.Handle("GET /api/v1/beneficiaries/{id}", protected(d.Beneficiaries.Get))
	mux.Handle("PUT /api/v1/beneficiaries/{id}", protected(d.Beneficiaries.Update, beneficiaryWrite))
	mux.Handle("DELETE /api/v1/beneficiaries/{id}", protected(d.Beneficiaries.Delete))

	mux.Handle("POST /api/v1/transfers", protected(d.Transfers.Create,
		limit(TransferLimit, middleware.ByUser),
		middleware.Idempotency(d.Idempotency, d.IdempotencyTTL),
	))
	mux.Handle("GET /api/v1/transfers", protected(d.Transfers.List))
	mux.Handle("POST /api/v1/transfers/quote", protected(d.Transfers.Quote))
	mux.Handle("GET /api/v1/transfers/{id}", protected(d.Transfers.Get))
	mux.Handle("GET /api/v1/transfers/{id}/receipt", protected(d.Transfers.Receipt))
	mux.Handle("POST /api/v1/transfers/{id}/cancel", protected(d.Transfers.Cancel))

	mux.HandleFunc("/", handler.NotFound)

	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = middleware.DefaultMaxBodyBytes
	}

	return middleware.Chain(mux,
		middleware.Recovery,
		middleware.Tracing,
		middleware.Logging,
		middleware.SecurityHeaders,
		middleware.CORS(d.AllowedOrigins),
		middleware.BodyLimit(maxBody),
	)
}
