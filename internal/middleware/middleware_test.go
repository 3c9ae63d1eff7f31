package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/remittance-api/internal/auth"
	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/ratelimit"
	"github.com/josh-kwaku/remittance-api/internal/repository"
)

type stubAuthenticator struct {
	identity *auth.Identity
	err      error
	token    string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	s.token = token
	return s.identity, s.err
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name   string
		header string
		authn  *stubAuthenticator
		status int
	}{
		{"missing header", "", &stubAuthenticator{}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", &stubAuthenticator{}, http.StatusUnauthorized},
		{"invalid token", "Bearer bad", &stubAuthenticator{err: domain.ErrInvalidCredentials}, http.StatusUnauthorized},
		{"inactive user", "Bearer ok", &stubAuthenticator{err: domain.ErrUserInactive}, http.StatusUnauthorized},
		{"store failure", "Bearer ok", &stubAuthenticator{err: errors.New("db down")}, http.StatusInternalServerError},
		{"valid", "Bearer ok", &stubAuthenticator{identity: &auth.Identity{UserID: userID}}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = auth.UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			r := httptest.NewRequest(http.MethodGet, "/api/v1/transfers", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Auth(tt.authn)(next).ServeHTTP(rec, r)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, userID, seen)
				assert.Equal(t, "ok", tt.authn.token)
			}
		})
	}
}

type memIdempotency struct {
	mu      sync.Mutex
	records map[string]*repository.IdempotencyRecord
	saves   int
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{records: map[string]*repository.IdempotencyRecord{}}
}

func (m *memIdempotency) Lookup(_ context.Context, key string, userID uuid.UUID) (*repository.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[key+userID.String()], nil
}

func (m *memIdempotency) Save(_ context.Context, rec *repository.IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.records[rec.Key+rec.UserID.String()] = rec
	return nil
}

func idempotentRequest(userID uuid.UUID, key, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/transfers", strings.NewReader(body))
	if key != "" {
		r.Header.Set(IdempotencyHeader, key)
	}
	return r.WithContext(auth.ContextWithIdentity(r.Context(), auth.Identity{UserID: userID}))
}

func countingHandler(calls *atomic.Int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"call":` + strconv.Itoa(int(n)) + `,"echo":` + string(body) + `}`))
	})
}

func TestIdempotency_ReplaysSameRequest(t *testing.T) {
	store := newMemIdempotency()
	var calls atomic.Int32
	h := Idempotency(store, time.Hour)(countingHandler(&calls, http.StatusCreated))
	userID := uuid.New()

	first := httptest.NewRecorder()
	h.ServeHTTP(first, idempotentRequest(userID, "key-1", `{"a":1}`))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, idempotentRequest(userID, "key-1", `{"a":1}`))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_MismatchedBody(t *testing.T) {
	store := newMemIdempotency()
	var calls atomic.Int32
	h := Idempotency(store, time.Hour)(countingHandler(&calls, http.StatusCreated))
	userID := uuid.New()

	h.ServeHTTP(httptest.NewRecorder(), idempotentRequest(userID, "key-1", `{"a":1}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, idempotentRequest(userID, "key-1", `{"a":2}`))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_MISMATCH")
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_OptIn(t *testing.T) {
	store := newMemIdempotency()
	var calls atomic.Int32
	h := Idempotency(store, time.Hour)(countingHandler(&calls, http.StatusCreated))
	userID := uuid.New()

	h.ServeHTTP(httptest.NewRecorder(), idempotentRequest(userID, "", `{"a":1}`))
	h.ServeHTTP(httptest.NewRecorder(), idempotentRequest(userID, "", `{"a":1}`))

	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, store.saves)
}

func TestIdempotency_KeysAreScopedPerUser(t *testing.T) {
	store := newMemIdempotency()
	var calls atomic.Int32
	h := Idempotency(store, time.Hour)(countingHandler(&calls, http.StatusCreated))

	h.ServeHTTP(httptest.NewRecorder(), idempotentRequest(uuid.New(), "shared", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), idempotentRequest(uuid.New(), "shared", `{}`))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	store := newMemIdempotency()
	var calls atomic.Int32
	h := Idempotency(store, time.Hour)(countingHandler(&calls, http.StatusNotFound))
	userID := uuid.New()

	h.ServeHTTP(httptest.NewRecorder(), idempotentRequest(userID, "key-1", `{}`))
	h.ServeHTTP(httptest.NewRecorder(), idempotentRequest(userID, "key-1", `{}`))
	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, store.saves)
}

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
	subject  string
}

func (s *stubLimiter) Allow(_ context.Context, _ ratelimit.Rule, subject string) (ratelimit.Decision, error) {
	s.subject = subject
	return s.decision, s.err
}

func TestRateLimit(t *testing.T) {
	rule := ratelimit.Rule{Scope: "login", Limit: 20, Window: 15 * time.Minute}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("over limit", func(t *testing.T) {
		l := &stubLimiter{decision: ratelimit.Decision{Allowed: false, RetryAfter: 90 * time.Second}}
		r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		r.RemoteAddr = "10.1.2.3:5555"
		rec := httptest.NewRecorder()

		RateLimit(l, rule, ByClientIP)(ok).ServeHTTP(rec, r)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "90", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		assert.Equal(t, "10.1.2.3", l.subject)
	})

	t.Run("under limit", func(t *testing.T) {
		l := &stubLimiter{decision: ratelimit.Decision{Allowed: true, Remaining: 19}}
		rec := httptest.NewRecorder()
		RateLimit(l, rule, ByClientIP)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "19", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("limiter error fails open", func(t *testing.T) {
		l := &stubLimiter{err: errors.New("redis down")}
		rec := httptest.NewRecorder()
		RateLimit(l, rule, ByClientIP)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("by user", func(t *testing.T) {
		userID := uuid.New()
		l := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r = r.WithContext(auth.ContextWithIdentity(r.Context(), auth.Identity{UserID: userID}))

		RateLimit(l, rule, ByUser)(ok).ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, userID.String(), l.subject)
	})
}

func TestRecovery(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()

	Recovery(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestTracing(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	Tracing(next).ServeHTTP(rec, r)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	Tracing(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	require.NoError(t, err)
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64)))
	BodyLimit(16)(next).ServeHTTP(httptest.NewRecorder(), r)

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}

func TestSecurityHeadersAndChain(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { order = append(order, "handler") })

	rec := httptest.NewRecorder()
	Chain(final, mw("outer"), SecurityHeaders, mw("inner")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}
