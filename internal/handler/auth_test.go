package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/remittance-api/internal/auth"
	"github.com/josh-kwaku/remittance-api/internal/domain"
	"github.com/josh-kwaku/remittance-api/internal/service"
)

type fakeAuthService struct {
	registered   *service.RegisterRequest
	refreshToken string
	err          error
}

func (f *fakeAuthService) session() *service.Session {
	return &service.Session{
		Token: &auth.Token{Value: "signed", ExpiresAt: time.Now().Add(time.Hour)},
		User:  &domain.User{ID: uuid.New(), Email: "ada@example.com", KYCStatus: domain.KYCStatusPending},
	}
}

func (f *fakeAuthService) Register(_ context.Context, req service.RegisterRequest) (*service.Session, error) {
	f.registered = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.session(), nil
}

func (f *fakeAuthService) Login(context.Context, string, string) (*service.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session(), nil
}

func (f *fakeAuthService) Refresh(_ context.Context, token string) (*service.Session, error) {
	f.refreshToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.session(), nil
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	return httptest.NewRequest(method, target, &buf)
}

func TestAuthHandler_Register(t *testing.T) {
	svc := &fakeAuthService{}
	rec := httptest.NewRecorder()

	NewAuthHandler(svc).Register(rec, jsonRequest(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email": "ada@example.com", "password": "longenough", "firstName": "Ada", "lastName": "Obi", "country": "NG",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.registered)
	assert.Equal(t, "NG", *svc.registered.Country)
	assert.Contains(t, rec.Body.String(), `"token":"signed"`)
	assert.Contains(t, rec.Body.String(), `"kycStatus":"pending"`)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	svc := &fakeAuthService{}
	rec := httptest.NewRecorder()

	NewAuthHandler(svc).Register(rec, jsonRequest(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email": "not-an-email", "password": "short", "firstName": "A", "lastName": "Obi", "phone": "abc",
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.registered)
	body := rec.Body.String()
	for _, field := range []string{"email", "password", "firstName", "phone"} {
		assert.Contains(t, body, `"field":"`+field+`"`)
	}
}

func TestAuthHandler_RegisterDuplicate(t *testing.T) {
	rec := httptest.NewRecorder()
	NewAuthHandler(&fakeAuthService{err: domain.ErrEmailTaken}).Register(rec,
		jsonRequest(http.MethodPost, "/api/v1/auth/register", map[string]any{
			"email": "ada@example.com", "password": "longenough", "firstName": "Ada", "lastName": "Obi",
		}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMAIL_TAKEN")
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	rec := httptest.NewRecorder()
	NewAuthHandler(&fakeAuthService{err: domain.ErrInvalidCredentials}).Login(rec,
		jsonRequest(http.MethodPost, "/api/v1/auth/login", map[string]any{"email": "ada@example.com", "password": "x"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestAuthHandler_RefreshFromHeader(t *testing.T) {
	svc := &fakeAuthService{}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	r.Header.Set("Authorization", "Bearer old-token")
	rec := httptest.NewRecorder()

	NewAuthHandler(svc).Refresh(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "old-token", svc.refreshToken)
}

func TestAuthHandler_RefreshErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	NewAuthHandler(&fakeAuthService{}).Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_TOKEN")

	rec = httptest.NewRecorder()
	NewAuthHandler(&fakeAuthService{err: domain.ErrInvalidCredentials}).Refresh(rec,
		jsonRequest(http.MethodPost, "/api/v1/auth/refresh", map[string]string{"token": "expired"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}

func TestAuthHandler_Logout(t *testing.T) {
	rec := httptest.NewRecorder()
	NewAuthHandler(&fakeAuthService{}).Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
