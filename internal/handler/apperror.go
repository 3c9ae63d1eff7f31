package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrUserInactive       = &AppError{http.StatusUnauthorized, "USER_INACTIVE", "User not found or inactive"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrRouteNotFound      = &AppError{http.StatusNotFound, "ROUTE_NOT_FOUND", "Route not found"}
	ErrBodyTooLarge       = &AppError{http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Request body too large"}
	ErrRateLimited        = &AppError{http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidState        = &AppError{http.StatusBadRequest, "INVALID_STATE", "Transfer cannot be cancelled in current status"}
	ErrStatusConflict      = &AppError{http.StatusConflict, "STATUS_CONFLICT", "Transfer status changed concurrently, please retry"}
	ErrEmailTaken          = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email already registered"}
	ErrInvalidCurrency     = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrRatesUnavailable    = &AppError{http.StatusBadGateway, "RATES_UNAVAILABLE", "Exchange rate provider unavailable"}
	ErrIdempotencyMismatch = &AppError{http.StatusUnprocessableEntity, "IDEMPOTENCY_MISMATCH", "Idempotency key already used with a different request"}
)
