package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("transfer cannot be cancelled in current status")
	ErrStatusConflict     = errors.New("transfer status changed concurrently")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user inactive")
	ErrUpstreamFailure    = errors.New("exchange rate provider unavailable")
	ErrQueueFull          = errors.New("settlement queue full")
)
