package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/remittance-api/internal/auth"
)

func callerID(r *http.Request) (uuid.UUID, *AppError) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, ErrMissingToken
	}
	return userID, nil
}

// ownedResource resolves the caller and the {id} path segment. A malformed id
// is reported as not found, the same as a resource owned by someone else.
func ownedResource(r *http.Request) (userID, id uuid.UUID, appErr *AppError) {
	userID, appErr = callerID(r)
	if appErr != nil {
		return uuid.Nil, uuid.Nil, appErr
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrResourceNotFound
	}
	return userID, id, nil
}
