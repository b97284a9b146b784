// Package common defines shared constants and sentinel errors used across
// the recipebook server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFoundOrForbidden collapses "does not exist" and "not yours" so
	// that non-owners cannot learn whether a recipe exists.
	ErrNotFoundOrForbidden = errors.New("not found or no permission")

	// Validation errors.
	ErrValidation         = errors.New("validation failed")
	ErrInvalidStatusValue = errors.New("invalid status value")

	// Workflow errors.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Service-level errors.
	ErrInternal      = errors.New("internal error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrAdminRequired = errors.New("administrator role required")
)
