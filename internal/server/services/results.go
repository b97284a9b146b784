package services

import (
	"errors"

	"github.com/dmitrijs2005/recipebook/internal/common"
)

// ErrorKind classifies a failed recipe operation for callers that map it to
// a user-facing message.
type ErrorKind string

const (
	KindValidationFailed    ErrorKind = "validation_failed"
	KindOwnershipDenied     ErrorKind = "ownership_denied"
	KindInvalidTransition   ErrorKind = "invalid_transition"
	KindInvalidStatusValue  ErrorKind = "invalid_status_value"
	KindNotFoundOrForbidden ErrorKind = "not_found_or_forbidden"
	KindPersistenceFailed   ErrorKind = "persistence_failed"
)

const (
	msgNotFoundOrForbidden = "recipe not found or no permission"
	msgSaveFailed          = "could not save the recipe, please try again"
	msgDeleteFailed        = "could not delete the recipe, please try again"
	msgStatusFailed        = "could not change the recipe status, please try again"
)

// retryMessage is the generic failure text for op.
func retryMessage(op string) string {
	switch op {
	case "delete":
		return msgDeleteFailed
	case "transition", "force":
		return msgStatusFailed
	}
	return msgSaveFailed
}

// SyncResult is the outcome of a recipe save, update or delete.
type SyncResult struct {
	OK        bool      `json:"ok"`
	RecipeID  string    `json:"recipe_id,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// TransitionResult is the outcome of a status change.
type TransitionResult struct {
	OK        bool      `json:"ok"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

func syncKind(err error) ErrorKind {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidStatusValue):
		return KindValidationFailed
	case errors.Is(err, common.ErrNotFoundOrForbidden), errors.Is(err, common.ErrNotFound):
		return KindOwnershipDenied
	case errors.Is(err, common.ErrInvalidTransition):
		return KindInvalidTransition
	}
	return KindPersistenceFailed
}

func transitionKind(err error) ErrorKind {
	switch {
	case errors.Is(err, common.ErrInvalidStatusValue):
		return KindInvalidStatusValue
	case errors.Is(err, common.ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, common.ErrNotFoundOrForbidden), errors.Is(err, common.ErrNotFound):
		return KindNotFoundOrForbidden
	}
	return KindPersistenceFailed
}

// detail returns the message shown for err. Validation and workflow
// messages are passed through; the rest are generic so storage details and
// recipe existence do not leak.
func detail(op string, kind ErrorKind, err error) string {
	switch kind {
	case KindValidationFailed, KindInvalidTransition, KindInvalidStatusValue:
		return err.Error()
	case KindOwnershipDenied, KindNotFoundOrForbidden:
		return msgNotFoundOrForbidden
	}
	return retryMessage(op)
}
