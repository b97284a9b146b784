package models

import (
	"fmt"

	"github.com/dmitrijs2005/recipebook/internal/common"
)

// Status is the visibility/moderation state of a recipe.
type Status string

const (
	StatusPrivate  Status = "private"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// AllStatuses lists every status in workflow order.
func AllStatuses() []Status {
	return []Status{StatusPrivate, StatusPending, StatusApproved, StatusRejected}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPrivate, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseStatus converts raw input into a Status, failing with
// common.ErrInvalidStatusValue for anything outside the four values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidStatusValue, raw)
	}
	return s, nil
}
