// Package workflow holds the recipe status state machine and the read
// access rules. It is pure: callers load recipes and persist outcomes.
//
//	private ──owner──▶ pending ──admin──▶ approved ──admin──▶ private
//	                      │
//	                      ├──admin──▶ rejected
//	                      └──admin──▶ private
//
// Administrators may additionally set any status, see CheckForce.
package workflow

import (
	"fmt"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
)

// ResubmitPolicy decides whether an owner edit may move a rejected recipe
// back to pending.
type ResubmitPolicy string

const (
	// ResubmitOnEdit lets an owner edit that requests pending resubmit a
	// rejected recipe.
	ResubmitOnEdit ResubmitPolicy = "edit"
	// ResubmitByAdmin keeps rejected recipes out of the queue until an
	// administrator moves them.
	ResubmitByAdmin ResubmitPolicy = "admin"
)

func ParsePolicy(raw string) (ResubmitPolicy, error) {
	switch p := ResubmitPolicy(raw); p {
	case ResubmitOnEdit, ResubmitByAdmin:
		return p, nil
	}
	return "", fmt.Errorf("unknown resubmit policy %q", raw)
}

type actor uint8

const (
	actorNone  actor = 0
	actorOwner actor = 1 << iota
	actorAdmin
)

type edge struct {
	from, to models.Status
}

var edges = map[edge]actor{
	{models.StatusPrivate, models.StatusPending}:  actorOwner | actorAdmin,
	{models.StatusPending, models.StatusApproved}: actorAdmin,
	{models.StatusPending, models.StatusRejected}: actorAdmin,
	{models.StatusPending, models.StatusPrivate}:  actorAdmin,
	{models.StatusApproved, models.StatusPrivate}: actorAdmin,
}

func actorOf(r *models.Recipe, v models.Viewer) actor {
	switch v.Kind {
	case models.ViewerAdmin:
		a := actorAdmin
		if v.Owns(r.UserID) {
			a |= actorOwner
		}
		return a
	case models.ViewerUser:
		if v.Owns(r.UserID) {
			return actorOwner
		}
		return actorNone
	case models.ViewerAnonymous:
		return actorNone
	}
	return actorNone
}

// CanView reports whether v may read r: approved recipes are public, owners
// see their own recipes and administrators see everything.
func CanView(r *models.Recipe, v models.Viewer) bool {
	switch v.Kind {
	case models.ViewerAdmin:
		return true
	case models.ViewerUser:
		return r.Status == models.StatusApproved || v.Owns(r.UserID)
	case models.ViewerAnonymous:
		return r.Status == models.StatusApproved
	}
	return false
}

// VisibleStatuses returns the status set a listing for v must be filtered
// by. ownerFilter is the owner id the listing is restricted to, if any.
func VisibleStatuses(v models.Viewer, ownerFilter string) []models.Status {
	switch v.Kind {
	case models.ViewerAdmin:
		return models.AllStatuses()
	case models.ViewerUser:
		if ownerFilter != "" && v.Owns(ownerFilter) {
			return models.AllStatuses()
		}
		return []models.Status{models.StatusApproved}
	case models.ViewerAnonymous:
		return []models.Status{models.StatusApproved}
	}
	return nil
}

// CheckTransition validates moving r to the target status on behalf of v
// along the table edges.
func CheckTransition(r *models.Recipe, to models.Status, v models.Viewer) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidStatusValue, to)
	}

	allowed, ok := edges[edge{r.Status, to}]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, r.Status, to)
	}
	if allowed&actorOf(r, v) == 0 {
		return fmt.Errorf("%w: %s -> %s not allowed for %s", common.ErrInvalidTransition, r.Status, to, v.Kind)
	}
	return nil
}

// CheckForce validates the administrator escape hatch that sets any status.
func CheckForce(to models.Status, v models.Viewer) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidStatusValue, to)
	}
	if !v.IsAdmin() {
		return fmt.Errorf("%w: only administrators may force a status", common.ErrInvalidTransition)
	}
	return nil
}

// EditStatus decides the status a recipe gets when its content is created
// or edited. current is nil on creation. Owners may keep a recipe private or
// submit it for review; administrators may set any status.
func EditStatus(policy ResubmitPolicy, current *models.Status, requested models.Status, v models.Viewer) (models.Status, error) {
	if !requested.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidStatusValue, requested)
	}

	switch v.Kind {
	case models.ViewerAdmin:
		return requested, nil
	case models.ViewerUser:
		if requested != models.StatusPrivate && requested != models.StatusPending {
			return "", fmt.Errorf("%w: owners may only save a recipe as %s or %s", common.ErrInvalidTransition, models.StatusPrivate, models.StatusPending)
		}
		if current != nil && *current == models.StatusRejected && requested == models.StatusPending && policy == ResubmitByAdmin {
			return "", fmt.Errorf("%w: rejected recipes are resubmitted by an administrator", common.ErrInvalidTransition)
		}
		return requested, nil
	case models.ViewerAnonymous:
		return "", fmt.Errorf("%w: anonymous viewers cannot edit recipes", common.ErrInvalidTransition)
	}
	return "", common.ErrInvalidTransition
}
