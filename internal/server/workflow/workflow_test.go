package workflow

import (
	"testing"

	"github.com/dmitrijs2005/recipebook/internal/common"
	"github.com/dmitrijs2005/recipebook/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = models.UserViewer("owner")
	stranger = models.UserViewer("stranger")
	admin    = models.AdminViewer("admin")
	anon     = models.AnonymousViewer()
)

func recipe(status models.Status) *models.Recipe {
	return &models.Recipe{ID: "r1", UserID: "owner", Status: status}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.Status
		to      models.Status
		viewer  models.Viewer
		wantErr error
	}{
		{"owner submits", models.StatusPrivate, models.StatusPending, owner, nil},
		{"admin submits", models.StatusPrivate, models.StatusPending, admin, nil},
		{"stranger cannot submit", models.StatusPrivate, models.StatusPending, stranger, common.ErrInvalidTransition},
		{"anonymous cannot submit", models.StatusPrivate, models.StatusPending, anon, common.ErrInvalidTransition},
		{"owner cannot approve", models.StatusPending, models.StatusApproved, owner, common.ErrInvalidTransition},
		{"admin approves pending", models.StatusPending, models.StatusApproved, admin, nil},
		{"admin rejects pending", models.StatusPending, models.StatusRejected, admin, nil},
		{"admin cannot approve private", models.StatusPrivate, models.StatusApproved, admin, common.ErrInvalidTransition},
		{"admin cannot approve rejected", models.StatusRejected, models.StatusApproved, admin, common.ErrInvalidTransition},
		{"admin revokes approved", models.StatusApproved, models.StatusPrivate, admin, nil},
		{"admin withdraws pending", models.StatusPending, models.StatusPrivate, admin, nil},
		{"owner cannot withdraw pending", models.StatusPending, models.StatusPrivate, owner, common.ErrInvalidTransition},
		{"owner cannot revoke approved", models.StatusApproved, models.StatusPrivate, owner, common.ErrInvalidTransition},
		{"rejected to pending is not an edge", models.StatusRejected, models.StatusPending, owner, common.ErrInvalidTransition},
		{"same status is not an edge", models.StatusPending, models.StatusPending, admin, common.ErrInvalidTransition},
		{"unknown target", models.StatusPending, models.Status("published"), admin, common.ErrInvalidStatusValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(recipe(tt.from), tt.to, tt.viewer)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckForce(t *testing.T) {
	for _, s := range models.AllStatuses() {
		assert.NoError(t, CheckForce(s, admin))
	}
	assert.ErrorIs(t, CheckForce(models.StatusApproved, owner), common.ErrInvalidTransition)
	assert.ErrorIs(t, CheckForce(models.StatusApproved, anon), common.ErrInvalidTransition)
	assert.ErrorIs(t, CheckForce("bogus", admin), common.ErrInvalidStatusValue)
}

func TestCanView(t *testing.T) {
	for _, s := range models.AllStatuses() {
		r := recipe(s)
		approved := s == models.StatusApproved

		assert.Equal(t, approved, CanView(r, anon), "anonymous, %s", s)
		assert.Equal(t, approved, CanView(r, stranger), "stranger, %s", s)
		assert.True(t, CanView(r, owner), "owner, %s", s)
		assert.True(t, CanView(r, admin), "admin, %s", s)
	}
}

func TestVisibleStatuses(t *testing.T) {
	approvedOnly := []models.Status{models.StatusApproved}

	assert.Equal(t, approvedOnly, VisibleStatuses(anon, ""))
	assert.Equal(t, approvedOnly, VisibleStatuses(anon, "owner"))
	assert.Equal(t, approvedOnly, VisibleStatuses(owner, ""))
	assert.Equal(t, approvedOnly, VisibleStatuses(stranger, "owner"))
	assert.Equal(t, models.AllStatuses(), VisibleStatuses(owner, "owner"))
	assert.Equal(t, models.AllStatuses(), VisibleStatuses(admin, ""))
	assert.Equal(t, models.AllStatuses(), VisibleStatuses(admin, "owner"))
}

func TestEditStatus(t *testing.T) {
	rejected := models.StatusRejected
	approved := models.StatusApproved

	got, err := EditStatus(ResubmitOnEdit, nil, models.StatusPrivate, owner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPrivate, got)

	got, err = EditStatus(ResubmitOnEdit, nil, models.StatusPending, owner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got)

	_, err = EditStatus(ResubmitOnEdit, nil, models.StatusApproved, owner)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	got, err = EditStatus(ResubmitOnEdit, &approved, models.StatusPending, owner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got, "editing an approved recipe sends it back to review")

	got, err = EditStatus(ResubmitOnEdit, &rejected, models.StatusPending, owner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got)

	_, err = EditStatus(ResubmitByAdmin, &rejected, models.StatusPending, owner)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	got, err = EditStatus(ResubmitByAdmin, &rejected, models.StatusPrivate, owner)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPrivate, got)

	got, err = EditStatus(ResubmitByAdmin, &rejected, models.StatusApproved, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got)

	_, err = EditStatus(ResubmitOnEdit, nil, models.StatusPrivate, anon)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)

	_, err = EditStatus(ResubmitOnEdit, nil, "draft", admin)
	assert.ErrorIs(t, err, common.ErrInvalidStatusValue)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("edit")
	require.NoError(t, err)
	assert.Equal(t, ResubmitOnEdit, p)

	p, err = ParsePolicy("admin")
	require.NoError(t, err)
	assert.Equal(t, ResubmitByAdmin, p)

	_, err = ParsePolicy("auto")
	assert.Error(t, err)
}
