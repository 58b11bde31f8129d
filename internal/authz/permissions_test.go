package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/pkg/apperrors"
)

func TestRequireGrantsPermittedRole(t *testing.T) {
	assert.NoError(t, Require(models.RoleOwner, PermUserManage))
	assert.NoError(t, Require(models.RoleAdmin, PermTeamManage))
	assert.NoError(t, Require(models.RoleDispatcher, PermBookingWrite))
	assert.NoError(t, Require(models.RoleFinance, PermInvoiceWrite))
	assert.NoError(t, Require(models.RoleViewer, PermBookingRead))
}

func TestRequireDeniesUnpermittedRole(t *testing.T) {
	err := Require(models.RoleViewer, PermUserManage)
	assert.Error(t, err)
	appErr, ok := err.(*apperrors.Error)
	assert.True(t, ok)
	assert.Equal(t, apperrors.KindForbidden, appErr.Kind())
}

func TestRequireDeniesEmptyRole(t *testing.T) {
	err := Require(models.Role(""), PermBookingRead)
	assert.Error(t, err)
}

func TestDispatcherCanManageTeams(t *testing.T) {
	// teams are mutable by dispatcher, not just the higher roles.
	assert.True(t, HasPermission(models.RoleDispatcher, PermTeamManage))
}

func TestViewerIsReadOnly(t *testing.T) {
	writePerms := []Permission{PermLeadWrite, PermBookingWrite, PermInvoiceWrite, PermTeamManage, PermUserManage, PermPhotoUpload}
	for _, perm := range writePerms {
		assert.False(t, HasPermission(models.RoleViewer, perm), "viewer should not have %s", perm)
	}
}

func TestQuotaForPlan(t *testing.T) {
	t.Run("known plan returns its quota", func(t *testing.T) {
		q := QuotaForPlan("growth")
		assert.Equal(t, 10, q.MaxTeams)
		assert.Equal(t, 2000, q.MaxActiveBookings)
	})

	t.Run("unlimited plan uses -1 sentinels", func(t *testing.T) {
		q := QuotaForPlan("scale")
		assert.Equal(t, -1, q.MaxTeams)
		assert.Equal(t, -1, q.MaxActiveBookings)
		assert.Equal(t, int64(-1), q.MaxPhotoBytesOrg)
	})

	t.Run("unknown plan falls back to starter", func(t *testing.T) {
		assert.Equal(t, QuotaForPlan("starter"), QuotaForPlan("nonexistent-plan"))
	})
}

func TestCheckCount(t *testing.T) {
	t.Run("under limit passes", func(t *testing.T) {
		assert.NoError(t, CheckCount(10, 5, "teams"))
	})

	t.Run("exactly at limit minus one passes", func(t *testing.T) {
		assert.NoError(t, CheckCount(10, 9, "teams"))
	})

	t.Run("at limit fails", func(t *testing.T) {
		err := CheckCount(10, 10, "teams")
		assert.Error(t, err)
		appErr, ok := err.(*apperrors.Error)
		assert.True(t, ok)
		assert.Equal(t, apperrors.KindPlanLimit, appErr.Kind())
	})

	t.Run("negative limit means unlimited", func(t *testing.T) {
		assert.NoError(t, CheckCount(-1, 1_000_000, "teams"))
	})
}
