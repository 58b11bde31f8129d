package authz

import (
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/pkg/apperrors"
)

// Permission is a single grantable action. The set is closed and static —
// there is no per-org custom role here, only the five built-in roles.
type Permission string

const (
	PermLeadRead      Permission = "lead:read"
	PermLeadWrite     Permission = "lead:write"
	PermBookingRead   Permission = "booking:read"
	PermBookingWrite  Permission = "booking:write"
	PermInvoiceRead   Permission = "invoice:read"
	PermInvoiceWrite  Permission = "invoice:write"
	PermTeamManage    Permission = "team:manage"
	PermUserManage    Permission = "user:manage"
	PermPhotoUpload   Permission = "photo:upload"
	PermPhotoDownload Permission = "photo:download"
	PermAdminConfig   Permission = "admin:config"
)

var rolePermissions = map[models.Role]map[Permission]bool{
	models.RoleOwner: {
		PermLeadRead: true, PermLeadWrite: true,
		PermBookingRead: true, PermBookingWrite: true,
		PermInvoiceRead: true, PermInvoiceWrite: true,
		PermTeamManage: true, PermUserManage: true,
		PermPhotoUpload: true, PermPhotoDownload: true,
		PermAdminConfig: true,
	},
	models.RoleAdmin: {
		PermLeadRead: true, PermLeadWrite: true,
		PermBookingRead: true, PermBookingWrite: true,
		PermInvoiceRead: true, PermInvoiceWrite: true,
		PermTeamManage: true, PermUserManage: true,
		PermPhotoUpload: true, PermPhotoDownload: true,
	},
	models.RoleDispatcher: {
		PermLeadRead: true, PermLeadWrite: true,
		PermBookingRead: true, PermBookingWrite: true,
		PermTeamManage:  true,
		PermPhotoUpload: true, PermPhotoDownload: true,
	},
	models.RoleFinance: {
		PermLeadRead:    true,
		PermBookingRead: true,
		PermInvoiceRead: true, PermInvoiceWrite: true,
		PermPhotoDownload: true,
	},
	models.RoleViewer: {
		PermLeadRead: true, PermBookingRead: true, PermInvoiceRead: true, PermPhotoDownload: true,
	},
}

func HasPermission(role models.Role, perm Permission) bool {
	return rolePermissions[role][perm]
}

// Require returns a FORBIDDEN apperrors.Error when role lacks perm. An
// empty role (no membership resolved) is always denied.
func Require(role models.Role, perm Permission) error {
	if role != "" && HasPermission(role, perm) {
		return nil
	}
	return apperrors.Forbidden("insufficient_role", "role does not grant "+string(perm))
}
