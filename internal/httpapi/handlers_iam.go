package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/audit"
	"github.com/cleanco/platform/internal/auth"
	"github.com/cleanco/platform/internal/authz"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/outbox"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
	"github.com/cleanco/platform/pkg/ids"
)

// registerIAM wires the org-scoped user/role and team management surface.
// The user routes require PermUserManage and the team create/update routes
// PermTeamManage; listing teams needs no permission beyond the group's own
// checks. The group's middleware chain already resolved the org and opened
// the request transaction.
func registerIAM(g *echo.Group, d *Deps) {
	users := g.Group("/users")
	users.GET("", handleListUsers(d))
	users.POST("", handleInviteUser(d))
	users.PATCH("/:id", handleUpdateUser(d))
	users.POST("/:id/reset", handleResetUser(d))
	users.POST("/:id/logout", handleLogoutUser(d))

	teams := g.Group("/teams")
	teams.GET("", handleListTeams(d))
	teams.POST("", handleCreateTeam(d))
	teams.PATCH("/:id", handleUpdateTeam(d))
}

var validRoles = map[models.Role]bool{
	models.RoleOwner: true, models.RoleAdmin: true, models.RoleDispatcher: true,
	models.RoleFinance: true, models.RoleViewer: true,
}

func currentMembership(tx *gorm.DB, d *Deps, c echo.Context) (*models.Membership, error) {
	p := tenant.CurrentPrincipal(c)
	return d.Users.MembershipFor(tx, p.OrgID, p.UserID)
}

func requireIAMPermission(tx *gorm.DB, d *Deps, c echo.Context, perm authz.Permission) error {
	m, err := currentMembership(tx, d, c)
	if err != nil {
		return err
	}
	role := models.Role("")
	if m != nil {
		role = m.Role
	}
	return authz.Require(role, perm)
}

func handleListUsers(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := requireIAMPermission(tx, d, c, authz.PermUserManage); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		users, err := d.Users.ListByOrg(tx, orgID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"users": users})
	}
}

type inviteUserRequest struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func handleInviteUser(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req inviteUserRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse invite request body")
		}
		if req.Email == "" {
			return apperrors.Validation("missing_email", "email is required")
		}
		if !validRoles[req.Role] {
			return apperrors.Validation("invalid_role", "role is not a recognized membership role")
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := requireIAMPermission(tx, d, c, authz.PermUserManage); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		existing, err := d.Users.ByEmail(tx, orgID, req.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.Conflict("user_exists", "a user with this email already exists in this org")
		}

		tempPassword, err := auth.GenerateRandomToken(12)
		if err != nil {
			return err
		}
		hash, scheme, err := auth.HashPassword(tempPassword)
		if err != nil {
			return err
		}

		userID, err := ids.New(ids.PrefixUser, 16)
		if err != nil {
			return err
		}
		user := &models.User{
			ID:           userID,
			OrgID:        orgID,
			Email:        req.Email,
			PasswordHash: hash,
			HashScheme:   scheme,
			MustChange:   true,
		}
		if err := d.Users.Create(tx, user); err != nil {
			return err
		}

		membershipID, err := ids.New(ids.PrefixMembership, 16)
		if err != nil {
			return err
		}
		if err := d.Users.CreateMembership(tx, &models.Membership{
			ID: membershipID, OrgID: orgID, UserID: userID, Role: req.Role,
		}); err != nil {
			return err
		}

		if err := outbox.Enqueue(tx, orgID, outbox.KindEmail, "", outbox.EmailPayload{
			To:       req.Email,
			Subject:  "user.invited",
			HTMLBody: "you've been invited. temporary password: " + tempPassword,
		}); err != nil {
			return err
		}

		actor := tenant.CurrentPrincipal(c)
		_ = audit.Write(tx, orgID, audit.Event{
			PrincipalKind: actor.Kind, PrincipalID: actor.UserID,
			Event: "iam.user.invited", TargetType: "user", TargetID: userID,
			Detail: map[string]string{"email": req.Email, "role": string(req.Role)},
		})

		return c.JSON(http.StatusCreated, user)
	}
}

type updateUserRequest struct {
	Role        *models.Role `json:"role"`
	Deactivated *bool        `json:"deactivated"`
}

func handleUpdateUser(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Param("id")
		var req updateUserRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse update request body")
		}
		if req.Role != nil && !validRoles[*req.Role] {
			return apperrors.Validation("invalid_role", "role is not a recognized membership role")
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := requireIAMPermission(tx, d, c, authz.PermUserManage); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		target, err := d.Users.ByID(tx, orgID, userID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperrors.NotFound("user_not_found", "user not found")
		}

		if req.Role != nil {
			rows, err := d.Users.UpdateMembershipRole(tx, orgID, userID, *req.Role)
			if err != nil {
				return err
			}
			if rows == 0 {
				return apperrors.NotFound("membership_not_found", "user has no membership in this org")
			}
		}
		if req.Deactivated != nil {
			if err := d.Users.SetDeactivated(tx, orgID, userID, *req.Deactivated); err != nil {
				return err
			}
			if *req.Deactivated {
				if err := d.Auth.Revoke(tx, orgID, userID, "", true, "deactivated"); err != nil {
					return err
				}
			}
		}

		actor := tenant.CurrentPrincipal(c)
		_ = audit.Write(tx, orgID, audit.Event{
			PrincipalKind: actor.Kind, PrincipalID: actor.UserID,
			Event: "iam.user.updated", TargetType: "user", TargetID: userID,
		})

		updated, err := d.Users.ByID(tx, orgID, userID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, updated)
	}
}

func handleResetUser(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Param("id")

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := requireIAMPermission(tx, d, c, authz.PermUserManage); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		target, err := d.Users.ByID(tx, orgID, userID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperrors.NotFound("user_not_found", "user not found")
		}

		tempPassword, err := auth.GenerateRandomToken(12)
		if err != nil {
			return err
		}
		hash, scheme, err := auth.HashPassword(tempPassword)
		if err != nil {
			return err
		}
		if err := d.Users.UpdatePassword(tx, orgID, userID, hash, scheme); err != nil {
			return err
		}
		if err := d.Auth.Revoke(tx, orgID, userID, "", true, "password_reset_by_admin"); err != nil {
			return err
		}
		if err := outbox.Enqueue(tx, orgID, outbox.KindEmail, "", outbox.EmailPayload{
			To:       target.Email,
			Subject:  "user.password_reset",
			HTMLBody: "your password was reset. temporary password: " + tempPassword,
		}); err != nil {
			return err
		}

		actor := tenant.CurrentPrincipal(c)
		_ = audit.Write(tx, orgID, audit.Event{
			PrincipalKind: actor.Kind, PrincipalID: actor.UserID,
			Event: "iam.user.password_reset", TargetType: "user", TargetID: userID,
		})

		return c.NoContent(http.StatusNoContent)
	}
}

func handleLogoutUser(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Param("id")

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := requireIAMPermission(tx, d, c, authz.PermUserManage); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		if err := d.Auth.Revoke(tx, orgID, userID, "", true, "logged_out_by_admin"); err != nil {
			return err
		}

		actor := tenant.CurrentPrincipal(c)
		_ = audit.Write(tx, orgID, audit.Event{
			PrincipalKind: actor.Kind, PrincipalID: actor.UserID,
			Event: "iam.user.logged_out", TargetType: "user", TargetID: userID,
		})

		return c.NoContent(http.StatusNoContent)
	}
}
