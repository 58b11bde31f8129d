package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"

	"github.com/cleanco/platform/internal/audit"
	"github.com/cleanco/platform/internal/authz"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
	"github.com/cleanco/platform/pkg/ids"
)

func handleListTeams(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		teams, err := d.Teams.List(tx, orgID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"teams": teams})
	}
}

type createTeamRequest struct {
	Name         string          `json:"name"`
	WorkingHours json.RawMessage `json:"working_hours"`
	Blackouts    json.RawMessage `json:"blackouts"`
}

func handleCreateTeam(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTeamRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse team request body")
		}
		if req.Name == "" {
			return apperrors.Validation("missing_name", "name is required")
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := requireIAMPermission(tx, d, c, authz.PermTeamManage); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		org, err := d.Orgs.ByID(tx, orgID)
		if err != nil {
			return err
		}
		if org != nil {
			count, err := d.Teams.Count(tx, orgID)
			if err != nil {
				return err
			}
			quota := authz.QuotaForPlan(org.Plan)
			if err := authz.CheckCount(quota.MaxTeams, int(count), "teams"); err != nil {
				return err
			}
		}

		id, err := ids.New(ids.PrefixTeam, 16)
		if err != nil {
			return err
		}
		team := &models.Team{
			ID:           id,
			OrgID:        orgID,
			Name:         req.Name,
			WorkingHours: datatypes.JSON(req.WorkingHours),
			Blackouts:    datatypes.JSON(req.Blackouts),
		}
		if err := d.Teams.Create(tx, team); err != nil {
			return err
		}

		actor := tenant.CurrentPrincipal(c)
		_ = audit.Write(tx, orgID, audit.Event{
			PrincipalKind: actor.Kind, PrincipalID: actor.UserID,
			Event: "iam.team.created", TargetType: "team", TargetID: id,
			Detail: map[string]string{"name": req.Name},
		})

		return c.JSON(http.StatusCreated, team)
	}
}

type updateTeamRequest struct {
	Name         *string         `json:"name"`
	WorkingHours json.RawMessage `json:"working_hours"`
	Blackouts    json.RawMessage `json:"blackouts"`
}

func handleUpdateTeam(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		teamID := c.Param("id")
		var req updateTeamRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse team request body")
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := requireIAMPermission(tx, d, c, authz.PermTeamManage); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		existing, err := d.Teams.ByID(tx, orgID, teamID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperrors.NotFound("team_not_found", "team not found")
		}

		fields := map[string]interface{}{}
		if req.Name != nil {
			fields["name"] = *req.Name
		}
		if req.WorkingHours != nil {
			fields["working_hours"] = datatypes.JSON(req.WorkingHours)
		}
		if req.Blackouts != nil {
			fields["blackouts"] = datatypes.JSON(req.Blackouts)
		}
		if len(fields) > 0 {
			if _, err := d.Teams.Update(tx, orgID, teamID, fields); err != nil {
				return err
			}
		}

		actor := tenant.CurrentPrincipal(c)
		_ = audit.Write(tx, orgID, audit.Event{
			PrincipalKind: actor.Kind, PrincipalID: actor.UserID,
			Event: "iam.team.updated", TargetType: "team", TargetID: teamID,
		})

		updated, err := d.Teams.ByID(tx, orgID, teamID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, updated)
	}
}
