package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
)

// registerAuthRoutes wires the session lifecycle. Login itself can't run
// behind the resolver chain — there's no credential yet — so it opens its
// own transaction the same way the public group does; everything past
// login requires a resolved org-user JWT.
func registerAuthRoutes(g *echo.Group, d *Deps) {
	auth := g.Group("/auth")
	unauthed := auth.Group("", d.Limiter.Middleware("auth"))
	unauthed.POST("/login", handleLogin(d))
	unauthed.POST("/refresh", handleRefresh(d))

	authed := auth.Group("")
	authed.Use(d.Resolver.Middleware(), requirePrincipal(tenant.PrincipalOrgUser), tenant.WithTx(d.DB))
	authed.POST("/logout", handleLogout(d))
	authed.GET("/me", handleMe(d))
	authed.POST("/change-password", handleChangePassword(d))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

func handleLogin(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse login request body")
		}
		if req.Email == "" || req.Password == "" {
			return apperrors.Validation("missing_fields", "email and password are required")
		}

		orgID := publicOrgID(c, d)
		ip := c.RealIP()
		userAgent := c.Request().UserAgent()
		deviceFP := c.Request().Header.Get("X-Device-Fingerprint")

		var tokens tokensResponse
		err := withTx(d, func(tx *gorm.DB) error {
			t, _, err := d.Auth.Authenticate(tx, orgID, req.Email, req.Password, ip, userAgent, deviceFP)
			if err != nil {
				return err
			}
			tokens = tokensResponse{
				AccessToken:  t.AccessToken,
				RefreshToken: t.RefreshToken,
				ExpiresAt:    t.ExpiresAt.Format(http.TimeFormat),
			}
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, tokens)
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func handleRefresh(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req refreshRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse refresh request body")
		}
		if req.RefreshToken == "" {
			return apperrors.Validation("missing_refresh_token", "refresh_token is required")
		}

		var tokens tokensResponse
		err := withTx(d, func(tx *gorm.DB) error {
			t, _, err := d.Auth.Refresh(tx, req.RefreshToken)
			if err != nil {
				return err
			}
			tokens = tokensResponse{
				AccessToken:  t.AccessToken,
				RefreshToken: t.RefreshToken,
				ExpiresAt:    t.ExpiresAt.Format(http.TimeFormat),
			}
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, tokens)
	}
}

type logoutRequest struct {
	AllSessions bool `json:"all_sessions"`
}

func handleLogout(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req logoutRequest
		// Logout with no body is the common case; an unparseable body
		// with content is still a client error.
		if c.Request().ContentLength > 0 {
			if err := c.Bind(&req); err != nil {
				return apperrors.Validation("invalid_body", "could not parse logout request body")
			}
		}

		p := tenant.CurrentPrincipal(c)
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		reason := "logout"
		if req.AllSessions {
			reason = "logout_everywhere"
		}
		if err := d.Auth.Revoke(tx, p.OrgID, p.UserID, p.SessionID, req.AllSessions, reason); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func handleMe(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := tenant.CurrentPrincipal(c)
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}

		user, err := d.Users.ByID(tx, p.OrgID, p.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NotFound("user_not_found", "user no longer exists")
		}
		membership, err := d.Users.MembershipFor(tx, p.OrgID, p.UserID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"user": user, "membership": membership})
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func handleChangePassword(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req changePasswordRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse change-password request body")
		}
		if req.CurrentPassword == "" || req.NewPassword == "" {
			return apperrors.Validation("missing_fields", "current_password and new_password are required")
		}

		p := tenant.CurrentPrincipal(c)
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := d.Auth.ChangePassword(tx, p.OrgID, p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}
