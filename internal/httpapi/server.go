package httpapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/adminsafety"
	"github.com/cleanco/platform/internal/auth"
	"github.com/cleanco/platform/internal/booking"
	"github.com/cleanco/platform/internal/chat"
	"github.com/cleanco/platform/internal/config"
	"github.com/cleanco/platform/internal/metrics"
	"github.com/cleanco/platform/internal/photos"
	"github.com/cleanco/platform/internal/pricing"
	"github.com/cleanco/platform/internal/ratelimit"
	"github.com/cleanco/platform/internal/scheduler"
	"github.com/cleanco/platform/internal/storage"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/logging"
)

// Deps bundles everything a handler needs. Handlers close over *Deps
// rather than package-level globals so the server can be constructed more
// than once (tests build a Deps against a throwaway database).
type Deps struct {
	Config     *config.Config
	Log        *zap.Logger
	DB         *gorm.DB
	Auth       *auth.Service
	Keys       *auth.KeyPair
	Resolver   *tenant.Resolver
	Gate       *adminsafety.Gate
	BreakGlass *adminsafety.BreakGlass
	Limiter    *ratelimit.Limiter
	Storage    storage.Gateway
	Webhooks   *booking.WebhookProcessor
	Photos     *photos.Service

	Pricing       pricing.Evaluator
	PricingConfig *pricing.ConfigStore
	FeatureFlags  *config.FeatureFlags
	Chat          chat.Parser
	Checkout      *booking.CheckoutFactory

	Orgs        store.Orgs
	Users       store.Users
	Teams       store.Teams
	Leads       store.Leads
	Bookings    store.Bookings
	Invoices    store.Invoices
	PhotosStore store.Photos
	Outbox      store.Outbox
	Idempotency store.Idempotency
	Referrals   store.ReferralCredits
}

// NewEcho builds the fully wired Echo instance: global middleware, then
// every route group.
func NewEcho(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = logging.ProblemErrorHandler(d.Log)

	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(d.Log))
	e.Use(metrics.HTTPMiddleware())
	e.Use(middleware.Recover())
	if d.Config.CORS.Strict {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: d.Config.CORS.AllowOrigins}))
	}

	registerHealth(e, d)
	e.GET("/metrics", metrics.Handler(d.Config.Metrics.Token))

	v1 := e.Group("/v1")
	registerPublic(v1, d)
	registerAuthRoutes(v1, d)

	admin := v1.Group("/admin")
	admin.Use(d.Resolver.Middleware(), requirePrincipal(tenant.PrincipalAdmin), scopeAdminToHeaderOrg(), tenant.WithTx(d.DB))
	admin.Use(d.Gate.IPAllowlistMiddleware(), d.Gate.ReadOnlyMiddleware(), adminsafety.IdempotencyMiddleware(d.Idempotency, d.Config.Admin.IdempotencyTTL))
	registerAdminGlobal(admin, d)

	adminOrg := admin.Group("")
	adminOrg.Use(tenant.RequireOrg(), withSessionVar)
	registerAdmin(adminOrg, d)

	iam := v1.Group("/iam")
	iam.Use(d.Resolver.Middleware(), requirePrincipal(tenant.PrincipalOrgUser), tenant.RequireOrg(), tenant.WithTx(d.DB), withSessionVar)
	registerIAM(iam, d)

	worker := v1.Group("/worker")
	worker.Use(d.Resolver.Middleware(), requirePrincipal(tenant.PrincipalWorker), tenant.RequireOrg(), tenant.WithTx(d.DB), withSessionVar)
	registerWorkerPortal(worker, d)

	client := v1.Group("/client")
	client.Use(d.Resolver.Middleware(), requirePrincipal(tenant.PrincipalClient), tenant.RequireOrg(), tenant.WithTx(d.DB), withSessionVar)
	registerClientPortal(client, d)

	return e
}

func registerHealth(e *echo.Echo, d *Deps) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		if !d.Config.Jobs.HeartbeatRequired {
			return c.JSON(200, map[string]string{"status": "ready"})
		}
		required := []string{"outbox_drain", "booking_sweep", "email_reminders", "retention_cleanup"}
		ready, stale := scheduler.Ready(d.DB, required, d.Config.Jobs.HeartbeatTTL)
		if !ready {
			return c.JSON(503, map[string]interface{}{"status": "not_ready", "stale_jobs": stale})
		}
		return c.JSON(200, map[string]string{"status": "ready"})
	})
}

// requirePrincipal rejects the request unless tenant.CurrentPrincipal is
// one of the allowed kinds, set by a Resolver.Middleware that must run
// earlier in the chain.
func requirePrincipal(allowed ...tenant.PrincipalKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			kind := tenant.CurrentPrincipal(c).Kind
			for _, a := range allowed {
				if kind == a {
					return next(c)
				}
			}
			return echo.NewHTTPError(401, "credential does not grant access to this route")
		}
	}
}

func withSessionVar(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := tenant.SetSessionVar(c); err != nil {
			return err
		}
		return next(c)
	}
}

// scopeAdminToHeaderOrg fills in the org an admin Basic-auth credential is
// operating against. Admin auth itself is org-agnostic (one username and
// password covers every org), so the org has to come from a header, the
// same way the worker-token credential already works.
func scopeAdminToHeaderOrg() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := tenant.CurrentPrincipal(c)
			if p.Kind == tenant.PrincipalAdmin {
				p.OrgID = c.Request().Header.Get("X-Org-Id")
				tenant.SetPrincipal(c, p)
			}
			return next(c)
		}
	}
}
