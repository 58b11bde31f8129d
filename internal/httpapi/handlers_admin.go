package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/audit"
	"github.com/cleanco/platform/internal/booking"
	"github.com/cleanco/platform/internal/invoice"
	"github.com/cleanco/platform/internal/jobs"
	"github.com/cleanco/platform/internal/leads"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/outbox"
	"github.com/cleanco/platform/internal/scheduler"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
)

// registerAdminGlobal wires the slice of the admin surface that runs
// ahead of tenant.RequireOrg/withSessionVar in server.go's middleware
// chain: operational controls that are either genuinely cross-org (job
// heartbeats, the process-wide pricing config, feature flags, the
// redacted config snapshot) or that only need the header-derived org
// scopeAdminToHeaderOrg already attached to the principal, not a row-level
// security session variable (break-glass issuance, the read-only toggle).
func registerAdminGlobal(g *echo.Group, d *Deps) {
	g.GET("/config", handleAdminConfig(d))
	g.GET("/jobs/status", handleAdminJobsStatus(d))
	g.GET("/feature-flags", handleAdminGetFeatureFlags(d))
	g.PUT("/feature-flags", handleAdminSetFeatureFlags(d))
	g.POST("/pricing/reload", handleAdminPricingReload(d))
	g.POST("/read-only", handleAdminSetReadOnly(d))
	g.POST("/break-glass/start", handleAdminBreakGlassStart(d))
}

// registerAdmin wires the org-scoped admin surface: everything that reads
// or writes tenant data runs here, behind tenant.RequireOrg and the
// session-variable middleware that makes the database's own row-level
// security policies active for the request.
func registerAdmin(g *echo.Group, d *Deps) {
	adminLeads := g.Group("/leads")
	adminLeads.GET("", handleAdminListLeads(d))
	adminLeads.POST("/:id/status", handleAdminLeadStatus(d))

	adminBookings := g.Group("/bookings")
	adminBookings.POST("/:id/confirm", handleAdminBookingConfirm(d))
	adminBookings.POST("/:id/cancel", handleAdminBookingCancel(d))
	adminBookings.POST("/:id/reschedule", handleAdminBookingReschedule(d))
	adminBookings.POST("/:id/complete", handleAdminBookingComplete(d))

	adminInvoices := g.Group("/invoices")
	adminInvoices.POST("", handleAdminInvoiceCreateDraft(d))
	adminInvoices.POST("/:id/finalize", handleAdminInvoiceFinalize(d))
	adminInvoices.POST("/:id/resend", handleAdminInvoiceResend(d))
	adminInvoices.POST("/:id/payments", handleAdminInvoiceRecordPayment(d))
	adminInvoices.POST("/:id/void", handleAdminInvoiceVoid(d))

	g.POST("/email-scan", handleAdminEmailScan(d))
	g.POST("/cleanup", handleAdminCleanup(d))
	g.POST("/retention/cleanup", handleAdminRetentionCleanup(d))

	g.GET("/export-dead-letter", handleAdminExportDeadLetter(d))
	g.POST("/export-dead-letter/:id/replay", handleAdminExportDeadLetterReplay(d))
	g.GET("/outbox/dead-letter", handleAdminOutboxDeadLetter(d))
	g.POST("/outbox/dead-letter/:id/replay", handleAdminOutboxDeadLetterReplay(d))
}

func adminAudit(tx *gorm.DB, d *Deps, c echo.Context, orgID, event, targetType, targetID string) {
	p := tenant.CurrentPrincipal(c)
	detail := map[string]string{}
	if bg, _ := c.Get("break_glass_used").(bool); bg {
		detail["break_glass_used"] = "true"
	}
	_ = audit.Write(tx, orgID, audit.Event{
		PrincipalKind: p.Kind, PrincipalID: p.UserID,
		Event: event, TargetType: targetType, TargetID: targetID, Detail: detail,
	})
}

func handleAdminConfig(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, d.Config.Redacted())
	}
}

func handleAdminJobsStatus(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		required := []string{"outbox_drain", "booking_sweep", "email_reminders", "retention_cleanup"}
		ready, stale := scheduler.Ready(d.DB, required, d.Config.Jobs.HeartbeatTTL)
		return c.JSON(http.StatusOK, map[string]interface{}{"ready": ready, "stale_jobs": stale})
	}
}

func handleAdminGetFeatureFlags(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"flags": d.FeatureFlags.Snapshot()})
	}
}

func handleAdminSetFeatureFlags(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			Flags map[string]bool `json:"flags"`
		}
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse feature flag body")
		}
		d.FeatureFlags.Set(req.Flags)
		orgID := tenant.CurrentOrgID(c)
		_ = withTx(d, func(tx *gorm.DB) error {
			adminAudit(tx, d, c, orgID, "admin.feature_flags.updated", "feature_flags", "")
			return nil
		})
		return c.JSON(http.StatusOK, map[string]interface{}{"flags": d.FeatureFlags.Snapshot()})
	}
}

func handleAdminPricingReload(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := bindRawJSON(c)
		if err != nil {
			return err
		}
		d.PricingConfig.Set(body)
		orgID := tenant.CurrentOrgID(c)
		_ = withTx(d, func(tx *gorm.DB) error {
			adminAudit(tx, d, c, orgID, "admin.pricing.reloaded", "pricing_config", "")
			return nil
		})
		return c.NoContent(http.StatusNoContent)
	}
}

func handleAdminSetReadOnly(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req struct {
			ReadOnly bool `json:"read_only"`
		}
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse read-only toggle body")
		}
		d.Gate.SetReadOnly(req.ReadOnly)
		orgID := tenant.CurrentOrgID(c)
		_ = withTx(d, func(tx *gorm.DB) error {
			adminAudit(tx, d, c, orgID, "admin.read_only.toggled", "gate", "")
			return nil
		})
		return c.JSON(http.StatusOK, map[string]bool{"read_only": req.ReadOnly})
	}
}

func handleAdminBreakGlassStart(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		orgID := tenant.CurrentOrgID(c)
		if orgID == "" {
			return apperrors.Validation("missing_org", "X-Org-Id header is required to issue a break-glass token")
		}
		actor := tenant.CurrentPrincipal(c)
		var token string
		err := withTx(d, func(tx *gorm.DB) error {
			t, err := d.BreakGlass.Issue(tx, orgID, actor.UserID)
			token = t
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, map[string]string{"token": token})
	}
}

func handleAdminListLeads(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		limit, offset := paginationParams(c)
		list, err := d.Leads.List(tx, orgID, limit, offset)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"leads": list})
	}
}

type leadStatusRequest struct {
	Status models.LeadStatus `json:"status"`
}

func handleAdminLeadStatus(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		var req leadStatusRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse lead status body")
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		var transitionErr error
		switch req.Status {
		case models.LeadStatusContacted:
			transitionErr = leads.MarkContacted(tx, orgID, id)
		case models.LeadStatusBooked:
			transitionErr = leads.MarkBooked(tx, orgID, id)
		case models.LeadStatusDone:
			transitionErr = leads.MarkDone(tx, orgID, id)
		case models.LeadStatusCancelled:
			transitionErr = leads.MarkCancelled(tx, orgID, id)
		default:
			return apperrors.Validation("invalid_status", "status must be one of contacted, booked, done, cancelled")
		}
		if transitionErr != nil {
			return transitionErr
		}
		adminAudit(tx, d, c, orgID, "admin.lead.status_changed", "lead", id)

		updated, err := d.Leads.ByID(tx, orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, updated)
	}
}

// handleAdminBookingConfirm manually moves a booking out of
// AWAITING_DEPOSIT without a Stripe event, for cash-on-arrival or
// waived-deposit jobs the checkout flow never touches.
func handleAdminBookingConfirm(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		rows, err := d.Bookings.UpdateStatus(tx, orgID, id, models.BookingAwaitingDeposit, models.BookingConfirmed)
		if err != nil {
			return err
		}
		if rows == 0 {
			rows, err = d.Bookings.UpdateStatus(tx, orgID, id, models.BookingPending, models.BookingConfirmed)
			if err != nil {
				return err
			}
		}
		if rows == 0 {
			return apperrors.Conflict("invalid_transition", "booking is not awaiting confirmation")
		}
		adminAudit(tx, d, c, orgID, "admin.booking.confirmed", "booking", id)

		b, err := d.Bookings.ByID(tx, orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, b)
	}
}

func handleAdminBookingCancel(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		if err := booking.Cancel(tx, orgID, id); err != nil {
			return err
		}
		adminAudit(tx, d, c, orgID, "admin.booking.cancelled", "booking", id)

		b, err := d.Bookings.ByID(tx, orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, b)
	}
}

type bookingRescheduleRequest struct {
	StartsAt    time.Time `json:"starts_at"`
	DurationMin int       `json:"duration_min"`
}

func handleAdminBookingReschedule(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		var req bookingRescheduleRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse reschedule body")
		}
		if req.StartsAt.IsZero() || req.DurationMin <= 0 {
			return apperrors.Validation("missing_fields", "starts_at and duration_min are required")
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		b, err := booking.Reschedule(tx, orgID, id, req.StartsAt, req.DurationMin)
		if err != nil {
			return err
		}
		adminAudit(tx, d, c, orgID, "admin.booking.rescheduled", "booking", id)
		return c.JSON(http.StatusOK, b)
	}
}

func handleAdminBookingComplete(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		if err := booking.Complete(tx, orgID, id); err != nil {
			return err
		}
		adminAudit(tx, d, c, orgID, "admin.booking.completed", "booking", id)

		b, err := d.Bookings.ByID(tx, orgID, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, b)
	}
}

type invoiceDraftRequest struct {
	BookingID *string             `json:"booking_id"`
	Lines     []invoiceLineInput  `json:"lines"`
}

type invoiceLineInput struct {
	Description    string `json:"description"`
	QuantityX100   int64  `json:"quantity_x100"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	TaxCents       int64  `json:"tax_cents"`
}

func handleAdminInvoiceCreateDraft(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req invoiceDraftRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse invoice draft body")
		}
		if len(req.Lines) == 0 {
			return apperrors.Validation("missing_lines", "at least one invoice line is required")
		}

		lines := make([]invoice.LineInput, len(req.Lines))
		for i, l := range req.Lines {
			lines[i] = invoice.LineInput{
				Description:    l.Description,
				QuantityX100:   l.QuantityX100,
				UnitPriceCents: l.UnitPriceCents,
				TaxCents:       l.TaxCents,
			}
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		inv, err := invoice.CreateDraft(tx, orgID, req.BookingID, lines)
		if err != nil {
			return err
		}
		adminAudit(tx, d, c, orgID, "admin.invoice.draft_created", "invoice", inv.ID)
		return c.JSON(http.StatusCreated, inv)
	}
}

func handleAdminInvoiceFinalize(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		inv, rawToken, err := invoice.Finalize(tx, orgID, id)
		if err != nil {
			return err
		}
		adminAudit(tx, d, c, orgID, "admin.invoice.finalized", "invoice", id)
		return c.JSON(http.StatusOK, map[string]interface{}{"invoice": inv, "public_token": rawToken})
	}
}

func handleAdminInvoiceResend(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		rawToken, err := invoice.Resend(tx, orgID, id)
		if err != nil {
			return err
		}
		adminAudit(tx, d, c, orgID, "admin.invoice.resent", "invoice", id)
		return c.JSON(http.StatusOK, map[string]string{"public_token": rawToken})
	}
}

type invoicePaymentRequest struct {
	AmountCents     int64                `json:"amount_cents"`
	Method          models.PaymentMethod `json:"method"`
	ProviderEventID string               `json:"provider_event_id"`
}

func handleAdminInvoiceRecordPayment(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		var req invoicePaymentRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse payment body")
		}
		if req.AmountCents <= 0 {
			return apperrors.Validation("invalid_amount", "amount_cents must be positive")
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		inv, err := invoice.RecordPayment(tx, orgID, id, req.AmountCents, req.Method, req.ProviderEventID)
		if err != nil {
			return err
		}
		adminAudit(tx, d, c, orgID, "admin.invoice.payment_recorded", "invoice", id)
		return c.JSON(http.StatusOK, inv)
	}
}

func handleAdminInvoiceVoid(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		if err := invoice.Void(tx, orgID, id); err != nil {
			return err
		}
		adminAudit(tx, d, c, orgID, "admin.invoice.voided", "invoice", id)
		return c.NoContent(http.StatusNoContent)
	}
}

// handleAdminEmailScan runs the reminder scan on demand, outside its usual
// scheduler cadence — useful after a deploy where the supervisor was down
// for a stretch and due reminders piled up.
func handleAdminEmailScan(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := jobs.EmailReminders()(c.Request().Context(), tx); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		adminAudit(tx, d, c, orgID, "admin.jobs.email_scan_triggered", "job", "email_reminders")
		return c.NoContent(http.StatusNoContent)
	}
}

func handleAdminCleanup(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := jobs.BookingSweep(d.Config.Payment.DepositWindow)(c.Request().Context(), tx); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		adminAudit(tx, d, c, orgID, "admin.jobs.cleanup_triggered", "job", "booking_sweep")
		return c.NoContent(http.StatusNoContent)
	}
}

func handleAdminRetentionCleanup(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		if err := jobs.RetentionCleanup(&d.Config.Retention, d.Log)(c.Request().Context(), tx); err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		adminAudit(tx, d, c, orgID, "admin.jobs.retention_cleanup_triggered", "job", "retention_cleanup")
		return c.NoContent(http.StatusNoContent)
	}
}

// handleAdminExportDeadLetter and handleAdminExportDeadLetterReplay reuse
// the outbox's own dead-letter storage, filtered to the export-webhook
// kind: an export delivery is just one more outbox event, not a separate
// subsystem, so it dead-letters and replays the same way.
func handleAdminExportDeadLetter(d *Deps) echo.HandlerFunc {
	return handleDeadLetterList(d, outbox.KindExportWebhook)
}

func handleAdminExportDeadLetterReplay(d *Deps) echo.HandlerFunc {
	return handleDeadLetterReplay(d, outbox.KindExportWebhook)
}

func handleAdminOutboxDeadLetter(d *Deps) echo.HandlerFunc {
	return handleDeadLetterList(d, "")
}

func handleAdminOutboxDeadLetterReplay(d *Deps) echo.HandlerFunc {
	return handleDeadLetterReplay(d, "")
}

func handleDeadLetterList(d *Deps, kind outbox.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		limit, offset := paginationParams(c)
		dead, err := d.Outbox.Dead(tx, orgID, limit, offset)
		if err != nil {
			return err
		}
		if kind != "" {
			filtered := make([]models.OutboxEvent, 0, len(dead))
			for _, e := range dead {
				if e.Kind == string(kind) {
					filtered = append(filtered, e)
				}
			}
			dead = filtered
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"events": dead})
	}
}

func handleDeadLetterReplay(d *Deps, kind outbox.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		if kind != "" {
			ev, err := d.Outbox.ByID(tx, orgID, id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("event_not_found", "no dead-letter event of this kind with this id")
			}
			if err != nil {
				return err
			}
			if ev.Kind != string(kind) {
				return apperrors.NotFound("event_not_found", "no dead-letter event of this kind with this id")
			}
		}
		rows, err := d.Outbox.Replay(tx, orgID, id, time.Now())
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperrors.Conflict("not_dead", "event is not in a DEAD state")
		}
		adminAudit(tx, d, c, orgID, "admin.outbox.replayed", "outbox_event", id)
		return c.NoContent(http.StatusNoContent)
	}
}

func paginationParams(c echo.Context) (limit, offset int) {
	limit, offset = 50, 0
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := parsePositiveInt(raw); err == nil {
			limit = n
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if n, err := parsePositiveInt(raw); err == nil {
			offset = n
		}
	}
	return limit, offset
}

func parsePositiveInt(raw string) (int, error) {
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, apperrors.Validation("invalid_number", "expected a non-negative integer")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func bindRawJSON(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, apperrors.Validation("invalid_body", "could not read request body")
	}
	if !json.Valid(body) {
		return nil, apperrors.Validation("invalid_body", "request body is not valid JSON")
	}
	return body, nil
}
