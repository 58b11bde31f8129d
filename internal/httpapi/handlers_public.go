package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/booking"
	"github.com/cleanco/platform/internal/chat"
	"github.com/cleanco/platform/internal/invoice"
	"github.com/cleanco/platform/internal/leads"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/pricing"
	"github.com/cleanco/platform/internal/storage"
	"github.com/cleanco/platform/pkg/apperrors"
)

// registerPublic wires the unauthenticated customer-facing surface:
// estimate, chat, lead intake, slot search, booking creation, the Stripe
// webhook, and public invoice links. None of these routes carry a
// resolved tenant principal, so none runs behind the IAM/worker/client
// middleware chains: lead intake, slot search and booking creation resolve
// their org via publicOrgID; the webhook and invoice-link routes take it
// from the record they load; estimate and chat use no org. Every route
// that touches the database opens its own transaction (withTx).
func registerPublic(g *echo.Group, d *Deps) {
	pub := g.Group("", d.Limiter.Middleware("public"))
	pub.POST("/estimate", handleEstimate(d))
	pub.POST("/chat/turn", handleChatTurn(d))
	pub.POST("/leads", handleCreateLead(d))
	pub.GET("/slots", handleSlots(d))
	pub.POST("/bookings", handleCreateBooking(d))
	pub.POST("/stripe/webhook", handleStripeWebhook(d))
	pub.GET("/i/:token", handlePublicInvoice(d))
	pub.GET("/i/:token/signed_url", handlePublicInvoiceSignedURL(d))
}

// publicOrgID resolves the org a public request is operating against: an
// explicit X-Org-Id header when present, otherwise the deployment's fixed
// default org, so a single-tenant deployment never has to send the header
// at all.
func publicOrgID(c echo.Context, d *Deps) string {
	if orgID := c.Request().Header.Get("X-Org-Id"); orgID != "" {
		return orgID
	}
	return d.Config.Service.DefaultOrgID
}

func withTx(d *Deps, fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}

func handleEstimate(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in pricing.Inputs
		if err := c.Bind(&in); err != nil {
			return apperrors.Validation("invalid_body", "could not parse estimate request body")
		}
		est, err := d.Pricing.Evaluate(d.PricingConfig.Get(), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, est)
	}
}

func handleChatTurn(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var turn chat.Turn
		if err := c.Bind(&turn); err != nil {
			return apperrors.Validation("invalid_body", "could not parse chat turn body")
		}
		reply, err := d.Chat.ParseTurn(turn)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, reply)
	}
}

type createLeadRequest struct {
	ContactName      string          `json:"contact_name"`
	ContactPhone     string          `json:"contact_phone"`
	ContactEmail     string          `json:"contact_email"`
	ContactAddress   string          `json:"contact_address"`
	StructuredInputs json.RawMessage `json:"structured_inputs"`
	EstimateSnapshot json.RawMessage `json:"estimate_snapshot"`
	ReferredByCode   string          `json:"referred_by_code"`
}

func handleCreateLead(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createLeadRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse lead intake body")
		}
		if req.ContactName == "" || req.ContactPhone == "" {
			return apperrors.Validation("missing_contact", "contact_name and contact_phone are required")
		}

		orgID := publicOrgID(c, d)
		var lead *models.Lead
		err := withTx(d, func(tx *gorm.DB) error {
			var err error
			lead, err = leads.Intake(tx, orgID, leads.IntakeInput{
				ContactName:      req.ContactName,
				ContactPhone:     req.ContactPhone,
				ContactEmail:     req.ContactEmail,
				ContactAddress:   req.ContactAddress,
				StructuredInputs: req.StructuredInputs,
				EstimateSnapshot: req.EstimateSnapshot,
				ReferredByCode:   req.ReferredByCode,
			})
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, lead)
	}
}

func handleSlots(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		teamID := c.QueryParam("team_id")
		if teamID == "" {
			return apperrors.Validation("missing_team_id", "team_id query parameter is required")
		}
		from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
		if err != nil {
			return apperrors.Validation("invalid_from", "from must be an RFC3339 timestamp")
		}
		to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
		if err != nil {
			return apperrors.Validation("invalid_to", "to must be an RFC3339 timestamp")
		}

		durationMin := 120
		if raw := c.QueryParam("duration_min"); raw != "" {
			durationMin, err = strconv.Atoi(raw)
			if err != nil || durationMin <= 0 {
				return apperrors.Validation("invalid_duration_min", "duration_min must be a positive integer")
			}
		}

		orgID := publicOrgID(c, d)
		var slots []booking.Slot
		err = withTx(d, func(tx *gorm.DB) error {
			team, err := d.Teams.ByID(tx, orgID, teamID)
			if err != nil {
				return err
			}
			if team == nil {
				return apperrors.NotFound("team_not_found", "team not found")
			}
			slots, err = booking.AvailableSlots(tx, orgID, team, from, to, durationMin)
			return err
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"slots": slots})
	}
}

type createBookingRequest struct {
	LeadID      *string   `json:"lead_id"`
	TeamID      string    `json:"team_id"`
	StartsAt    time.Time `json:"starts_at"`
	DurationMin int       `json:"duration_min"`
}

type createBookingResponse struct {
	Booking     *models.Booking `json:"booking"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

func handleCreateBooking(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createBookingRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Validation("invalid_body", "could not parse booking request body")
		}
		if req.TeamID == "" || req.DurationMin <= 0 || req.StartsAt.IsZero() {
			return apperrors.Validation("missing_fields", "team_id, starts_at, and duration_min are required")
		}

		orgID := publicOrgID(c, d)
		var resp createBookingResponse
		err := withTx(d, func(tx *gorm.DB) error {
			var lead *models.Lead
			if req.LeadID != nil {
				var err error
				lead, err = d.Leads.ByID(tx, orgID, *req.LeadID)
				if err != nil {
					return err
				}
			}
			deposit := booking.DecideDepositPolicy(lead, req.StartsAt)

			b, err := booking.Create(tx, orgID, booking.CreateInput{
				LeadID:      req.LeadID,
				TeamID:      req.TeamID,
				StartsAt:    req.StartsAt,
				DurationMin: req.DurationMin,
				Deposit:     deposit,
			})
			if err != nil {
				return err
			}
			resp.Booking = b

			if deposit.Required && d.Checkout != nil {
				sessionID, url, err := d.Checkout.CreateDepositSession(b.ID, deposit.AmountCents)
				if err != nil {
					return apperrors.Dependency("payment_unavailable", "could not start deposit checkout", err)
				}
				if err := booking.StripeSessionAssigned(tx, orgID, b.ID, sessionID); err != nil {
					return err
				}
				resp.CheckoutURL = url
			}
			return nil
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, resp)
	}
}

func handleStripeWebhook(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return apperrors.Validation("invalid_body", "could not read webhook payload")
		}
		sig := c.Request().Header.Get("Stripe-Signature")

		err = withTx(d, func(tx *gorm.DB) error {
			return d.Webhooks.HandleCheckoutEvent(tx, body, sig)
		})
		if err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	}
}

func invoiceTokenHash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func handlePublicInvoice(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Param("token")
		asPDF := strings.HasSuffix(raw, ".pdf")
		token := strings.TrimSuffix(raw, ".pdf")

		var inv *models.Invoice
		var items []models.InvoiceItem
		err := withTx(d, func(tx *gorm.DB) error {
			var err error
			inv, err = d.Invoices.ByPublicTokenHash(tx, invoiceTokenHash(token))
			if err != nil {
				return err
			}
			if inv == nil {
				return apperrors.NotFound("invoice_not_found", "invoice link not found")
			}
			items, err = d.Invoices.ItemsFor(tx, inv.OrgID, inv.ID)
			return err
		})
		if err != nil {
			return err
		}

		if asPDF {
			return c.Blob(http.StatusOK, "application/pdf", invoice.RenderPDF(inv, items))
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"invoice": inv, "items": items})
	}
}

func handlePublicInvoiceSignedURL(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Param("token")

		var inv *models.Invoice
		var items []models.InvoiceItem
		err := withTx(d, func(tx *gorm.DB) error {
			var err error
			inv, err = d.Invoices.ByPublicTokenHash(tx, invoiceTokenHash(token))
			if err != nil {
				return err
			}
			if inv == nil {
				return apperrors.NotFound("invoice_not_found", "invoice link not found")
			}
			items, err = d.Invoices.ItemsFor(tx, inv.OrgID, inv.ID)
			return err
		})
		if err != nil {
			return err
		}

		key, err := storage.BuildKey(inv.OrgID, "invoices", inv.ID, "pdf")
		if err != nil {
			return err
		}
		ctx := c.Request().Context()
		if err := d.Storage.Put(ctx, key, invoice.RenderPDF(inv, items), "application/pdf"); err != nil {
			return err
		}
		url, err := d.Storage.SignDownload(ctx, key, d.Config.Storage.URLTTLDefault)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"url": url})
	}
}
