package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cleanco/platform/internal/booking"
	"github.com/cleanco/platform/internal/photos"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
)

// registerWorkerPortal wires the signed-token worker surface: the day's
// assigned bookings, start/complete transitions, and photo evidence
// upload. The worker credential is shared per org rather than per
// individual, so every route here is org-scoped only — there is no
// worker user id to further restrict a booking list by.
func registerWorkerPortal(g *echo.Group, d *Deps) {
	g.GET("/bookings", handleWorkerBookings(d))
	g.POST("/bookings/:id/start", handleWorkerStartBooking(d))
	g.POST("/bookings/:id/complete", handleWorkerCompleteBooking(d))
	g.POST("/bookings/:id/photos", handleWorkerUploadPhoto(d))
	g.GET("/bookings/:id/photos", handleWorkerListPhotos(d))
}

func handleWorkerBookings(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		teamID := c.QueryParam("team_id")
		if teamID == "" {
			return apperrors.Validation("missing_team_id", "team_id query parameter is required")
		}
		from := time.Now().Truncate(24 * time.Hour)
		to := from.Add(24 * time.Hour)
		if raw := c.QueryParam("from"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return apperrors.Validation("invalid_from", "from must be an RFC3339 timestamp")
			}
			from = parsed
		}
		if raw := c.QueryParam("to"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return apperrors.Validation("invalid_to", "to must be an RFC3339 timestamp")
			}
			to = parsed
		}

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		bookings, err := d.Bookings.ListByTeamRange(tx, orgID, teamID, from, to)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"bookings": bookings})
	}
}

func handleWorkerStartBooking(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		if err := booking.Start(tx, orgID, c.Param("id")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func handleWorkerCompleteBooking(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		if err := booking.Complete(tx, orgID, c.Param("id")); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func handleWorkerUploadPhoto(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		bookingID := c.Param("id")

		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)

		b, err := d.Bookings.ByID(tx, orgID, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return apperrors.NotFound("booking_not_found", "booking not found")
		}

		fh, err := c.FormFile("photo")
		if err != nil {
			return apperrors.Validation("missing_photo", "multipart field 'photo' is required")
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}

		mime := fh.Header.Get("Content-Type")
		photo, err := d.Photos.Upload(c.Request().Context(), tx, photos.UploadInput{
			OrgID:     orgID,
			BookingID: &bookingID,
			LeadID:    b.LeadID,
			MIMEType:  mime,
			Data:      data,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, photo)
	}
}

func handleWorkerListPhotos(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		orgID := tenant.CurrentOrgID(c)
		list, err := d.PhotosStore.ByBooking(tx, orgID, c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"photos": list})
	}
}
