package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
)

// registerClientPortal wires the magic-link client surface. The link token
// itself names the one booking it grants access to, so every route here is
// scoped to that single booking rather than taking a booking id from the
// path — a client token can never be used to enumerate or reach any other
// booking in the org.
func registerClientPortal(g *echo.Group, d *Deps) {
	g.GET("/booking", handleClientBooking(d))
	g.GET("/booking/photos", handleClientListPhotos(d))
	g.GET("/booking/photos/:photo_id/download", handleClientDownloadPhoto(d))
}

// clientBooking resolves the booking named by the caller's link token and
// confirms it belongs to the resolved org.
func clientBooking(tx *gorm.DB, d *Deps, c echo.Context) (*models.Booking, error) {
	p := tenant.CurrentPrincipal(c)
	if p.ClientToken == "" {
		return nil, apperrors.Unauthenticated("invalid_link", "link token missing")
	}
	b, err := d.Bookings.ByID(tx, p.OrgID, p.ClientToken)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperrors.Unauthenticated("invalid_link", "link does not resolve to a booking")
	}
	return b, nil
}

func handleClientBooking(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		b, err := clientBooking(tx, d, c)
		if err != nil {
			return err
		}

		var lead *models.Lead
		if b.LeadID != nil {
			lead, err = d.Leads.ByID(tx, b.OrgID, *b.LeadID)
			if err != nil {
				return err
			}
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"booking": b, "lead": lead})
	}
}

func handleClientListPhotos(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		b, err := clientBooking(tx, d, c)
		if err != nil {
			return err
		}
		list, err := d.PhotosStore.ByBooking(tx, b.OrgID, b.ID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"photos": list})
	}
}

func handleClientDownloadPhoto(d *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := tenant.Tx(c)
		if err != nil {
			return err
		}
		b, err := clientBooking(tx, d, c)
		if err != nil {
			return err
		}

		photoID := c.Param("photo_id")
		photo, err := d.PhotosStore.ByID(tx, b.OrgID, photoID)
		if err != nil {
			return err
		}
		if photo == nil || photo.BookingID == nil || *photo.BookingID != b.ID {
			return apperrors.NotFound("photo_not_found", "photo not found")
		}

		url, err := d.Photos.DownloadURL(c.Request().Context(), tx, b.OrgID, photoID, d.Config.Storage.URLTTLDefault)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"url": url})
	}
}
