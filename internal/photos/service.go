package photos

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/authz"
	"github.com/cleanco/platform/internal/config"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/outbox"
	"github.com/cleanco/platform/internal/storage"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/pkg/apperrors"
	"github.com/cleanco/platform/pkg/ids"
)

var photos store.Photos

// Service ties the photo DB repository to the storage Gateway and enforces
// the upload-time MIME/size allowlist.
type Service struct {
	gateway storage.Gateway
	backend string
	limits  config.PhotoLimits
}

func NewService(gateway storage.Gateway, backend string, limits config.PhotoLimits) *Service {
	return &Service{gateway: gateway, backend: backend, limits: limits}
}

// UploadInput is a single photo submission; Ext is taken from the
// declared MIME type, not trusted from any client-supplied filename.
type UploadInput struct {
	OrgID            string
	BookingID        *string
	LeadID           *string
	UploadedByUserID *string
	MIMEType         string
	Data             []byte
}

func (s *Service) Upload(ctx context.Context, tx *gorm.DB, in UploadInput) (*models.Photo, error) {
	if !mimeAllowed(in.MIMEType, s.limits.AllowedMIME) {
		return nil, apperrors.Validation("unsupported_mime_type", "photo MIME type is not in the allowed list")
	}
	if int64(len(in.Data)) > s.limits.MaxBytes {
		return nil, apperrors.Validation("photo_too_large", "photo exceeds the maximum allowed size")
	}

	id, err := ids.New(ids.PrefixPhoto, 16)
	if err != nil {
		return nil, err
	}
	bookingID := ""
	if in.BookingID != nil {
		bookingID = *in.BookingID
	}
	key, err := storage.BuildPhotoKey(in.OrgID, bookingID, id, extFromMIME(in.MIMEType))
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		ID:               id,
		OrgID:            in.OrgID,
		BookingID:        in.BookingID,
		LeadID:           in.LeadID,
		StorageKey:       key,
		Backend:          s.backend,
		MIMEType:         in.MIMEType,
		SizeBytes:        int64(len(in.Data)),
		UploadedByUserID: in.UploadedByUserID,
	}
	if err := photos.Create(tx, photo); err != nil {
		return nil, err
	}
	if err := s.gateway.Put(ctx, key, in.Data, in.MIMEType); err != nil {
		return nil, err
	}
	return photo, nil
}

// CanView reports whether role may view photos at all; callers still need
// to confirm the photo's org matches the caller's, and for non-admin
// roles that the caller is actually assigned to the relevant team/booking.
func CanView(role models.Role) bool {
	return authz.HasPermission(role, authz.PermPhotoDownload)
}

// DownloadURL mints a time-limited signed URL for an already-authorized
// caller. ttl is clamped against the configured ceiling.
func (s *Service) DownloadURL(ctx context.Context, tx *gorm.DB, orgID, photoID string, requestedTTL time.Duration) (string, error) {
	photo, err := photos.ByID(tx, orgID, photoID)
	if err != nil {
		return "", err
	}
	if photo == nil {
		return "", apperrors.NotFound("photo_not_found", "photo not found")
	}
	ttl := storage.ClampTTL(requestedTTL, s.limits.URLTTL, s.limits.URLTTL)
	return s.gateway.SignDownload(ctx, photo.StorageKey, ttl)
}

// Delete removes the photo row outright in the caller's transaction, then
// enqueues the durable storage delete by key. The row goes first: once this
// returns, the photo is gone for every reader (ByBooking, DownloadURL)
// regardless of whether the backend delete has run yet, which is what
// makes erasure total rather than leaving a half-deleted row behind.
func Delete(tx *gorm.DB, orgID, photoID string) error {
	photo, err := photos.ByID(tx, orgID, photoID)
	if err != nil {
		return err
	}
	if photo == nil {
		return apperrors.NotFound("photo_not_found", "photo not found")
	}
	if err := photos.Delete(tx, orgID, photoID); err != nil {
		return err
	}
	return outbox.Enqueue(tx, orgID, outbox.KindStorageDelete, "photo_delete:"+photoID, outbox.StorageDeletePayload{
		Key: photo.StorageKey,
	})
}

func mimeAllowed(mime string, allowlist []string) bool {
	for _, allowed := range allowlist {
		if strings.EqualFold(mime, allowed) {
			return true
		}
	}
	return false
}

func extFromMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	default:
		return ""
	}
}
