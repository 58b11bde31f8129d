package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/cleanco/platform/pkg/apperrors"
)

// Gateway is the storage backend contract every object-storage backend
// implements. Callers never talk to S3, the local filesystem, or the CDN
// directly — only through this interface — so swapping backends is a
// config change, not a code change.
type Gateway interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	SignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	SignUpload(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)
}

// keyPattern allows only the characters a key built by BuildKey can ever
// contain — rejecting anything else closes off path traversal regardless
// of where a key string came from.
var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9/_.-]*[a-z0-9]$`)

// BuildKey lays out an org-scoped object key: <orgID>/<category>/<id>.<ext>.
// Every backend stores under this layout so a bucket or root directory can
// be shared across all orgs without ever leaking one org's objects into
// another's listing.
func BuildKey(orgID, category, id, ext string) (string, error) {
	key := path.Join(orgID, category, id)
	if ext != "" {
		key += "." + ext
	}
	if !keyPattern.MatchString(key) {
		return "", apperrors.Validation("invalid_storage_key", "generated storage key contains disallowed characters")
	}
	if path.Clean(key) != key {
		return "", apperrors.Validation("invalid_storage_key", "generated storage key is not already clean")
	}
	return key, nil
}

// BuildPhotoKey lays out a photo object key as orders/<orgID>/<bookingID>/
// <photoID>.<ext>, the fixed layout spec'd for photo evidence so every
// backend groups a job's photos under one listable prefix. bookingID is
// "unassigned" for a photo attached only to a lead, not yet a booking.
func BuildPhotoKey(orgID, bookingID, photoID, ext string) (string, error) {
	if bookingID == "" {
		bookingID = "unassigned"
	}
	key := path.Join("orders", orgID, bookingID, photoID)
	if ext != "" {
		key += "." + ext
	}
	if !keyPattern.MatchString(key) {
		return "", apperrors.Validation("invalid_storage_key", "generated storage key contains disallowed characters")
	}
	if path.Clean(key) != key {
		return "", apperrors.Validation("invalid_storage_key", "generated storage key is not already clean")
	}
	return key, nil
}

// ValidateKeyOwnership rejects any key that doesn't live under orgID's
// prefix — either <orgID>/... from BuildKey or orders/<orgID>/... from
// BuildPhotoKey — the last line of defense if a caller ever passes through
// a client-supplied key.
func ValidateKeyOwnership(key, orgID string) error {
	direct := orgID + "/"
	nested := "orders/" + orgID + "/"
	owned := (len(key) > len(direct) && key[:len(direct)] == direct) ||
		(len(key) > len(nested) && key[:len(nested)] == nested)
	if !owned {
		return apperrors.Forbidden("storage_key_not_owned", "storage key does not belong to this organization")
	}
	if !keyPattern.MatchString(key) {
		return apperrors.Validation("invalid_storage_key", "storage key contains disallowed characters")
	}
	return nil
}

// ClampTTL enforces the configured default/ceiling pair: a caller-requested
// TTL of zero falls back to the default, and a too-long request never
// exceeds the ceiling rather than erroring.
func ClampTTL(requested, def, ceiling time.Duration) time.Duration {
	if requested <= 0 {
		return def
	}
	if requested > ceiling {
		return ceiling
	}
	return requested
}

// unsupportedBackend builds the error New returns when Config.Backend
// doesn't match a compiled-in gateway.
func unsupportedBackend(name string) error {
	return fmt.Errorf("storage: unsupported backend %q", name)
}
