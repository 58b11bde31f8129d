package photos

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleanco/platform/internal/models"
)

func TestMimeAllowed(t *testing.T) {
	allowlist := []string{"image/jpeg", "image/png"}

	assert.True(t, mimeAllowed("image/jpeg", allowlist))
	assert.True(t, mimeAllowed("IMAGE/JPEG", allowlist), "mime comparison is case-insensitive")
	assert.False(t, mimeAllowed("image/gif", allowlist))
	assert.False(t, mimeAllowed("", allowlist))
}

func TestExtFromMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", "jpg"},
		{"image/png", "png"},
		{"image/webp", "webp"},
		{"image/heic", "heic"},
		{"application/pdf", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extFromMIME(tt.mime), "mime %q", tt.mime)
	}
}

func TestCanView(t *testing.T) {
	assert.True(t, CanView(models.RoleOwner))
	assert.True(t, CanView(models.RoleDispatcher))
	assert.True(t, CanView(models.RoleViewer))
	assert.False(t, CanView(models.Role("")))
}
