package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildKey(t *testing.T) {
	key, err := BuildKey("o12abc3456789012", "invoices", "i99xyz0000000001", "pdf")
	assert.NoError(t, err)
	assert.Equal(t, "o12abc3456789012/invoices/i99xyz0000000001.pdf", key)
}

func TestBuildKeyWithoutExtension(t *testing.T) {
	key, err := BuildKey("o12abc3456789012", "misc", "x", "")
	assert.NoError(t, err)
	assert.Equal(t, "o12abc3456789012/misc/x", key)
}

func TestBuildKeyRejectsPathTraversal(t *testing.T) {
	_, err := BuildKey("../etc", "invoices", "passwd", "")
	assert.Error(t, err)
}

func TestBuildPhotoKeyDefaultsUnassignedBooking(t *testing.T) {
	key, err := BuildPhotoKey("o12abc3456789012", "", "h00photo00000001", "jpg")
	assert.NoError(t, err)
	assert.Equal(t, "orders/o12abc3456789012/unassigned/h00photo00000001.jpg", key)
}

func TestBuildPhotoKeyWithBooking(t *testing.T) {
	key, err := BuildPhotoKey("o12abc3456789012", "b77bk0000000001", "h00photo00000001", "png")
	assert.NoError(t, err)
	assert.Equal(t, "orders/o12abc3456789012/b77bk0000000001/h00photo00000001.png", key)
}

func TestClampTTL(t *testing.T) {
	t.Run("non-positive requested falls back to default", func(t *testing.T) {
		assert.Equal(t, time.Hour, ClampTTL(0, time.Hour, 24*time.Hour))
		assert.Equal(t, time.Hour, ClampTTL(-time.Minute, time.Hour, 24*time.Hour))
	})

	t.Run("requested within ceiling passes through", func(t *testing.T) {
		assert.Equal(t, 2*time.Hour, ClampTTL(2*time.Hour, time.Hour, 24*time.Hour))
	})

	t.Run("requested above ceiling is clamped", func(t *testing.T) {
		assert.Equal(t, 24*time.Hour, ClampTTL(48*time.Hour, time.Hour, 24*time.Hour))
	})
}
