package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalGatewayPutReadDelete(t *testing.T) {
	g := NewLocalGateway(t.TempDir(), "signing-secret", "https://files.example.com")
	ctx := context.Background()

	assert.NoError(t, g.Put(ctx, "org1/photos/a.jpg", []byte("hello"), "image/jpeg"))

	data, err := g.Read("org1/photos/a.jpg")
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	assert.NoError(t, g.Delete(ctx, "org1/photos/a.jpg"))
	_, err = g.Read("org1/photos/a.jpg")
	assert.Error(t, err)
}

func TestLocalGatewayDeleteMissingKeyIsNotAnError(t *testing.T) {
	g := NewLocalGateway(t.TempDir(), "signing-secret", "https://files.example.com")
	assert.NoError(t, g.Delete(context.Background(), "org1/photos/never-existed.jpg"))
}

func TestLocalGatewaySignAndVerifyRoundTrip(t *testing.T) {
	g := NewLocalGateway(t.TempDir(), "signing-secret", "https://files.example.com")
	ctx := context.Background()

	signedURL, err := g.SignDownload(ctx, "org1/photos/a.jpg", time.Hour)
	assert.NoError(t, err)
	assert.Contains(t, signedURL, "https://files.example.com/org1/photos/a.jpg")

	exp := time.Now().Add(time.Hour).Unix()
	sig := g.sign("org1/photos/a.jpg", exp)
	assert.NoError(t, g.VerifyProxySignature("org1/photos/a.jpg", sig, exp))
}

func TestLocalGatewayVerifyRejectsExpiredSignature(t *testing.T) {
	g := NewLocalGateway(t.TempDir(), "signing-secret", "https://files.example.com")
	exp := time.Now().Add(-time.Minute).Unix()
	sig := g.sign("org1/photos/a.jpg", exp)
	err := g.VerifyProxySignature("org1/photos/a.jpg", sig, exp)
	assert.Error(t, err)
}

func TestLocalGatewayVerifyRejectsTamperedSignature(t *testing.T) {
	g := NewLocalGateway(t.TempDir(), "signing-secret", "https://files.example.com")
	exp := time.Now().Add(time.Hour).Unix()
	err := g.VerifyProxySignature("org1/photos/a.jpg", "not-the-real-signature", exp)
	assert.Error(t, err)
}

func TestLocalGatewayVerifyRejectsWrongKey(t *testing.T) {
	g := NewLocalGateway(t.TempDir(), "signing-secret", "https://files.example.com")
	exp := time.Now().Add(time.Hour).Unix()
	sig := g.sign("org1/photos/a.jpg", exp)
	err := g.VerifyProxySignature("org1/photos/b.jpg", sig, exp)
	assert.Error(t, err)
}
