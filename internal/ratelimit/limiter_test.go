package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIncrementsWithinWindow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	c1, err := s.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	c2, err := s.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, int64(1), c1)
	assert.Equal(t, int64(2), c2)
}

func TestMemoryStoreResetsAfterWindowExpires(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Incr(ctx, "k", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	count, err := s.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStoreSweepDropsExpiredBuckets(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Incr(ctx, "expired", time.Millisecond)
	require.NoError(t, err)
	_, err = s.Incr(ctx, "fresh", time.Hour)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	s.Sweep()

	s.mu.Lock()
	_, expiredStillThere := s.buckets["expired"]
	_, freshStillThere := s.buckets["fresh"]
	s.mu.Unlock()

	assert.False(t, expiredStillThere)
	assert.True(t, freshStillThere)
}

func TestNewRejectsInvalidTrustedProxyCIDR(t *testing.T) {
	_, err := New(NewMemoryStore(), 60, []string{"not-a-cidr!!"})
	assert.Error(t, err)
}

func TestNewNormalizesBareIPsToHostCIDR(t *testing.T) {
	l, err := New(NewMemoryStore(), 60, []string{"10.0.0.1", "::1"})
	require.NoError(t, err)
	require.Len(t, l.trustedProxies, 2)
}

func TestClientIPUsesRemoteAddrWhenNotTrustedProxy(t *testing.T) {
	l, err := New(NewMemoryStore(), 60, []string{"10.0.0.0/8"})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")

	assert.Equal(t, "203.0.113.9", l.ClientIP(req))
}

func TestClientIPTrustsForwardedForFromTrustedProxy(t *testing.T) {
	l, err := New(NewMemoryStore(), 60, []string{"10.0.0.0/8"})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")

	assert.Equal(t, "203.0.113.9", l.ClientIP(req))
}

func TestClientIPFallsBackWhenNoForwardedForHeader(t *testing.T) {
	l, err := New(NewMemoryStore(), 60, []string{"10.0.0.0/8"})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"

	assert.Equal(t, "10.1.2.3", l.ClientIP(req))
}
