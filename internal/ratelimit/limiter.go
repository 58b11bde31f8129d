package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cleanco/platform/pkg/apperrors"
)

// Store counts requests within a fixed window, keyed by an arbitrary
// string the caller builds from (client identity, route group).
type Store interface {
	// Incr increments the counter for key, setting its expiry to window if
	// this is the first increment in the window, and returns the count
	// after incrementing.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// MemoryStore is the in-process fallback: a mutex-guarded map of fixed
// windows. Used standalone in single-instance deployments, and as the
// fail-open backstop when the shared store is unreachable.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: map[string]*bucket{}}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	b, ok := s.buckets[key]
	if !ok || now.After(b.expiresAt) {
		b = &bucket{count: 0, expiresAt: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++
	return b.count, nil
}

// sweep drops expired buckets so long-running processes don't accumulate
// one entry per distinct key forever. Call periodically from the scheduler.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, b := range s.buckets {
		if now.After(b.expiresAt) {
			delete(s.buckets, k)
		}
	}
}

// RedisStore backs the counter with a shared INCR+EXPIRE pair, so limits
// are enforced consistently across all API instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// FailOpenStore wraps a shared Store (normally Redis) and falls back to an
// in-process MemoryStore when the shared store errors, logging the
// degradation rather than rejecting or silently admitting every request.
type FailOpenStore struct {
	shared   Store
	fallback *MemoryStore
	log      *zap.Logger
}

func NewFailOpenStore(shared Store, log *zap.Logger) *FailOpenStore {
	return &FailOpenStore{shared: shared, fallback: NewMemoryStore(), log: log}
}

func (s *FailOpenStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.shared.Incr(ctx, key, window)
	if err != nil {
		s.log.Warn("ratelimit: shared store unavailable, falling back to per-instance counting",
			zap.Error(err))
		return s.fallback.Incr(ctx, key, window)
	}
	return count, nil
}

// Limiter enforces a per-minute request budget per (identity, route
// group) pair.
type Limiter struct {
	store          Store
	perMinute      int
	trustedProxies []*net.IPNet
}

func New(store Store, perMinute int, trustedProxyCIDRs []string) (*Limiter, error) {
	nets := make([]*net.IPNet, 0, len(trustedProxyCIDRs))
	for _, cidr := range trustedProxyCIDRs {
		if !strings.Contains(cidr, "/") {
			if strings.Contains(cidr, ":") {
				cidr += "/128"
			} else {
				cidr += "/32"
			}
		}
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("ratelimit: invalid trusted proxy cidr %q: %w", cidr, err)
		}
		nets = append(nets, n)
	}
	return &Limiter{store: store, perMinute: perMinute, trustedProxies: nets}, nil
}

// ClientIP resolves the request's client address, honoring X-Forwarded-For
// only when the immediate peer is a configured trusted proxy — otherwise a
// client could spoof the header to dodge its own limit.
func (l *Limiter) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil || !l.isTrustedProxy(peer) {
		return host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	return host
}

func (l *Limiter) isTrustedProxy(ip net.IP) bool {
	for _, n := range l.trustedProxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Middleware rejects requests over budget for the given route group with
// 429. identity, when non-empty (e.g. an authenticated principal ID),
// takes precedence over the resolved client IP so authenticated callers
// are limited per-account rather than per-NAT-address.
func (l *Limiter) Middleware(routeGroup string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := c.Get("ratelimit_identity")
			key := l.ClientIP(c.Request())
			if s, ok := identity.(string); ok && s != "" {
				key = s
			}
			bucketKey := fmt.Sprintf("ratelimit:%s:%s", routeGroup, key)

			count, err := l.store.Incr(c.Request().Context(), bucketKey, time.Minute)
			if err != nil {
				return next(c)
			}
			if int(count) > l.perMinute {
				return apperrors.Newf(apperrors.KindRateLimited, "rate_limit_exceeded",
					fmt.Sprintf("too many requests for %s, try again shortly", routeGroup))
			}
			return next(c)
		}
	}
}
