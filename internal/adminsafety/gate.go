package adminsafety

import (
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
)

// Gate is the admin safety posture: an IP allowlist, a read-only toggle
// (flipped during an incident so writes become a no-op 409 instead of
// reaching the database), and a break-glass escape hatch for when the
// allowlist itself is the problem.
type Gate struct {
	Allowlist []*net.IPNet
	ReadOnly  bool
	breakGlass *BreakGlass
}

func NewGate(cidrs []string, breakGlass *BreakGlass) (*Gate, error) {
	g := &Gate{breakGlass: breakGlass}
	for _, cidr := range cidrs {
		_, netw, err := net.ParseCIDR(cidr)
		if err != nil {
			ip := net.ParseIP(cidr)
			if ip == nil {
				return nil, apperrors.Wrap(apperrors.KindInternal, "invalid_admin_allowlist_entry", "could not parse admin IP allowlist entry", err)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			netw = &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}
		}
		g.Allowlist = append(g.Allowlist, netw)
	}
	return g, nil
}

func (g *Gate) allowed(ip net.IP) bool {
	if len(g.Allowlist) == 0 {
		return true
	}
	for _, netw := range g.Allowlist {
		if netw.Contains(ip) {
			return true
		}
	}
	return false
}

// IPAllowlistMiddleware rejects admin requests from an IP outside the
// allowlist unless the request carries a valid break-glass token, in which
// case it's let through and the bypass is audited by the caller.
func (g *Gate) IPAllowlistMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := net.ParseIP(c.RealIP())
			if ip != nil && g.allowed(ip) {
				return next(c)
			}
			if token := c.Request().Header.Get("X-Break-Glass-Token"); token != "" && g.breakGlass != nil {
				orgID := tenant.CurrentOrgID(c)
				if g.breakGlass.Verify(orgID, token) {
					c.Set("break_glass_used", true)
					return next(c)
				}
			}
			return apperrors.Forbidden("ip_not_allowlisted", "admin access is restricted to allowlisted IPs")
		}
	}
}

// ReadOnlyMiddleware turns every non-GET admin request into a 409 while the
// gate is in read-only mode, without touching the store at all. A valid
// break-glass token for the resolved org overrides the freeze; its use is
// expected to be audited by the caller via c.Get("break_glass_used").
func (g *Gate) ReadOnlyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !g.ReadOnly || c.Request().Method == http.MethodGet || c.Request().Method == http.MethodHead {
				return next(c)
			}
			if token := c.Request().Header.Get("X-Break-Glass-Token"); token != "" && g.breakGlass != nil {
				if g.breakGlass.Verify(tenant.CurrentOrgID(c), token) {
					c.Set("break_glass_used", true)
					return next(c)
				}
			}
			return apperrors.Conflict("admin_read_only", "admin writes are disabled during the current incident")
		}
	}
}

func (g *Gate) SetReadOnly(ro bool) { g.ReadOnly = ro }
