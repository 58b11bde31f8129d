package tenant

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// PrincipalKind enumerates the four ways a request can authenticate.
// Precedence when more than one credential is present is highest-privilege
// first: admin beats worker beats org-user beats client.
type PrincipalKind string

const (
	PrincipalAdmin    PrincipalKind = "admin"
	PrincipalWorker   PrincipalKind = "worker"
	PrincipalOrgUser  PrincipalKind = "org_user"
	PrincipalClient   PrincipalKind = "client"
	PrincipalAnonymous PrincipalKind = "anonymous"
)

// Principal is the resolved identity of the caller, attached to the Echo
// context by the auth middleware chain before tenant resolution runs.
type Principal struct {
	Kind      PrincipalKind
	OrgID     string
	UserID    string
	Role      string
	SessionID string

	// ClientToken is the raw magic-link token for a PrincipalClient. The
	// token itself names the booking it grants access to (resolveClient
	// runs before a transaction is open, so it can't be resolved to a
	// row yet); client-portal handlers look the booking up by this value.
	ClientToken string
}

const (
	txKey        = "tx"
	orgIDKey     = "org_id"
	principalKey = "principal"
)

// WithTx starts a transaction and stashes it on the Echo context, committing
// on a nil handler error and rolling back otherwise — including on panic.
func WithTx(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tx := db.Begin()
			if tx.Error != nil {
				return tx.Error
			}
			c.Set(txKey, tx)

			defer func() {
				if r := recover(); r != nil {
					tx.Rollback()
					panic(r)
				}
			}()

			if err := next(c); err != nil {
				tx.Rollback()
				return err
			}
			return tx.Commit().Error
		}
	}
}

// Tx retrieves the request-scoped transaction. Every store call inside a
// handler must go through it so that org-scoping and rollback-on-error stay
// uniform.
func Tx(c echo.Context) (*gorm.DB, error) {
	tx, ok := c.Get(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return nil, errors.New("tenant: transaction not found in context")
	}
	return tx, nil
}

// TxFromContext is the context.Context equivalent of Tx, for code paths
// (outbox handlers, scheduler jobs) that run outside an Echo request.
func TxFromContext(ctx context.Context) (*gorm.DB, error) {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return nil, errors.New("tenant: transaction not found in context")
	}
	return tx, nil
}

func SetPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
	c.Set(orgIDKey, p.OrgID)
}

func CurrentPrincipal(c echo.Context) Principal {
	p, ok := c.Get(principalKey).(Principal)
	if !ok {
		return Principal{Kind: PrincipalAnonymous}
	}
	return p
}

func CurrentOrgID(c echo.Context) string {
	orgID, _ := c.Get(orgIDKey).(string)
	return orgID
}
