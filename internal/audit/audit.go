package audit

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/ids"
	"github.com/cleanco/platform/pkg/logging"
)

var logs store.AuditLogs

// Event is an append-only security/billing-relevant action. Detail values
// go through logging.Redact before they're serialized so a PII leak can't
// slip in through a field nobody thought to scrub.
type Event struct {
	RequestID     string
	PrincipalKind tenant.PrincipalKind
	PrincipalID   string
	Event         string
	TargetType    string
	TargetID      string
	Detail        map[string]string
}

func Write(tx *gorm.DB, orgID string, e Event) error {
	redacted := make(map[string]string, len(e.Detail))
	for k, v := range e.Detail {
		redacted[k] = logging.Redact(v)
	}
	detail, err := json.Marshal(redacted)
	if err != nil {
		return err
	}

	id, err := ids.New(ids.PrefixAudit, 20)
	if err != nil {
		return err
	}

	return logs.Create(tx, &models.AuditLog{
		ID:            id,
		OrgID:         orgID,
		RequestID:     e.RequestID,
		PrincipalKind: string(e.PrincipalKind),
		PrincipalID:   e.PrincipalID,
		Event:         e.Event,
		TargetType:    e.TargetType,
		TargetID:      e.TargetID,
		Detail:        detail,
	})
}
