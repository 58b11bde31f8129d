package ids

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	digits = "0123456789"
	alnum  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// New generates an ID of the form: one-letter prefix, 2 random digits, then
// enough random alphanumerics to reach total length n. Callers pass the
// primaryKey column width as n so the generated ID always fills its column
// (char16 entities use n=16, the longer-lived session/outbox/audit IDs use
// n=20).
func New(prefix string, n int) (string, error) {
	if len(prefix) != 1 {
		return "", fmt.Errorf("ids: prefix must be exactly one character, got %q", prefix)
	}
	tail := n - 3
	if tail < 1 {
		return "", fmt.Errorf("ids: n=%d too small for prefix+2 digits", n)
	}
	twoDigits, err := gonanoid.Generate(digits, 2)
	if err != nil {
		return "", fmt.Errorf("generate digits: %w", err)
	}
	rest, err := gonanoid.Generate(alnum, tail)
	if err != nil {
		return "", fmt.Errorf("generate alnum: %w", err)
	}
	return strings.ToLower(prefix) + twoDigits + rest, nil
}

// Prefixes used across the domain's entity IDs, kept in one place so a
// lookup at an incident never has to guess what table an ID belongs to.
const (
	PrefixOrg        = "o"
	PrefixUser       = "u"
	PrefixMembership = "m"
	PrefixSession    = "s"
	PrefixLead       = "l"
	PrefixTeam       = "t"
	PrefixBooking    = "b"
	PrefixInvoice    = "i"
	PrefixInvoiceItem = "n"
	PrefixPayment    = "p"
	PrefixPhoto      = "h"
	PrefixReferral   = "r"
	PrefixOutbox     = "x"
	PrefixAudit      = "a"
)
