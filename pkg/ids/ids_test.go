package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducesExpectedLengthAndPrefix(t *testing.T) {
	id, err := New(PrefixBooking, 16)
	assert.NoError(t, err)
	assert.Len(t, id, 16)
	assert.True(t, strings.HasPrefix(id, PrefixBooking))
}

func TestNewIsLowercase(t *testing.T) {
	id, err := New("U", 16)
	assert.NoError(t, err)
	assert.Equal(t, strings.ToLower(id), id)
}

func TestNewRejectsMultiCharPrefix(t *testing.T) {
	_, err := New("ab", 16)
	assert.Error(t, err)
}

func TestNewRejectsTooSmallLength(t *testing.T) {
	_, err := New(PrefixUser, 3)
	assert.Error(t, err)
}

func TestNewProducesUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := New(PrefixOutbox, 20)
		assert.NoError(t, err)
		assert.False(t, seen[id], "collision generating id %s", id)
		seen[id] = true
	}
}

func TestPrefixesAreSingleCharacter(t *testing.T) {
	prefixes := []string{
		PrefixOrg, PrefixUser, PrefixMembership, PrefixSession, PrefixLead,
		PrefixTeam, PrefixBooking, PrefixInvoice, PrefixInvoiceItem,
		PrefixPayment, PrefixPhoto, PrefixReferral, PrefixOutbox, PrefixAudit,
	}
	for _, p := range prefixes {
		assert.Len(t, p, 1, "prefix %q must be a single character", p)
	}
}
