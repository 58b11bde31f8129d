package adminsafety

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGateParsesCIDRsAndBareIPs(t *testing.T) {
	g, err := NewGate([]string{"10.0.0.0/8", "203.0.113.5"}, nil)
	require.NoError(t, err)
	require.Len(t, g.Allowlist, 2)

	assert.True(t, g.allowed(net.ParseIP("10.1.2.3")))
	assert.True(t, g.allowed(net.ParseIP("203.0.113.5")))
	assert.False(t, g.allowed(net.ParseIP("203.0.113.6")))
}

func TestNewGateEmptyAllowlistAllowsEverything(t *testing.T) {
	g, err := NewGate(nil, nil)
	require.NoError(t, err)
	assert.True(t, g.allowed(net.ParseIP("8.8.8.8")))
}

func TestNewGateRejectsGarbageEntry(t *testing.T) {
	_, err := NewGate([]string{"not-an-ip-or-cidr"}, nil)
	assert.Error(t, err)
}

func TestSetReadOnlyTogglesFlag(t *testing.T) {
	g, err := NewGate(nil, nil)
	require.NoError(t, err)
	assert.False(t, g.ReadOnly)
	g.SetReadOnly(true)
	assert.True(t, g.ReadOnly)
}
