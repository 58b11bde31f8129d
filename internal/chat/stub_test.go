package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalParserWalksCursorOrder(t *testing.T) {
	p := LocalParser{}

	reply, err := p.ParseTurn(Turn{Message: "1200"})
	assert.NoError(t, err)
	assert.Equal(t, "bedrooms", reply.State.Cursor)
	assert.Equal(t, 1200, reply.State.Inputs.SquareFeet)
	assert.False(t, reply.State.Done)

	reply, err = p.ParseTurn(Turn{Message: "3", State: reply.State})
	assert.NoError(t, err)
	assert.Equal(t, "bathrooms", reply.State.Cursor)
	assert.Equal(t, 3, reply.State.Inputs.Bedrooms)

	reply, err = p.ParseTurn(Turn{Message: "2", State: reply.State})
	assert.NoError(t, err)
	assert.Equal(t, "service_type", reply.State.Cursor)
	assert.Equal(t, 2, reply.State.Inputs.Bathrooms)

	reply, err = p.ParseTurn(Turn{Message: "deep", State: reply.State})
	assert.NoError(t, err)
	assert.Equal(t, "done", reply.State.Cursor)
	assert.Equal(t, "deep", reply.State.Inputs.ServiceType)
	assert.True(t, reply.State.Done)
	assert.True(t, reply.ReadyForEstimate)
}

func TestLocalParserNonNumericMessageKeepsFallback(t *testing.T) {
	p := LocalParser{}
	state := State{Cursor: "square_feet"}
	state.Inputs.SquareFeet = 900

	reply, err := p.ParseTurn(Turn{Message: "not a number", State: state})
	assert.NoError(t, err)
	assert.Equal(t, 900, reply.State.Inputs.SquareFeet, "malformed numeric input should not clobber the existing value")
	assert.Equal(t, "bedrooms", reply.State.Cursor)
}

func TestLocalParserEmptyCursorDefaultsToFirstQuestion(t *testing.T) {
	p := LocalParser{}
	reply, err := p.ParseTurn(Turn{Message: "800"})
	assert.NoError(t, err)
	assert.Equal(t, 800, reply.State.Inputs.SquareFeet)
}
