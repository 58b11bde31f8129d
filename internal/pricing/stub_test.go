package pricing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalEvaluatorDefaultConfig(t *testing.T) {
	est, err := LocalEvaluator{}.Evaluate(nil, Inputs{SquareFeet: 1000, Bedrooms: 2, Bathrooms: 1})
	assert.NoError(t, err)
	// 5000 base + 1000*8 sqft + 3 rooms*1500
	assert.Equal(t, int64(5000+8000+4500), est.TotalCents)
	assert.Equal(t, "local-v1", est.Version)
}

func TestLocalEvaluatorCustomConfig(t *testing.T) {
	cfg, err := json.Marshal(map[string]int64{"base_cents": 1000, "per_sqft_cents": 1, "per_room_cents": 100})
	assert.NoError(t, err)

	est, err := LocalEvaluator{}.Evaluate(cfg, Inputs{SquareFeet: 500, Bedrooms: 1, Bathrooms: 1})
	assert.NoError(t, err)
	assert.Equal(t, int64(1000+500+200), est.TotalCents)
}

func TestLocalEvaluatorAddOnsIncreaseTotal(t *testing.T) {
	base, err := LocalEvaluator{}.Evaluate(nil, Inputs{SquareFeet: 500, Bedrooms: 1, Bathrooms: 1})
	assert.NoError(t, err)

	withAddOns, err := LocalEvaluator{}.Evaluate(nil, Inputs{SquareFeet: 500, Bedrooms: 1, Bathrooms: 1, AddOns: []string{"inside_fridge", "inside_oven"}})
	assert.NoError(t, err)

	assert.Greater(t, withAddOns.TotalCents, base.TotalCents)
	assert.Equal(t, base.TotalCents+2*1500, withAddOns.TotalCents)
}

func TestLocalEvaluatorMalformedConfigFallsBackToDefaults(t *testing.T) {
	est, err := LocalEvaluator{}.Evaluate(json.RawMessage(`not json`), Inputs{SquareFeet: 100})
	assert.NoError(t, err)
	assert.Equal(t, int64(5000+800), est.TotalCents)
}

func TestConfigStoreGetSet(t *testing.T) {
	s := NewConfigStore(nil)
	assert.Nil(t, s.Get())

	blob := json.RawMessage(`{"base_cents":1}`)
	s.Set(blob)
	assert.Equal(t, blob, s.Get())
}
