package pricing

import "encoding/json"

// LocalEvaluator is a deterministic placeholder Evaluator for deployments
// that haven't wired a real pricing engine behind the contract yet. It
// prices by square footage and room count off a config blob shaped like
// {"base_cents":..., "per_sqft_cents":..., "per_room_cents":...}, with
// defaults if the blob is empty or missing a field — never a modeling
// attempt at real cleaning-service pricing.
type LocalEvaluator struct{}

type localConfig struct {
	BaseCents      int64 `json:"base_cents"`
	PerSqftCents   int64 `json:"per_sqft_cents"`
	PerRoomCents   int64 `json:"per_room_cents"`
}

func (LocalEvaluator) Evaluate(cfg json.RawMessage, in Inputs) (Estimate, error) {
	parsed := localConfig{BaseCents: 5000, PerSqftCents: 8, PerRoomCents: 1500}
	if len(cfg) > 0 {
		_ = json.Unmarshal(cfg, &parsed)
	}

	rooms := in.Bedrooms + in.Bathrooms
	total := parsed.BaseCents + int64(in.SquareFeet)*parsed.PerSqftCents + int64(rooms)*parsed.PerRoomCents
	for range in.AddOns {
		total += parsed.PerRoomCents
	}

	breakdown, err := json.Marshal(map[string]interface{}{
		"base_cents":     parsed.BaseCents,
		"sqft_cents":     int64(in.SquareFeet) * parsed.PerSqftCents,
		"room_cents":     int64(rooms) * parsed.PerRoomCents,
		"add_on_cents":   int64(len(in.AddOns)) * parsed.PerRoomCents,
		"service_type":   in.ServiceType,
	})
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{TotalCents: total, Breakdown: breakdown, Version: "local-v1"}, nil
}
