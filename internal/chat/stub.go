package chat

// LocalParser is a deterministic placeholder Parser that walks a fixed
// question order until every Inputs field the pricing evaluator needs is
// filled, for deployments that haven't wired a real intent parser behind
// the contract yet. It does no natural-language understanding: Message is
// only used to fill whichever field Cursor currently points at.
type LocalParser struct{}

var cursorOrder = []string{"square_feet", "bedrooms", "bathrooms", "service_type", "done"}

func (LocalParser) ParseTurn(t Turn) (Reply, error) {
	state := t.State
	if state.Cursor == "" {
		state.Cursor = cursorOrder[0]
	}

	switch state.Cursor {
	case "square_feet":
		state.Inputs.SquareFeet = parseIntOr(t.Message, state.Inputs.SquareFeet)
	case "bedrooms":
		state.Inputs.Bedrooms = parseIntOr(t.Message, state.Inputs.Bedrooms)
	case "bathrooms":
		state.Inputs.Bathrooms = parseIntOr(t.Message, state.Inputs.Bathrooms)
	case "service_type":
		if t.Message != "" {
			state.Inputs.ServiceType = t.Message
		}
	}

	next := advanceCursor(state.Cursor)
	state.Cursor = next
	state.Done = next == "done"

	return Reply{
		Text:             promptFor(next),
		State:            state,
		ReadyForEstimate: state.Done,
	}, nil
}

func advanceCursor(current string) string {
	for i, c := range cursorOrder {
		if c == current && i+1 < len(cursorOrder) {
			return cursorOrder[i+1]
		}
	}
	return "done"
}

func promptFor(cursor string) string {
	switch cursor {
	case "bedrooms":
		return "How many bedrooms?"
	case "bathrooms":
		return "How many bathrooms?"
	case "service_type":
		return "What type of cleaning would you like — standard, deep, or move-out?"
	case "done":
		return "Thanks — I have what I need for an estimate."
	default:
		return "About how many square feet is the home?"
	}
}

func parseIntOr(s string, fallback int) int {
	n := 0
	any := false
	for _, r := range s {
		if r < '0' || r > '9' {
			return fallback
		}
		any = true
		n = n*10 + int(r-'0')
	}
	if !any {
		return fallback
	}
	return n
}
