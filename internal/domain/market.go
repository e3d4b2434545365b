package domain

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "ACTIVE"
	MarketStatusClosed   MarketStatus = "CLOSED"
	MarketStatusResolved MarketStatus = "RESOLVED"
)

// Outcome is one side of a market (e.g. YES or NO) with its ERC-1155 token.
type Outcome struct {
	ID      string
	Label   string
	TokenID string
}

// Market is a Lume prediction market with its outcomes.
type Market struct {
	ID          string
	Slug        string
	Question    string
	ConditionID string
	NegRisk     bool
	Status      MarketStatus
	Outcomes    []Outcome
}

// OutcomeByLabel returns the outcome whose label matches (case-insensitive
// comparison is the caller's job; labels from the API are upper-case).
// The second return is false when no outcome carries the label.
func (m Market) OutcomeByLabel(label string) (Outcome, bool) {
	for _, o := range m.Outcomes {
		if o.Label == label {
			return o, true
		}
	}
	return Outcome{}, false
}

// OutcomeByID returns the outcome with the given id.
func (m Market) OutcomeByID(id string) (Outcome, bool) {
	for _, o := range m.Outcomes {
		if o.ID == id {
			return o, true
		}
	}
	return Outcome{}, false
}
