package entity

// ContactSource identifies which upstream system produced a contact
type ContactSource string

const (
	SourceClerk   ContactSource = "clerk"
	SourceHubSpot ContactSource = "hubspot"
	SourceStripe  ContactSource = "stripe"
)

// ContactRecord is one upstream identity after normalization.
// CanonicalEmail is the join key across every source; records without one never reach the join.
type ContactRecord struct {
	Source          ContactSource `json:"source"`
	ExternalID      string        `json:"external_id"`
	CanonicalEmail  string        `json:"email"`
	NormalizedPhone string        `json:"phone,omitempty"`
}
