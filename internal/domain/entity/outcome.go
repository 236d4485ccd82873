package entity

// Outcome is the result of one keyed write
type Outcome string

const (
	OutcomeUpdated  Outcome = "updated"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "error"
)

// UpsertResult replaces exception-driven skips with an explicit outcome
type UpsertResult struct {
	Outcome          Outcome
	ClientID         string
	InvoicesInserted int
	InvoiceErrors    int
	Err              error
}

// ReconciledEntry pairs one identity with its resolved billing summary
type ReconciledEntry struct {
	Contact ContactRecord       `json:"contact" yaml:"contact"`
	Summary SubscriptionSummary `json:"summary" yaml:"summary"`
}

// Email returns the canonical join key of the entry
func (e ReconciledEntry) Email() string {
	if e.Contact.CanonicalEmail != "" {
		return e.Contact.CanonicalEmail
	}
	return e.Summary.Email
}
