package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatusPaid is the only invoice status the ledger records
const InvoiceStatusPaid = "paid"

// Billing reasons that mark an invoice as a subscription charge
const (
	BillingReasonSubscriptionCreate = "subscription_create"
	BillingReasonSubscriptionCycle  = "subscription_cycle"
)

// InvoiceRecord is one invoice as written to the append-only invoice ledger.
// ExternalID is the processor-assigned id and the dedup key.
type InvoiceRecord struct {
	ExternalID    string          `json:"id" yaml:"id"`
	AmountPaid    decimal.Decimal `json:"amount_paid" yaml:"amount_paid"`
	CreatedAt     time.Time       `json:"created_at" yaml:"created_at"`
	Status        string          `json:"status" yaml:"status"`
	DocumentURL   string          `json:"invoice_pdf,omitempty" yaml:"invoice_pdf,omitempty"`
	BillingReason string          `json:"billing_reason,omitempty" yaml:"billing_reason,omitempty"`
}

// AmountFromMinorUnits converts an integer minor-unit amount (cents) to currency units
func AmountFromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// IsSubscriptionCharge reports whether the invoice was raised by a subscription
// rather than a one-off or manual charge
func (i InvoiceRecord) IsSubscriptionCharge() bool {
	return i.BillingReason == BillingReasonSubscriptionCreate ||
		i.BillingReason == BillingReasonSubscriptionCycle
}

// IsLedgerEntry reports whether the invoice may be appended to the ledger.
// Ledger rows are never rewritten, so only settled subscription charges qualify.
func (i InvoiceRecord) IsLedgerEntry() bool {
	return i.Status == InvoiceStatusPaid && i.IsSubscriptionCharge()
}
