package provider

import (
	"context"
	"time"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
)

// ContactSource is an identity adapter (authentication provider, CRM)
type ContactSource interface {
	// FetchAll pulls every record, normalizing email and phone.
	// Records without an email are dropped. Any non-2xx response fails the whole fetch.
	FetchAll(ctx context.Context) ([]entity.ContactRecord, error)

	// Name returns the source identifier
	Name() entity.ContactSource
}

// BillingGateway defines the read operations needed from a payment processor
type BillingGateway interface {
	// ListCustomers returns every customer, following the processor's cursor
	ListCustomers(ctx context.Context) ([]Customer, error)

	// ListSubscriptions returns a bounded page of a customer's subscriptions, canceled ones included
	ListSubscriptions(ctx context.Context, customerID string) ([]Subscription, error)

	// ListInvoices returns a bounded page of a customer's invoices
	ListInvoices(ctx context.Context, customerID string, filter InvoiceFilter) ([]entity.InvoiceRecord, error)

	// GetProductName looks up one product's display name
	GetProductName(ctx context.Context, productID string) (string, error)

	// FindCustomerByEmail returns the first customer with the email, or nil when none exists
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// Customer is a payment-processor customer
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Subscription is the provider-neutral view of one subscription
type Subscription struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	PlanNickname string    `json:"plan_nickname,omitempty"`
	PriceID      string    `json:"price_id,omitempty"`
	ProductID    string    `json:"product_id,omitempty"`
	// LatestInvoicePaidAt is when the most recent invoice was paid, if it was
	LatestInvoicePaidAt *time.Time `json:"latest_invoice_paid_at,omitempty"`
}

// PlanIdentifier returns the plan nickname, falling back to the raw price id
func (s Subscription) PlanIdentifier() string {
	if s.PlanNickname != "" {
		return s.PlanNickname
	}
	return s.PriceID
}

// InvoiceFilter narrows an invoice listing
type InvoiceFilter struct {
	// Status is a processor invoice status such as "paid"; empty lists all
	Status string
	Limit  int64
}

// ProductCache remembers product names across customers
type ProductCache interface {
	Get(ctx context.Context, productID string) (string, bool)
	Set(ctx context.Context, productID, name string)
}

// ProviderType represents the type of payment provider
type ProviderType string

const (
	ProviderTypeStripe ProviderType = "stripe"
)
