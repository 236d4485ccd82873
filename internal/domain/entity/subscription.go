package entity

import (
	"time"
)

// SubscriptionStatus is the resolved billing state of one customer
type SubscriptionStatus string

const (
	StatusActive         SubscriptionStatus = "active"
	StatusTrialing       SubscriptionStatus = "trialing"
	StatusPastDue        SubscriptionStatus = "past_due"
	StatusCanceled       SubscriptionStatus = "canceled"
	StatusNoSubscription SubscriptionStatus = "no_subscription"
	StatusNotInSource    SubscriptionStatus = "not_in_source"
	StatusError          SubscriptionStatus = "error"
)

// DateLayout is the calendar-date format used for last payment dates
const DateLayout = "2006-01-02"

// SubscriptionSummary is the authoritative billing view of one payment-processor customer.
// It is rebuilt every run and replaced wholesale in the target store.
type SubscriptionSummary struct {
	CustomerID     string             `json:"customer_id,omitempty" yaml:"customer_id,omitempty"`
	Email          string             `json:"email" yaml:"email"`
	Status         SubscriptionStatus `json:"status" yaml:"status"`
	ProductName    string             `json:"product,omitempty" yaml:"product,omitempty"`
	PlanIdentifier string             `json:"plan,omitempty" yaml:"plan,omitempty"`
	LastPaidDate   *time.Time         `json:"last_paid_date,omitempty" yaml:"last_paid_date,omitempty"`
	Invoices       []InvoiceRecord    `json:"invoices,omitempty" yaml:"invoices,omitempty"`
}

// NotInSourceSummary is the sentinel for an identity the payment processor does not know
func NotInSourceSummary(email string) SubscriptionSummary {
	return SubscriptionSummary{
		Email:  email,
		Status: StatusNotInSource,
	}
}

// LastPaid formats the last payment date, or returns "" when unknown
func (s SubscriptionSummary) LastPaid() string {
	if s.LastPaidDate == nil {
		return ""
	}
	return s.LastPaidDate.UTC().Format(DateLayout)
}

// SubscriptionFields is the column set the persistence engine owns on a client.
// A nil pointer is written as an explicit NULL.
type SubscriptionFields struct {
	Status          *string
	Product         *string
	Plan            *string
	LastPaymentDate *time.Time
}

// Fields projects the summary onto the persisted subscription columns.
// not_in_source and empty values clear the column so stale state does not survive.
func (s SubscriptionSummary) Fields() SubscriptionFields {
	fields := SubscriptionFields{
		Product: nullable(s.ProductName),
		Plan:    nullable(s.PlanIdentifier),
	}
	if s.Status != StatusNotInSource {
		fields.Status = nullable(string(s.Status))
	}
	if s.LastPaidDate != nil {
		date := time.Date(s.LastPaidDate.Year(), s.LastPaidDate.Month(), s.LastPaidDate.Day(), 0, 0, 0, 0, time.UTC)
		fields.LastPaymentDate = &date
	}
	return fields
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
