package entity

import "time"

// ClientRecord is the persisted client profile in the target store.
// Only subscription fields and the processor customer id are written by this service;
// EmployeeID and profile fields belong to other workflows.
type ClientRecord struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	StripeCustomerID    *string    `json:"stripe_customer_id"`
	EmployeeID          *string    `json:"employee_id"`
	SubscriptionStatus  *string    `json:"subscription_status"`
	SubscriptionProduct *string    `json:"subscription_product"`
	SubscriptionPlan    *string    `json:"subscription_plan"`
	LastPaymentDate     *time.Time `json:"-"`
}

// HasStripeCustomer reports whether the client is linked to a processor customer
func (c ClientRecord) HasStripeCustomer() bool {
	return c.StripeCustomerID != nil && *c.StripeCustomerID != ""
}
