package model

import (
	"time"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
)

// Client is the clients table. Rows are created by the onboarding workflow, not here.
type Client struct {
	ID                  string     `gorm:"column:id;primaryKey;size:36"`
	Name                string     `gorm:"column:name;size:255"`
	Email               string     `gorm:"column:email;size:255;index"`
	StripeCustomerID    *string    `gorm:"column:stripe_customer_id;size:100"`
	EmployeeID          *string    `gorm:"column:employee_id;size:36"`
	SubscriptionStatus  *string    `gorm:"column:subscription_status;size:50"`
	SubscriptionProduct *string    `gorm:"column:subscription_product;size:255"`
	SubscriptionPlan    *string    `gorm:"column:subscription_plan;size:255"`
	LastPaymentDate     *time.Time `gorm:"column:last_payment_date;type:date"`
}

// TableName specifies the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// ToEntity converts the row to its domain record
func (c *Client) ToEntity() entity.ClientRecord {
	return entity.ClientRecord{
		ID:                  c.ID,
		Name:                c.Name,
		Email:               c.Email,
		StripeCustomerID:    c.StripeCustomerID,
		EmployeeID:          c.EmployeeID,
		SubscriptionStatus:  c.SubscriptionStatus,
		SubscriptionProduct: c.SubscriptionProduct,
		SubscriptionPlan:    c.SubscriptionPlan,
		LastPaymentDate:     c.LastPaymentDate,
	}
}
