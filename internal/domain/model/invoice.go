package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
)

// Invoice is the append-only invoices table. StripeInvoiceID is unique and rows are never updated.
type Invoice struct {
	ID              string          `gorm:"column:id;primaryKey;size:36"`
	ClientID        string          `gorm:"column:client_id;size:36;not null;index"`
	StripeInvoiceID string          `gorm:"column:stripe_invoice_id;size:100;not null;uniqueIndex"`
	AmountPaid      decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;not null"`
	Status          string          `gorm:"column:status;size:50"`
	InvoicePDF      *string         `gorm:"column:invoice_pdf"`
}

// TableName specifies the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// BeforeCreate assigns a UUID when the row has none
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// NewInvoice builds the row for a client from a domain invoice
func NewInvoice(clientID string, record entity.InvoiceRecord) *Invoice {
	inv := &Invoice{
		ClientID:        clientID,
		StripeInvoiceID: record.ExternalID,
		AmountPaid:      record.AmountPaid,
		CreatedAt:       record.CreatedAt.UTC(),
		Status:          record.Status,
	}
	if record.DocumentURL != "" {
		pdf := record.DocumentURL
		inv.InvoicePDF = &pdf
	}
	return inv
}
