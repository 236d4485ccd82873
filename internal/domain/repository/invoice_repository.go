package repository

import (
	"context"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
)

// InvoiceRepository is the append-only invoice ledger
type InvoiceRepository interface {
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	Insert(ctx context.Context, clientID string, invoice entity.InvoiceRecord) error
}

// Store is a complete target store
type Store interface {
	ClientRepository
	InvoiceRepository
	// Ping verifies the store is reachable before any upstream fetch
	Ping(ctx context.Context) error
	Close() error
}
