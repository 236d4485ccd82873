package repository

import (
	"context"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
)

// ClientRepository reads and updates client profiles. It never creates clients.
type ClientRepository interface {
	// FindByEmail returns every client whose email matches the canonical email
	FindByEmail(ctx context.Context, email string) ([]entity.ClientRecord, error)
	// UpdateSubscription writes only the subscription columns; nil fields become NULL
	UpdateSubscription(ctx context.Context, clientID string, fields entity.SubscriptionFields) error
	ListWithCustomerID(ctx context.Context) ([]entity.ClientRecord, error)
	ListWithoutCustomerID(ctx context.Context) ([]entity.ClientRecord, error)
	SetCustomerID(ctx context.Context, clientID, customerID string) error
}
