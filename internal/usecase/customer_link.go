package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/repository"
	"github.com/wekeepgrowing/billing-reconciler/internal/identity"
	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
)

// CustomerLink fills in the payment customer id of clients that lack one
type CustomerLink struct {
	clients repository.ClientRepository
	gateway provider.BillingGateway
	logger  *zap.Logger
}

// NewCustomerLink creates a new customer link
func NewCustomerLink(clients repository.ClientRepository, gateway provider.BillingGateway, logger *zap.Logger) *CustomerLink {
	return &CustomerLink{
		clients: clients,
		gateway: gateway,
		logger:  logger,
	}
}

// Run looks every unlinked client up by email and records the first matching customer
func (l *CustomerLink) Run(ctx context.Context) (entity.LinkTally, error) {
	var tally entity.LinkTally

	clients, err := l.clients.ListWithoutCustomerID(ctx)
	if err != nil {
		return tally, errors.Unavailable("failed to list unlinked clients", err)
	}

	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		tally.Clients++

		email := identity.CanonicalEmail(client.Email)
		log := l.logger.With(
			zap.String("client_id", client.ID),
			zap.String("email", email))

		if email == "" {
			tally.NotFound++
			log.Warn("Client has no email; cannot link")
			continue
		}

		customer, err := l.gateway.FindCustomerByEmail(ctx, email)
		if err != nil {
			tally.Errors++
			log.Error("Failed to search payment customers", zap.Error(err))
			continue
		}
		if customer == nil {
			tally.NotFound++
			log.Info("No payment customer for client")
			continue
		}

		if err := l.clients.SetCustomerID(ctx, client.ID, customer.ID); err != nil {
			tally.Errors++
			log.Error("Failed to link customer", zap.String("customer_id", customer.ID), zap.Error(err))
			continue
		}
		tally.Linked++
		log.Info("Linked payment customer", zap.String("customer_id", customer.ID))
	}

	l.logger.Info("Customer link complete",
		zap.Int("clients", tally.Clients),
		zap.Int("linked", tally.Linked),
		zap.Int("not_found", tally.NotFound),
		zap.Int("errors", tally.Errors))

	return tally, nil
}
