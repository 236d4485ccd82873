package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/repository"
)

// SubscriptionUpserter writes one resolved summary onto the matching client profile
type SubscriptionUpserter interface {
	UpsertClientSubscription(ctx context.Context, email string, summary entity.SubscriptionSummary) entity.UpsertResult
	InvoicesDisabled() bool
}

// SubscriptionSync is the persistence engine for subscription state.
// It only updates existing clients and never creates one.
type SubscriptionSync struct {
	clients  repository.ClientRepository
	invoices *InvoiceWriter
	logger   *zap.Logger
}

// NewSubscriptionSync creates a new subscription sync
func NewSubscriptionSync(clients repository.ClientRepository, invoices *InvoiceWriter, logger *zap.Logger) *SubscriptionSync {
	return &SubscriptionSync{
		clients:  clients,
		invoices: invoices,
		logger:   logger,
	}
}

var _ SubscriptionUpserter = (*SubscriptionSync)(nil)

// InvoicesDisabled reports whether the invoice ledger went missing during the run
func (s *SubscriptionSync) InvoicesDisabled() bool {
	return s.invoices.Disabled()
}

// UpsertClientSubscription replaces the subscription columns of the first client matching the email,
// then appends the summary's invoices that the ledger does not hold yet
func (s *SubscriptionSync) UpsertClientSubscription(ctx context.Context, email string, summary entity.SubscriptionSummary) entity.UpsertResult {
	log := s.logger.With(zap.String("email", email))

	clients, err := s.clients.FindByEmail(ctx, email)
	if err != nil {
		log.Error("Failed to look up client", zap.Error(err))
		return entity.UpsertResult{Outcome: entity.OutcomeFailed, Err: err}
	}
	if len(clients) == 0 {
		log.Warn("No client found for email")
		return entity.UpsertResult{Outcome: entity.OutcomeNotFound}
	}
	if len(clients) > 1 {
		log.Warn("Multiple clients share the email; updating the first",
			zap.Int("matches", len(clients)))
	}

	client := clients[0]
	result := entity.UpsertResult{ClientID: client.ID}

	if err := s.clients.UpdateSubscription(ctx, client.ID, summary.Fields()); err != nil {
		log.Error("Failed to update subscription",
			zap.String("client_id", client.ID),
			zap.Error(err))
		result.Outcome = entity.OutcomeFailed
		result.Err = err
		return result
	}
	result.Outcome = entity.OutcomeUpdated

	for _, invoice := range summary.Invoices {
		outcome, err := s.invoices.Write(ctx, client.ID, invoice)
		if err != nil {
			result.InvoiceErrors++
			log.Error("Failed to insert invoice",
				zap.String("invoice_id", invoice.ExternalID),
				zap.Error(err))
			continue
		}
		if outcome == InvoiceDisabled {
			break
		}
		if outcome == InvoiceInserted {
			result.InvoicesInserted++
		}
	}

	log.Info("Updated client subscription",
		zap.String("client_id", client.ID),
		zap.String("status", string(summary.Status)),
		zap.Int("invoices_inserted", result.InvoicesInserted))

	return result
}
