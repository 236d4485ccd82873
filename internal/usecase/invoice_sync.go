package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/repository"
	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
)

// InvoiceSync backfills paid subscription invoices for every client linked to a payment customer
type InvoiceSync struct {
	clients repository.ClientRepository
	gateway provider.BillingGateway
	writer  *InvoiceWriter
	limit   int64
	logger  *zap.Logger
}

// NewInvoiceSync creates a new invoice sync
func NewInvoiceSync(clients repository.ClientRepository, gateway provider.BillingGateway, writer *InvoiceWriter, limit int64, logger *zap.Logger) *InvoiceSync {
	return &InvoiceSync{
		clients: clients,
		gateway: gateway,
		writer:  writer,
		limit:   limit,
		logger:  logger,
	}
}

// Run is idempotent: invoices already in the ledger are counted as skipped
func (s *InvoiceSync) Run(ctx context.Context) (entity.InvoiceSyncTally, error) {
	var tally entity.InvoiceSyncTally
	startTime := time.Now()

	clients, err := s.clients.ListWithCustomerID(ctx)
	if err != nil {
		return tally, errors.Unavailable("failed to list linked clients", err)
	}

	for _, client := range clients {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		if s.writer.Disabled() {
			break
		}
		if !client.HasStripeCustomer() {
			s.logger.Debug("Skipping client without customer id", zap.String("client_id", client.ID))
			continue
		}
		tally.Clients++
		s.syncClient(ctx, client, &tally)
	}

	tally.InvoiceTableMissing = s.writer.Disabled()

	s.logger.Info("Invoice sync complete",
		zap.Int("clients", tally.Clients),
		zap.Int("inserted", tally.Inserted),
		zap.Int("skipped", tally.Skipped),
		zap.Int("errors", tally.Errors),
		zap.Bool("invoice_table_missing", tally.InvoiceTableMissing),
		zap.Duration("duration", time.Since(startTime)))

	return tally, nil
}

func (s *InvoiceSync) syncClient(ctx context.Context, client entity.ClientRecord, tally *entity.InvoiceSyncTally) {
	customerID := *client.StripeCustomerID
	log := s.logger.With(
		zap.String("client_id", client.ID),
		zap.String("customer_id", customerID))

	invoices, err := s.gateway.ListInvoices(ctx, customerID, provider.InvoiceFilter{
		Status: entity.InvoiceStatusPaid,
		Limit:  s.limit,
	})
	if err != nil {
		tally.Errors++
		log.Error("Failed to list invoices", zap.Error(err))
		return
	}

	for _, invoice := range invoices {
		outcome, err := s.writer.Write(ctx, client.ID, invoice)
		if err != nil {
			tally.Errors++
			log.Error("Failed to insert invoice",
				zap.String("invoice_id", invoice.ExternalID),
				zap.Error(err))
			continue
		}

		switch outcome {
		case InvoiceInserted:
			tally.Inserted++
			log.Debug("Inserted invoice", zap.String("invoice_id", invoice.ExternalID))
		case InvoiceExists:
			tally.Skipped++
		case InvoiceDisabled:
			return
		case InvoiceIneligible:
			log.Debug("Skipped non-subscription invoice", zap.String("invoice_id", invoice.ExternalID))
		}
	}
}
