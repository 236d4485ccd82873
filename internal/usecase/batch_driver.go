package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainerrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
)

// BatchDriver runs one subscription sync pass over the reconciled set
type BatchDriver struct {
	contacts provider.ContactSource
	billing  SummarySource
	upserter SubscriptionUpserter
	logger   *zap.Logger
}

// NewBatchDriver creates a new batch driver
func NewBatchDriver(contacts provider.ContactSource, billing SummarySource, upserter SubscriptionUpserter, logger *zap.Logger) *BatchDriver {
	return &BatchDriver{
		contacts: contacts,
		billing:  billing,
		upserter: upserter,
		logger:   logger,
	}
}

// Run fetches both sides, then writes every entry once. Per-record failures are counted, never fatal;
// only an upstream fetch failure aborts before the first write.
func (d *BatchDriver) Run(ctx context.Context) (entity.SyncTally, error) {
	var tally entity.SyncTally
	startTime := time.Now()

	contacts, err := fetchContacts(ctx, d.contacts, d.logger)
	if err != nil {
		return tally, err
	}

	summaries, err := d.billing.FetchAll(ctx)
	if err != nil {
		return tally, errors.Wrap(err, "failed to resolve billing summaries")
	}

	entries := SyncSet(Index(contacts), summaries)
	d.logger.Info("Starting subscription sync",
		zap.Int("contacts", len(contacts)),
		zap.Int("summaries", len(summaries)),
		zap.Int("entries", len(entries)))

	for _, entry := range entries {
		result := d.upserter.UpsertClientSubscription(ctx, entry.Email(), entry.Summary)
		tally.Record(result)
	}
	tally.InvoiceTableMissing = d.upserter.InvoicesDisabled()

	d.logger.Info("Subscription sync complete",
		zap.Int("total", tally.Total),
		zap.Int("updated", tally.Updated),
		zap.Int("not_found", tally.NotFound),
		zap.Int("errors", tally.Errors),
		zap.Int("invoices_inserted", tally.InvoicesInserted),
		zap.Int("invoice_errors", tally.InvoiceErrors),
		zap.Bool("invoice_table_missing", tally.InvoiceTableMissing),
		zap.Duration("duration", time.Since(startTime)))

	return tally, nil
}

// AuditService reports identity-provider users the CRM does not know, with their billing state
type AuditService struct {
	identities provider.ContactSource
	crm        provider.ContactSource
	billing    SummarySource
	logger     *zap.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(identities, crm provider.ContactSource, billing SummarySource, logger *zap.Logger) *AuditService {
	return &AuditService{
		identities: identities,
		crm:        crm,
		billing:    billing,
		logger:     logger,
	}
}

// Run is read-only
func (s *AuditService) Run(ctx context.Context) (entity.AuditReport, error) {
	var report entity.AuditReport

	identities, err := fetchContacts(ctx, s.identities, s.logger)
	if err != nil {
		return report, err
	}
	crm, err := fetchContacts(ctx, s.crm, s.logger)
	if err != nil {
		return report, err
	}
	summaries, err := s.billing.FetchAll(ctx)
	if err != nil {
		return report, errors.Wrap(err, "failed to resolve billing summaries")
	}

	identityIndex := Index(identities)
	missing := Difference(identityIndex, Index(crm))
	report.Entries = EnrichKeys(missing, identityIndex, summaries)

	s.logger.Info("Audit complete",
		zap.String("identity_source", string(s.identities.Name())),
		zap.String("crm_source", string(s.crm.Name())),
		zap.Int("identities", len(identityIndex)),
		zap.Int("missing_from_crm", len(report.Entries)))

	return report, nil
}

func fetchContacts(ctx context.Context, source provider.ContactSource, logger *zap.Logger) ([]entity.ContactRecord, error) {
	startTime := time.Now()

	contacts, err := source.FetchAll(ctx)
	if err != nil {
		return nil, upstreamError(string(source.Name()), "failed to fetch "+string(source.Name())+" contacts", err)
	}

	logger.Debug("Fetched contacts",
		zap.String("source", string(source.Name())),
		zap.Int("count", len(contacts)),
		zap.Duration("duration", time.Since(startTime)))
	return contacts, nil
}

// upstreamError codes an upstream failure; rejected credentials are reported apart from outages
func upstreamError(source, message string, err error) error {
	var fetchErr *domainerrors.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Rejected() {
		return errors.Unauthenticated(source+" rejected the credentials", err)
	}
	return errors.Unavailable(message, err)
}
