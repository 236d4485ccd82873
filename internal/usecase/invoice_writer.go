package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainerrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/repository"
	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
)

// InvoiceWriteOutcome is the result of writing one invoice to the ledger
type InvoiceWriteOutcome int

const (
	InvoiceInserted InvoiceWriteOutcome = iota
	InvoiceExists
	// InvoiceDisabled means the ledger is not installed in the target store
	InvoiceDisabled
	// InvoiceIneligible means the invoice is not a paid subscription charge and was not written
	InvoiceIneligible
)

// InvoiceWriter appends invoices to the ledger exactly once per external id.
// The first missing-table (or missing-procedure) failure disables it for the rest of the run.
type InvoiceWriter struct {
	repo   repository.InvoiceRepository
	logger *zap.Logger

	mu       sync.Mutex
	disabled bool
}

// NewInvoiceWriter creates a new invoice writer
func NewInvoiceWriter(repo repository.InvoiceRepository, logger *zap.Logger) *InvoiceWriter {
	return &InvoiceWriter{
		repo:   repo,
		logger: logger,
	}
}

// Disabled reports whether the ledger was found missing during this run
func (w *InvoiceWriter) Disabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disabled
}

// Write inserts a paid subscription invoice unless its external id is already recorded
func (w *InvoiceWriter) Write(ctx context.Context, clientID string, invoice entity.InvoiceRecord) (InvoiceWriteOutcome, error) {
	if w.Disabled() {
		return InvoiceDisabled, nil
	}
	if !invoice.IsLedgerEntry() {
		return InvoiceIneligible, nil
	}

	exists, err := w.repo.ExistsByExternalID(ctx, invoice.ExternalID)
	if err != nil {
		return w.fail(err)
	}
	if exists {
		return InvoiceExists, nil
	}

	if err := w.repo.Insert(ctx, clientID, invoice); err != nil {
		return w.fail(err)
	}
	return InvoiceInserted, nil
}

func (w *InvoiceWriter) fail(err error) (InvoiceWriteOutcome, error) {
	if !errors.Is(err, domainerrors.ErrTableMissing) && !errors.Is(err, domainerrors.ErrProcedureMissing) {
		return InvoiceInserted, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.disabled {
		w.disabled = true
		w.logger.Warn("Invoice ledger is not installed; skipping invoice writes for the rest of the run",
			zap.Error(err))
	}
	return InvoiceDisabled, nil
}
