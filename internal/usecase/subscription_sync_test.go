package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainerrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/billing-reconciler/internal/usecase"
)

func cycleInvoice(id string) entity.InvoiceRecord {
	return paidInvoice(id, entity.BillingReasonSubscriptionCycle)
}

func TestSubscriptionSync_UpsertClientSubscription(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	paid := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("client not found performs no write", func(t *testing.T) {
		clients := new(MockClientRepository)
		invoices := new(MockInvoiceRepository)
		sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)

		clients.On("FindByEmail", ctx, "ghost@x.io").Return([]entity.ClientRecord{}, nil)

		result := sync.UpsertClientSubscription(ctx, "ghost@x.io", entity.SubscriptionSummary{
			Email:    "ghost@x.io",
			Status:   entity.StatusActive,
			Invoices: []entity.InvoiceRecord{cycleInvoice("in_1")},
		})

		assert.Equal(t, entity.OutcomeNotFound, result.Outcome)
		clients.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
		invoices.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("updates first match and skips recorded invoices", func(t *testing.T) {
		clients := new(MockClientRepository)
		invoices := new(MockInvoiceRepository)
		sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)

		summary := entity.SubscriptionSummary{
			Email:          "jane@example.com",
			Status:         entity.StatusActive,
			ProductName:    "Pro",
			PlanIdentifier: "price_1",
			LastPaidDate:   &paid,
			Invoices: []entity.InvoiceRecord{
				{ExternalID: "in_old", AmountPaid: decimal.RequireFromString("19.99"), Status: entity.InvoiceStatusPaid, BillingReason: entity.BillingReasonSubscriptionCreate},
				{ExternalID: "in_new", AmountPaid: decimal.RequireFromString("29.99"), Status: entity.InvoiceStatusPaid, BillingReason: entity.BillingReasonSubscriptionCycle},
			},
		}

		clients.On("FindByEmail", ctx, "jane@example.com").Return([]entity.ClientRecord{
			{ID: "c1", Email: "Jane@Example.com"},
			{ID: "c2", Email: "jane@example.com"},
		}, nil)
		clients.On("UpdateSubscription", ctx, "c1", summary.Fields()).Return(nil)
		invoices.On("ExistsByExternalID", ctx, "in_old").Return(true, nil)
		invoices.On("ExistsByExternalID", ctx, "in_new").Return(false, nil)
		invoices.On("Insert", ctx, "c1", summary.Invoices[1]).Return(nil)

		result := sync.UpsertClientSubscription(ctx, "jane@example.com", summary)

		assert.Equal(t, entity.OutcomeUpdated, result.Outcome)
		assert.Equal(t, "c1", result.ClientID)
		assert.Equal(t, 1, result.InvoicesInserted)
		clients.AssertExpectations(t)
		invoices.AssertExpectations(t)
		invoices.AssertNumberOfCalls(t, "Insert", 1)
	})

	t.Run("pre-existing invoice inserts nothing", func(t *testing.T) {
		clients := new(MockClientRepository)
		invoices := new(MockInvoiceRepository)
		sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)

		clients.On("FindByEmail", ctx, "a@x.io").Return([]entity.ClientRecord{{ID: "c1"}}, nil)
		clients.On("UpdateSubscription", ctx, "c1", mock.Anything).Return(nil)
		invoices.On("ExistsByExternalID", ctx, "in_1").Return(true, nil)

		result := sync.UpsertClientSubscription(ctx, "a@x.io", entity.SubscriptionSummary{
			Status:   entity.StatusActive,
			Invoices: []entity.InvoiceRecord{cycleInvoice("in_1")},
		})

		assert.Equal(t, entity.OutcomeUpdated, result.Outcome)
		assert.Zero(t, result.InvoicesInserted)
		invoices.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not in source clears columns", func(t *testing.T) {
		clients := new(MockClientRepository)
		invoices := new(MockInvoiceRepository)
		sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)

		clients.On("FindByEmail", ctx, "left@x.io").Return([]entity.ClientRecord{{ID: "c9"}}, nil)
		clients.On("UpdateSubscription", ctx, "c9", entity.SubscriptionFields{}).Return(nil)

		result := sync.UpsertClientSubscription(ctx, "left@x.io", entity.NotInSourceSummary("left@x.io"))

		assert.Equal(t, entity.OutcomeUpdated, result.Outcome)
		clients.AssertExpectations(t)
	})

	t.Run("update failure is isolated", func(t *testing.T) {
		clients := new(MockClientRepository)
		invoices := new(MockInvoiceRepository)
		sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)

		clients.On("FindByEmail", ctx, "a@x.io").Return([]entity.ClientRecord{{ID: "c1"}}, nil)
		clients.On("UpdateSubscription", ctx, "c1", mock.Anything).Return(errors.New("constraint"))

		result := sync.UpsertClientSubscription(ctx, "a@x.io", entity.SubscriptionSummary{
			Status:   entity.StatusActive,
			Invoices: []entity.InvoiceRecord{cycleInvoice("in_1")},
		})

		assert.Equal(t, entity.OutcomeFailed, result.Outcome)
		assert.Error(t, result.Err)
		invoices.AssertNotCalled(t, "ExistsByExternalID", mock.Anything, mock.Anything)
	})

	t.Run("missing invoice table disables writer once", func(t *testing.T) {
		clients := new(MockClientRepository)
		invoices := new(MockInvoiceRepository)
		sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)
		missing := &domainerrors.StoreError{Op: "exists", Table: "invoices", Kind: domainerrors.ErrTableMissing}

		clients.On("FindByEmail", ctx, mock.Anything).Return([]entity.ClientRecord{{ID: "c1"}}, nil)
		clients.On("UpdateSubscription", ctx, "c1", mock.Anything).Return(nil)
		invoices.On("ExistsByExternalID", ctx, "in_1").Return(false, missing).Once()

		summary := entity.SubscriptionSummary{
			Status:   entity.StatusActive,
			Invoices: []entity.InvoiceRecord{cycleInvoice("in_1"), cycleInvoice("in_2")},
		}
		first := sync.UpsertClientSubscription(ctx, "a@x.io", summary)
		second := sync.UpsertClientSubscription(ctx, "b@x.io", summary)

		assert.Equal(t, entity.OutcomeUpdated, first.Outcome)
		assert.Equal(t, entity.OutcomeUpdated, second.Outcome)
		assert.Zero(t, first.InvoiceErrors)
		assert.True(t, sync.InvoicesDisabled())
		invoices.AssertNumberOfCalls(t, "ExistsByExternalID", 1)
	})

	t.Run("invoice insert failure is counted", func(t *testing.T) {
		clients := new(MockClientRepository)
		invoices := new(MockInvoiceRepository)
		sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)

		clients.On("FindByEmail", ctx, "a@x.io").Return([]entity.ClientRecord{{ID: "c1"}}, nil)
		clients.On("UpdateSubscription", ctx, "c1", mock.Anything).Return(nil)
		invoices.On("ExistsByExternalID", ctx, mock.Anything).Return(false, nil)
		invoices.On("Insert", ctx, "c1", mock.Anything).Return(errors.New("duplicate key")).Once()
		invoices.On("Insert", ctx, "c1", mock.Anything).Return(nil).Once()

		result := sync.UpsertClientSubscription(ctx, "a@x.io", entity.SubscriptionSummary{
			Status:   entity.StatusActive,
			Invoices: []entity.InvoiceRecord{cycleInvoice("in_1"), cycleInvoice("in_2")},
		})

		assert.Equal(t, entity.OutcomeUpdated, result.Outcome)
		assert.Equal(t, 1, result.InvoiceErrors)
		assert.Equal(t, 1, result.InvoicesInserted)
		assert.False(t, sync.InvoicesDisabled())
	})

	t.Run("unpaid and manual invoices never reach the ledger", func(t *testing.T) {
		clients := new(MockClientRepository)
		invoices := new(MockInvoiceRepository)
		sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)

		open := cycleInvoice("in_open")
		open.Status = "open"
		open.AmountPaid = decimal.Zero
		draft := cycleInvoice("in_draft")
		draft.Status = "draft"
		manual := paidInvoice("in_manual", "manual")

		clients.On("FindByEmail", ctx, "a@x.io").Return([]entity.ClientRecord{{ID: "c1"}}, nil)
		clients.On("UpdateSubscription", ctx, "c1", mock.Anything).Return(nil)

		result := sync.UpsertClientSubscription(ctx, "a@x.io", entity.SubscriptionSummary{
			Status:   entity.StatusActive,
			Invoices: []entity.InvoiceRecord{open, draft, manual},
		})

		assert.Equal(t, entity.OutcomeUpdated, result.Outcome)
		assert.Zero(t, result.InvoicesInserted)
		assert.Zero(t, result.InvoiceErrors)
		invoices.AssertNotCalled(t, "ExistsByExternalID", mock.Anything, mock.Anything)
		invoices.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	})
}
