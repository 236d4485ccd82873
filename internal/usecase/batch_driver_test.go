package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainerrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/billing-reconciler/internal/usecase"
	pkgerrors "github.com/wekeepgrowing/billing-reconciler/pkg/errors"
)

func TestBatchDriver_Run(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	clerk := &MockContactSource{name: entity.SourceClerk}
	billing := new(MockSummarySource)
	clients := new(MockClientRepository)
	invoices := newMemoryLedger("in_seen")
	sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(invoices, logger), logger)

	clerk.On("FetchAll", ctx).Return([]entity.ContactRecord{
		contact(entity.SourceClerk, "u1", "both@x.io"),
		contact(entity.SourceClerk, "u2", "gone@x.io"),
	}, nil)
	billing.On("FetchAll", ctx).Return(map[string]entity.SubscriptionSummary{
		"both@x.io": {CustomerID: "cus_1", Email: "both@x.io", Status: entity.StatusActive,
			Invoices: []entity.InvoiceRecord{cycleInvoice("in_seen"), cycleInvoice("in_fresh")}},
		"orphan@x.io": {CustomerID: "cus_2", Email: "orphan@x.io", Status: entity.StatusCanceled},
		"broken@x.io": {CustomerID: "cus_3", Email: "broken@x.io", Status: entity.StatusError},
	}, nil)
	clients.On("FindByEmail", ctx, "both@x.io").Return([]entity.ClientRecord{{ID: "c1"}}, nil)
	clients.On("FindByEmail", ctx, "gone@x.io").Return([]entity.ClientRecord{{ID: "c2"}}, nil)
	clients.On("FindByEmail", ctx, "orphan@x.io").Return([]entity.ClientRecord{}, nil)
	clients.On("FindByEmail", ctx, "broken@x.io").Return([]entity.ClientRecord{{ID: "c3"}}, nil)
	clients.On("UpdateSubscription", ctx, "c1", mock.Anything).Return(nil)
	clients.On("UpdateSubscription", ctx, "c2", entity.SubscriptionFields{}).Return(nil)
	clients.On("UpdateSubscription", ctx, "c3", mock.Anything).Return(errors.New("timeout"))

	tally, err := usecase.NewBatchDriver(clerk, billing, sync, logger).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 4, tally.Total)
	assert.Equal(t, 2, tally.Updated)
	assert.Equal(t, 1, tally.NotFound)
	assert.Equal(t, 1, tally.Errors)
	assert.Equal(t, 1, tally.InvoicesInserted)
	assert.False(t, tally.InvoiceTableMissing)
	clients.AssertExpectations(t)
}

func TestBatchDriver_FetchFailureAbortsBeforeWrites(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	clerk := &MockContactSource{name: entity.SourceClerk}
	billing := new(MockSummarySource)
	clients := new(MockClientRepository)
	sync := usecase.NewSubscriptionSync(clients, usecase.NewInvoiceWriter(newMemoryLedger(), logger), logger)

	clerk.On("FetchAll", ctx).Return([]entity.ContactRecord{}, domainerrors.NewStatusError("clerk", 401, []byte(`{"errors":[]}`)))

	_, err := usecase.NewBatchDriver(clerk, billing, sync, logger).Run(ctx)

	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrUnauthenticated, pkgerrors.CodeOf(err))
	var fetchErr *domainerrors.FetchError
	assert.True(t, errors.As(err, &fetchErr))
	billing.AssertNotCalled(t, "FetchAll", mock.Anything)
	clients.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAuditService_Run(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	clerk := &MockContactSource{name: entity.SourceClerk}
	hubspot := &MockContactSource{name: entity.SourceHubSpot}
	billing := new(MockSummarySource)

	clerk.On("FetchAll", ctx).Return([]entity.ContactRecord{
		contact(entity.SourceClerk, "u1", "known@x.io"),
		contact(entity.SourceClerk, "u2", "zoe@x.io"),
		contact(entity.SourceClerk, "u3", "adam@x.io"),
	}, nil)
	hubspot.On("FetchAll", ctx).Return([]entity.ContactRecord{
		contact(entity.SourceHubSpot, "h1", "known@x.io"),
		contact(entity.SourceHubSpot, "h2", "crm-only@x.io"),
	}, nil)
	billing.On("FetchAll", ctx).Return(map[string]entity.SubscriptionSummary{
		"zoe@x.io": {Email: "zoe@x.io", Status: entity.StatusActive, ProductName: "Pro"},
	}, nil)

	report, err := usecase.NewAuditService(clerk, hubspot, billing, logger).Run(ctx)

	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "adam@x.io", report.Entries[0].Email())
	assert.Equal(t, entity.StatusNotInSource, report.Entries[0].Summary.Status)
	assert.Equal(t, "zoe@x.io", report.Entries[1].Email())
	assert.Equal(t, "Pro", report.Entries[1].Summary.ProductName)
}

func TestAuditService_BillingFailureAborts(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	clerk := &MockContactSource{name: entity.SourceClerk}
	hubspot := &MockContactSource{name: entity.SourceHubSpot}
	billing := new(MockSummarySource)

	clerk.On("FetchAll", ctx).Return([]entity.ContactRecord{}, nil)
	hubspot.On("FetchAll", ctx).Return([]entity.ContactRecord{}, nil)
	billing.On("FetchAll", ctx).Return(nil, pkgerrors.Unavailable("failed to list payment customers", errors.New("401")))

	_, err := usecase.NewAuditService(clerk, hubspot, billing, logger).Run(ctx)

	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrUnavailable, pkgerrors.CodeOf(err))
}
