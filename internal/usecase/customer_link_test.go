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
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
	"github.com/wekeepgrowing/billing-reconciler/internal/usecase"
)

func TestCustomerLink_Run(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	clients := new(MockClientRepository)
	gateway := new(MockBillingGateway)
	link := usecase.NewCustomerLink(clients, gateway, logger)

	clients.On("ListWithoutCustomerID", ctx).Return([]entity.ClientRecord{
		{ID: "c1", Email: " Jane@Example.com "},
		{ID: "c2", Email: "nobody@x.io"},
		{ID: "c3", Email: "flaky@x.io"},
		{ID: "c4", Email: ""},
	}, nil)
	gateway.On("FindCustomerByEmail", ctx, "jane@example.com").Return(&provider.Customer{ID: "cus_9", Email: "jane@example.com"}, nil)
	gateway.On("FindCustomerByEmail", ctx, "nobody@x.io").Return(nil, nil)
	gateway.On("FindCustomerByEmail", ctx, "flaky@x.io").Return(nil, errors.New("503"))
	clients.On("SetCustomerID", ctx, "c1", "cus_9").Return(nil)

	tally, err := link.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 4, tally.Clients)
	assert.Equal(t, 1, tally.Linked)
	assert.Equal(t, 2, tally.NotFound)
	assert.Equal(t, 1, tally.Errors)
	clients.AssertNumberOfCalls(t, "SetCustomerID", 1)
	gateway.AssertNotCalled(t, "FindCustomerByEmail", ctx, "")
}

func TestCustomerLink_SetFailureIsCounted(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	clients := new(MockClientRepository)
	gateway := new(MockBillingGateway)

	clients.On("ListWithoutCustomerID", ctx).Return([]entity.ClientRecord{{ID: "c1", Email: "a@x.io"}}, nil)
	gateway.On("FindCustomerByEmail", ctx, "a@x.io").Return(&provider.Customer{ID: "cus_1"}, nil)
	clients.On("SetCustomerID", ctx, "c1", mock.Anything).Return(errors.New("permission denied"))

	tally, err := usecase.NewCustomerLink(clients, gateway, logger).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, tally.Errors)
	assert.Zero(t, tally.Linked)
}
