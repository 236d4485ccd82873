package usecase_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
)

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByEmail(ctx context.Context, email string) ([]entity.ClientRecord, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]entity.ClientRecord), args.Error(1)
}

func (m *MockClientRepository) UpdateSubscription(ctx context.Context, clientID string, fields entity.SubscriptionFields) error {
	args := m.Called(ctx, clientID, fields)
	return args.Error(0)
}

func (m *MockClientRepository) ListWithCustomerID(ctx context.Context) ([]entity.ClientRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.ClientRecord), args.Error(1)
}

func (m *MockClientRepository) ListWithoutCustomerID(ctx context.Context) ([]entity.ClientRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.ClientRecord), args.Error(1)
}

func (m *MockClientRepository) SetCustomerID(ctx context.Context, clientID, customerID string) error {
	args := m.Called(ctx, clientID, customerID)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) Insert(ctx context.Context, clientID string, invoice entity.InvoiceRecord) error {
	args := m.Called(ctx, clientID, invoice)
	return args.Error(0)
}

// MockBillingGateway is a mock implementation of BillingGateway
type MockBillingGateway struct {
	mock.Mock
}

func (m *MockBillingGateway) ListCustomers(ctx context.Context) ([]provider.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]provider.Customer), args.Error(1)
}

func (m *MockBillingGateway) ListSubscriptions(ctx context.Context, customerID string) ([]provider.Subscription, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]provider.Subscription), args.Error(1)
}

func (m *MockBillingGateway) ListInvoices(ctx context.Context, customerID string, filter provider.InvoiceFilter) ([]entity.InvoiceRecord, error) {
	args := m.Called(ctx, customerID, filter)
	return args.Get(0).([]entity.InvoiceRecord), args.Error(1)
}

func (m *MockBillingGateway) GetProductName(ctx context.Context, productID string) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

func (m *MockBillingGateway) FindCustomerByEmail(ctx context.Context, email string) (*provider.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Customer), args.Error(1)
}

func (m *MockBillingGateway) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}

// MockContactSource is a mock implementation of ContactSource
type MockContactSource struct {
	mock.Mock
	name entity.ContactSource
}

func (m *MockContactSource) FetchAll(ctx context.Context) ([]entity.ContactRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]entity.ContactRecord), args.Error(1)
}

func (m *MockContactSource) Name() entity.ContactSource {
	return m.name
}

// MockSummarySource is a mock implementation of SummarySource
type MockSummarySource struct {
	mock.Mock
}

func (m *MockSummarySource) FetchAll(ctx context.Context) (map[string]entity.SubscriptionSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]entity.SubscriptionSummary), args.Error(1)
}

// memoryLedger is an in-memory invoice ledger keyed by external id
type memoryLedger struct {
	mu       sync.Mutex
	invoices map[string]string
}

func newMemoryLedger(externalIDs ...string) *memoryLedger {
	l := &memoryLedger{invoices: make(map[string]string)}
	for _, id := range externalIDs {
		l.invoices[id] = "existing"
	}
	return l
}

func (l *memoryLedger) ExistsByExternalID(_ context.Context, externalID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.invoices[externalID]
	return ok, nil
}

func (l *memoryLedger) Insert(_ context.Context, clientID string, invoice entity.InvoiceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invoices[invoice.ExternalID] = clientID
	return nil
}

func (l *memoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.invoices)
}

func strPtr(s string) *string {
	return &s
}
