package stripe

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/config"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/billing-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
)

const (
	sourceName        = "stripe"
	customerPageSize  = 100
	subscriptionsAll  = "all"
	latestInvoicePath = "data.latest_invoice"
)

// StripeGateway implements the BillingGateway interface for Stripe
type StripeGateway struct {
	api    *client.API
	cfg    config.StripeConfig
	logger *zap.Logger
}

// NewStripeGateway creates a gateway with its own client; the package-level stripe.Key is never touched.
// Network retries are disabled: a failed call is counted, not retried.
func NewStripeGateway(cfg config.StripeConfig, timeout time.Duration, logger *zap.Logger) *StripeGateway {
	newBackend := func(backend stripe.SupportedBackend) stripe.Backend {
		backendCfg := &stripe.BackendConfig{
			HTTPClient:        &http.Client{Timeout: timeout},
			LeveledLogger:     logger.Sugar(),
			MaxNetworkRetries: stripe.Int64(0),
		}
		if cfg.BaseURL != "" {
			backendCfg.URL = stripe.String(cfg.BaseURL)
		}
		return stripe.GetBackendWithConfig(backend, backendCfg)
	}

	api := client.New(cfg.SecretKey, &stripe.Backends{
		API:     newBackend(stripe.APIBackend),
		Connect: newBackend(stripe.ConnectBackend),
		Uploads: newBackend(stripe.UploadsBackend),
	})

	return &StripeGateway{
		api:    api,
		cfg:    cfg,
		logger: logger,
	}
}

var _ provider.BillingGateway = (*StripeGateway)(nil)

// GetProviderName returns the provider name
func (s *StripeGateway) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}

// ListCustomers follows the starting_after cursor through every customer
func (s *StripeGateway) ListCustomers(ctx context.Context) ([]provider.Customer, error) {
	params := &stripe.CustomerListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(customerPageSize)

	var customers []provider.Customer
	iter := s.api.Customers.List(params)
	for iter.Next() {
		c := iter.Customer()
		if c.Deleted {
			continue
		}
		customers = append(customers, provider.Customer{
			ID:    c.ID,
			Email: c.Email,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, toFetchError(err)
	}

	s.logger.Info("Fetched Stripe customers", zap.Int("customers", len(customers)))
	return customers, nil
}

// ListSubscriptions returns one bounded page, newest first, canceled included
func (s *StripeGateway) ListSubscriptions(ctx context.Context, customerID string) ([]provider.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(subscriptionsAll),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(s.cfg.SubscriptionLimit)
	params.Single = true
	params.AddExpand(latestInvoicePath)

	var subs []provider.Subscription
	iter := s.api.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, toSubscription(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, toFetchError(err)
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	return subs, nil
}

// ListInvoices returns one bounded page of a customer's invoices
func (s *StripeGateway) ListInvoices(ctx context.Context, customerID string, filter provider.InvoiceFilter) ([]entity.InvoiceRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = s.cfg.InvoiceLimit
	}

	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	if filter.Status != "" {
		params.Status = stripe.String(filter.Status)
	}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var invoices []entity.InvoiceRecord
	iter := s.api.Invoices.List(params)
	for iter.Next() {
		invoices = append(invoices, toInvoice(iter.Invoice()))
	}
	if err := iter.Err(); err != nil {
		return nil, toFetchError(err)
	}
	return invoices, nil
}

// GetProductName fetches the display name of one product
func (s *StripeGateway) GetProductName(ctx context.Context, productID string) (string, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx

	prod, err := s.api.Products.Get(productID, params)
	if err != nil {
		return "", toFetchError(err)
	}
	return prod.Name, nil
}

// FindCustomerByEmail returns the first customer registered with the email
func (s *StripeGateway) FindCustomerByEmail(ctx context.Context, email string) (*provider.Customer, error) {
	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	params.Single = true

	iter := s.api.Customers.List(params)
	if iter.Next() {
		c := iter.Customer()
		return &provider.Customer{ID: c.ID, Email: c.Email}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, toFetchError(err)
	}
	return nil, nil
}

func toSubscription(sub *stripe.Subscription) provider.Subscription {
	out := provider.Subscription{
		ID:        sub.ID,
		Status:    string(sub.Status),
		CreatedAt: time.Unix(sub.Created, 0).UTC(),
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		out.PriceID = price.ID
		out.PlanNickname = price.Nickname
		if price.Product != nil {
			out.ProductID = price.Product.ID
		}
	}

	if inv := sub.LatestInvoice; inv != nil && inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		paidAt := time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
		out.LatestInvoicePaidAt = &paidAt
	}
	return out
}

func toInvoice(inv *stripe.Invoice) entity.InvoiceRecord {
	return entity.InvoiceRecord{
		ExternalID:    inv.ID,
		AmountPaid:    entity.AmountFromMinorUnits(inv.AmountPaid),
		CreatedAt:     time.Unix(inv.Created, 0).UTC(),
		Status:        string(inv.Status),
		DocumentURL:   inv.InvoicePDF,
		BillingReason: string(inv.BillingReason),
	}
}

func toFetchError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode != 0 {
		return domainErrors.NewStatusError(sourceName, stripeErr.HTTPStatusCode, []byte(stripeErr.Msg))
	}
	return domainErrors.NewTransportError(sourceName, err)
}
