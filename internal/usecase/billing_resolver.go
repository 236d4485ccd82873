package usecase

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
	"github.com/wekeepgrowing/billing-reconciler/internal/identity"
)

// SummarySource produces the authoritative billing summary per canonical email
type SummarySource interface {
	FetchAll(ctx context.Context) (map[string]entity.SubscriptionSummary, error)
}

// BillingResolver builds one SubscriptionSummary per payment-processor customer
type BillingResolver struct {
	gateway      provider.BillingGateway
	products     provider.ProductCache
	invoiceLimit int64
	logger       *zap.Logger
}

// NewBillingResolver creates a new billing resolver
func NewBillingResolver(gateway provider.BillingGateway, products provider.ProductCache, invoiceLimit int64, logger *zap.Logger) *BillingResolver {
	return &BillingResolver{
		gateway:      gateway,
		products:     products,
		invoiceLimit: invoiceLimit,
		logger:       logger,
	}
}

var _ SummarySource = (*BillingResolver)(nil)

// FetchAll resolves every customer. Only the customer listing itself can fail the call;
// per-customer failures are folded into that customer's summary.
func (r *BillingResolver) FetchAll(ctx context.Context) (map[string]entity.SubscriptionSummary, error) {
	startTime := time.Now()

	customers, err := r.gateway.ListCustomers(ctx)
	if err != nil {
		return nil, upstreamError(r.gateway.GetProviderName(), "failed to list payment customers", err)
	}

	summaries := make(map[string]entity.SubscriptionSummary, len(customers))
	skipped := 0
	for _, customer := range customers {
		email := identity.CanonicalEmail(customer.Email)
		if email == "" {
			skipped++
			continue
		}
		summaries[email] = r.Resolve(ctx, customer.ID, email)
	}

	r.logger.Info("Resolved billing summaries",
		zap.Int("customers", len(customers)),
		zap.Int("summaries", len(summaries)),
		zap.Int("skipped_without_email", skipped),
		zap.Duration("duration", time.Since(startTime)))

	return summaries, nil
}

// Resolve builds the summary for one customer
func (r *BillingResolver) Resolve(ctx context.Context, customerID, email string) entity.SubscriptionSummary {
	summary := entity.SubscriptionSummary{
		CustomerID: customerID,
		Email:      email,
		Status:     entity.StatusNoSubscription,
	}

	subs, err := r.gateway.ListSubscriptions(ctx, customerID)
	if err != nil {
		r.logger.Warn("Failed to resolve subscription",
			zap.String("email", email),
			zap.String("customer_id", customerID),
			zap.Error(err))
		summary.Status = entity.StatusError
	} else if sub, ok := SelectAuthoritative(subs); ok {
		summary.Status = entity.SubscriptionStatus(sub.Status)
		summary.PlanIdentifier = sub.PlanIdentifier()
		summary.ProductName = r.productName(ctx, sub.ProductID)
		if sub.LatestInvoicePaidAt != nil {
			paid := sub.LatestInvoicePaidAt.UTC()
			date := time.Date(paid.Year(), paid.Month(), paid.Day(), 0, 0, 0, 0, time.UTC)
			summary.LastPaidDate = &date
		}
	}

	invoices, err := r.gateway.ListInvoices(ctx, customerID, provider.InvoiceFilter{
		Status: entity.InvoiceStatusPaid,
		Limit:  r.invoiceLimit,
	})
	if err != nil {
		r.logger.Warn("Failed to list invoices",
			zap.String("email", email),
			zap.String("customer_id", customerID),
			zap.Error(err))
	} else {
		summary.Invoices = invoices
	}

	return summary
}

// SelectAuthoritative picks the newest subscription that is not canceled,
// falling back to the newest canceled one
func SelectAuthoritative(subs []provider.Subscription) (provider.Subscription, bool) {
	if len(subs) == 0 {
		return provider.Subscription{}, false
	}

	sorted := make([]provider.Subscription, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	for _, sub := range sorted {
		if sub.Status != string(entity.StatusCanceled) {
			return sub, true
		}
	}
	return sorted[0], true
}

// productName looks the product up once per run; a failed lookup leaves the name empty
func (r *BillingResolver) productName(ctx context.Context, productID string) string {
	if productID == "" {
		return ""
	}
	if name, ok := r.products.Get(ctx, productID); ok {
		return name
	}

	name, err := r.gateway.GetProductName(ctx, productID)
	if err != nil {
		r.logger.Warn("Failed to fetch product",
			zap.String("product_id", productID),
			zap.Error(err))
		return ""
	}
	r.products.Set(ctx, productID, name)
	return name
}
