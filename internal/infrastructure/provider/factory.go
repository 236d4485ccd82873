package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/billing-reconciler/internal/config"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/billing-reconciler/internal/domain/provider"
	clerkProvider "github.com/wekeepgrowing/billing-reconciler/internal/infrastructure/provider/clerk"
	hubspotProvider "github.com/wekeepgrowing/billing-reconciler/internal/infrastructure/provider/hubspot"
	stripeProvider "github.com/wekeepgrowing/billing-reconciler/internal/infrastructure/provider/stripe"
)

// Factory creates source adapters from configuration
type Factory struct {
	config *config.Config
	logger *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// GetContactSource returns the identity adapter for a source
func (f *Factory) GetContactSource(source entity.ContactSource) (provider.ContactSource, error) {
	switch source {
	case entity.SourceClerk:
		return f.createClerkSource()
	case entity.SourceHubSpot:
		return f.createHubSpotSource()
	default:
		return nil, fmt.Errorf("unsupported contact source: %s", source)
	}
}

// GetGateway returns a payment gateway based on the provider type
func (f *Factory) GetGateway(providerType provider.ProviderType) (provider.BillingGateway, error) {
	switch providerType {
	case provider.ProviderTypeStripe:
		return f.createStripeGateway()
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

func (f *Factory) createClerkSource() (provider.ContactSource, error) {
	if f.config.Clerk.SecretKey == "" {
		return nil, fmt.Errorf("Clerk secret key not configured")
	}
	return clerkProvider.NewClient(f.config.Clerk, f.config.HTTP.Timeout,
		f.logger.With(zap.String("source", string(entity.SourceClerk)))), nil
}

func (f *Factory) createHubSpotSource() (provider.ContactSource, error) {
	if f.config.HubSpot.AccessToken == "" {
		return nil, fmt.Errorf("HubSpot access token not configured")
	}
	return hubspotProvider.NewClient(f.config.HubSpot, f.config.HTTP.Timeout,
		f.logger.With(zap.String("source", string(entity.SourceHubSpot)))), nil
}

func (f *Factory) createStripeGateway() (provider.BillingGateway, error) {
	if f.config.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("Stripe secret key not configured")
	}
	return stripeProvider.NewStripeGateway(f.config.Stripe, f.config.HTTP.Timeout,
		f.logger.With(zap.String("source", "stripe"))), nil
}
