package config

import "time"

type ServiceConfig struct {
	Name        string
	Environment string
	// SyncToStore selects the sync command when no subcommand is given
	SyncToStore bool
}

type ClerkConfig struct {
	SecretKey string `validate:"required" config:"clerk.secret_key (CLERK_SECRET_KEY)"`
	BaseURL   string `validate:"required,url" config:"clerk.base_url"`
	PageSize  int    `validate:"min=1,max=500" config:"clerk.page_size"`
}

type HubSpotConfig struct {
	AccessToken string `validate:"required" config:"hubspot.access_token (HUBSPOT_ACCESS_TOKEN)"`
	BaseURL     string `validate:"required,url" config:"hubspot.base_url"`
	PageSize    int    `validate:"min=1,max=100" config:"hubspot.page_size"`
}

type StripeConfig struct {
	SecretKey string `validate:"required" config:"stripe.secret_key (STRIPE_SECRET_KEY)"`
	// BaseURL overrides the API endpoint, e.g. for stripe-mock
	BaseURL           string `validate:"omitempty,url" config:"stripe.base_url"`
	SubscriptionLimit int64  `validate:"min=1,max=100" config:"stripe.subscription_limit"`
	InvoiceLimit      int64  `validate:"min=1,max=100" config:"stripe.invoice_limit"`
	InvoiceSyncLimit  int64  `validate:"min=1,max=100" config:"stripe.invoice_sync_limit"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis server is configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type CacheConfig struct {
	TTL time.Duration
}

type NotifyConfig struct {
	// Channel is the Redis pub/sub channel for run summaries; empty disables publishing
	Channel string
}

type ArchiveConfig struct {
	Bucket    string
	Region    string
	Prefix    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether rendered reports are archived to S3
func (c ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}
