package config

import (
	"strings"
	"time"

	pkgconfig "github.com/wekeepgrowing/billing-reconciler/pkg/config"
	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
	"github.com/wekeepgrowing/billing-reconciler/pkg/logger"
)

// ServiceName is the viper service name; it also sets the RECONCILER_ env prefix
const ServiceName = "reconciler"

type Config struct {
	Service ServiceConfig
	Clerk   ClerkConfig
	HubSpot HubSpotConfig
	Stripe  StripeConfig
	Store   StoreConfig
	Redis   RedisConfig
	Cache   CacheConfig
	Notify  NotifyConfig
	Archive ArchiveConfig
	Report  ReportConfig
	HTTP    HTTPConfig
	Log     logger.Config
}

var defaults = map[string]interface{}{
	"service.name":                     ServiceName,
	"service.environment":              "dev",
	"service.sync_to_store":            false,
	"clerk.base_url":                   "https://api.clerk.com",
	"clerk.page_size":                  100,
	"hubspot.base_url":                 "https://api.hubapi.com",
	"hubspot.page_size":                100,
	"stripe.subscription_limit":        3,
	"stripe.invoice_limit":             10,
	"stripe.invoice_sync_limit":        100,
	"store.driver":                     StoreDriverSupabase,
	"store.invoice_procedure":          "insert_invoice",
	"store.database.port":              5432,
	"store.database.sslmode":           "require",
	"store.database.max_open_conns":    5,
	"store.database.max_idle_conns":    2,
	"store.database.conn_max_lifetime": "30m",
	"store.database.slow_query":        "500ms",
	"cache.ttl":                        "24h",
	"archive.prefix":                   "reports",
	"report.format":                    "table",
	"http.timeout":                     "30s",
	"log.level":                        "info",
	"log.format":                       "console",
	"log.output":                       "stderr",
}

// envAliases binds the unprefixed variable names operators already use
var envAliases = map[string][]string{
	"service.sync_to_store":           {"RECONCILER_SERVICE_SYNC_TO_STORE", "SYNC_TO_SUPABASE"},
	"clerk.secret_key":                {"RECONCILER_CLERK_SECRET_KEY", "CLERK_SECRET_KEY"},
	"hubspot.access_token":            {"RECONCILER_HUBSPOT_ACCESS_TOKEN", "HUBSPOT_ACCESS_TOKEN"},
	"stripe.secret_key":               {"RECONCILER_STRIPE_SECRET_KEY", "STRIPE_SECRET_KEY"},
	"store.supabase.url":              {"RECONCILER_STORE_SUPABASE_URL", "SUPABASE_URL", "VITE_SUPABASE_URL"},
	"store.supabase.service_role_key": {"RECONCILER_STORE_SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_SERVICE_ROLE_KEY"},
	"store.database.url":              {"RECONCILER_STORE_DATABASE_URL", "DATABASE_URL"},
	"redis.addr":                      {"RECONCILER_REDIS_ADDR", "REDIS_ADDR"},
	"redis.password":                  {"RECONCILER_REDIS_PASSWORD", "REDIS_PASSWORD"},
	"archive.bucket":                  {"RECONCILER_ARCHIVE_BUCKET", "REPORT_BUCKET"},
	"archive.region":                  {"RECONCILER_ARCHIVE_REGION", "AWS_REGION"},
}

// Load reads configuration once at startup
func Load() (*Config, error) {
	src, err := pkgconfig.Load(ServiceName,
		pkgconfig.WithDefaults(defaults),
		pkgconfig.WithEnvAliases(envAliases),
	)
	if err != nil {
		return nil, errors.Config("failed to load configuration", err)
	}
	return FromSource(src), nil
}

// FromSource maps a key/value source onto the typed configuration
func FromSource(src pkgconfig.Config) *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        src.GetString("service.name"),
			Environment: src.GetString("service.environment"),
			SyncToStore: src.GetBool("service.sync_to_store"),
		},
		Clerk: ClerkConfig{
			SecretKey: src.GetString("clerk.secret_key"),
			BaseURL:   strings.TrimRight(src.GetString("clerk.base_url"), "/"),
			PageSize:  src.GetInt("clerk.page_size"),
		},
		HubSpot: HubSpotConfig{
			AccessToken: src.GetString("hubspot.access_token"),
			BaseURL:     strings.TrimRight(src.GetString("hubspot.base_url"), "/"),
			PageSize:    src.GetInt("hubspot.page_size"),
		},
		Stripe: StripeConfig{
			SecretKey:         src.GetString("stripe.secret_key"),
			BaseURL:           strings.TrimRight(src.GetString("stripe.base_url"), "/"),
			SubscriptionLimit: int64(src.GetInt("stripe.subscription_limit")),
			InvoiceLimit:      int64(src.GetInt("stripe.invoice_limit")),
			InvoiceSyncLimit:  int64(src.GetInt("stripe.invoice_sync_limit")),
		},
		Store: StoreConfig{
			Driver:           strings.ToLower(src.GetString("store.driver")),
			InvoiceProcedure: src.GetString("store.invoice_procedure"),
			Supabase: SupabaseConfig{
				URL:            strings.TrimRight(src.GetString("store.supabase.url"), "/"),
				ServiceRoleKey: src.GetString("store.supabase.service_role_key"),
			},
			Database: DatabaseConfig{
				URL:             src.GetString("store.database.url"),
				Host:            src.GetString("store.database.host"),
				Port:            src.GetInt("store.database.port"),
				Name:            src.GetString("store.database.name"),
				User:            src.GetString("store.database.user"),
				Password:        src.GetString("store.database.password"),
				SSLMode:         src.GetString("store.database.sslmode"),
				MaxOpenConns:    src.GetInt("store.database.max_open_conns"),
				MaxIdleConns:    src.GetInt("store.database.max_idle_conns"),
				ConnMaxLifetime: src.GetDuration("store.database.conn_max_lifetime"),
				SlowQuery:       src.GetDuration("store.database.slow_query"),
			},
		},
		Redis: RedisConfig{
			Addr:     src.GetString("redis.addr"),
			Password: src.GetString("redis.password"),
			DB:       src.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			TTL: src.GetDuration("cache.ttl"),
		},
		Notify: NotifyConfig{
			Channel: src.GetString("notify.channel"),
		},
		Archive: ArchiveConfig{
			Bucket:    src.GetString("archive.bucket"),
			Region:    src.GetString("archive.region"),
			Prefix:    strings.Trim(src.GetString("archive.prefix"), "/"),
			Endpoint:  src.GetString("archive.endpoint"),
			AccessKey: src.GetString("archive.access_key"),
			SecretKey: src.GetString("archive.secret_key"),
		},
		Report: ReportConfig{
			Format: strings.ToLower(src.GetString("report.format")),
		},
		HTTP: HTTPConfig{
			Timeout: src.GetDuration("http.timeout"),
		},
		Log: logger.Config{
			Level:       src.GetString("log.level"),
			Format:      src.GetString("log.format"),
			Output:      src.GetString("log.output"),
			FilePath:    src.GetString("log.file_path"),
			Development: src.GetBool("log.development"),
		},
	}
}

type HTTPConfig struct {
	Timeout time.Duration
}

type ReportConfig struct {
	Format string `validate:"oneof=table json yaml"`
}
