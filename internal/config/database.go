package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	StoreDriverSupabase = "supabase"
	StoreDriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver string `validate:"oneof=supabase postgres" config:"store.driver"`

	// InvoiceProcedure is the server-side function used to insert invoices.
	// When empty, invoices are inserted directly into the invoices table.
	InvoiceProcedure string

	// driver sections are validated separately, only for the selected driver
	Supabase SupabaseConfig `validate:"-"`
	Database DatabaseConfig `validate:"-"`
}

type SupabaseConfig struct {
	URL            string `validate:"required,url" config:"store.supabase.url (SUPABASE_URL)"`
	ServiceRoleKey string `validate:"required" config:"store.supabase.service_role_key (SUPABASE_SERVICE_ROLE_KEY)"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	// URL takes precedence over the discrete fields below
	URL      string
	Host     string `validate:"required_without=URL" config:"store.database.host (DATABASE_URL)"`
	Port     int
	Name     string `validate:"required_without=URL" config:"store.database.name"`
	User     string `validate:"required_without=URL" config:"store.database.user"`
	Password string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowQuery       time.Duration
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s",
		c.Host, c.Port, c.User, c.Name)
	if c.Password != "" {
		dsn += " password=" + c.Password
	}
	if c.SSLMode != "" {
		dsn += " sslmode=" + c.SSLMode
	}
	return dsn
}

// Redacted describes the target without credentials, for logs
func (c *DatabaseConfig) Redacted() string {
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			return u.Redacted()
		}
		return "postgres"
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Name)
}
