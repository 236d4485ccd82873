package config

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/wekeepgrowing/billing-reconciler/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			if name := field.Tag.Get("config"); name != "" {
				return name
			}
			return field.Name
		})
	})
	return validate
}

// RequireAudit checks the settings needed to compare identity sources
func (c *Config) RequireAudit() error {
	return c.require("audit", c.Clerk, c.HubSpot, c.Stripe, c.Report)
}

// RequireSync checks the settings needed to write subscription state
func (c *Config) RequireSync() error {
	return c.require("sync", append([]interface{}{c.Clerk, c.Stripe, c.Report}, c.storeSections()...)...)
}

// RequireInvoices checks the settings needed to backfill invoices
func (c *Config) RequireInvoices() error {
	return c.require("invoices", append([]interface{}{c.Stripe, c.Report}, c.storeSections()...)...)
}

// RequireLink checks the settings needed to link clients to payment customers
func (c *Config) RequireLink() error {
	return c.require("link", append([]interface{}{c.Stripe, c.Report}, c.storeSections()...)...)
}

// storeSections returns the store settings relevant to the selected driver
func (c *Config) storeSections() []interface{} {
	sections := []interface{}{c.Store}
	switch c.Store.Driver {
	case StoreDriverSupabase:
		sections = append(sections, c.Store.Supabase)
	case StoreDriverPostgres:
		sections = append(sections, c.Store.Database)
	}
	return sections
}

func (c *Config) require(command string, sections ...interface{}) error {
	v := validatorInstance()

	var missing []string
	check := func(section interface{}) {
		err := v.Struct(section)
		if err == nil {
			return
		}
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			missing = append(missing, err.Error())
			return
		}
		for _, fe := range fieldErrs {
			missing = append(missing, fe.Field())
		}
	}

	for _, section := range sections {
		check(section)
	}

	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.Config(
		command+": missing or invalid settings: "+strings.Join(missing, ", "),
		nil,
	)
}
