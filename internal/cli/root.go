// Package cli exposes the reconciler commands.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/wekeepgrowing/billing-reconciler/internal/config"
)

// Command names, also used as archive key segments and notification types
const (
	CommandAudit    = "audit"
	CommandSync     = "sync"
	CommandInvoices = "invoices"
	CommandLink     = "link"
)

// Options customizes how commands obtain their environment
type Options struct {
	// LoadConfig defaults to config.Load
	LoadConfig func() (*config.Config, error)
	// Out receives rendered reports; defaults to the command's stdout
	Out io.Writer
}

// NewRootCommand creates the reconciler command tree. No command takes flags;
// every setting comes from the environment or the config file.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}

	cmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Reconcile users across Clerk, HubSpot and Stripe",
		Long: `Reconcile users across the identity provider (Clerk), the CRM (HubSpot)
and the payment processor (Stripe), then optionally push subscription state
into the client database.

Without a subcommand, runs sync when SYNC_TO_SUPABASE=true and audit otherwise.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "")
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newSubcommand(opts, CommandAudit,
		"List identity-provider users missing from the CRM, with billing state"))
	cmd.AddCommand(newSubcommand(opts, CommandSync,
		"Write subscription state and invoices onto matching clients"))
	cmd.AddCommand(newSubcommand(opts, CommandInvoices,
		"Backfill paid subscription invoices for linked clients"))
	cmd.AddCommand(newSubcommand(opts, CommandLink,
		"Link clients to payment customers by email"))

	return cmd
}

func newSubcommand(opts Options, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:           name,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, name)
		},
	}
}

func run(cmd *cobra.Command, opts Options, command string) error {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return err
	}
	if command == "" {
		command = DefaultCommand(cfg)
	}

	out := opts.Out
	if out == nil {
		out = cmd.OutOrStdout()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return Run(ctx, cfg, command, out)
}

// DefaultCommand is the command the bare binary runs
func DefaultCommand(cfg *config.Config) string {
	if cfg.Service.SyncToStore {
		return CommandSync
	}
	return CommandAudit
}
